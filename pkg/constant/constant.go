package constant

const (
	DefaultUserRole = "customer"
	AdminRole       = "admin"

	TokenIssuer   = "myfinbank"
	TokenAudience = "myfinbank-clients"

	HeaderDeviceFingerprint = "X-Device-Fingerprint"
	HeaderIdempotencyKey    = "Idempotency-Key"
)
