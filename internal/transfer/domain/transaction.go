package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction is created in pending state before any balance write, so a
// crash mid-transfer leaves discoverable evidence. It transitions once to a
// terminal state and is immutable afterwards. The idempotency key makes
// client retries safe: the row itself is the idempotency anchor.
type Transaction struct {
	ID              string
	FromAccountID   string
	ToAccountID     string
	Amount          decimal.Decimal
	Currency        string
	Status          TransactionStatus
	ReferenceNumber string
	Description     string
	IdempotencyKey  string
	CreatedAt       time.Time
	CompletedAt     *time.Time
	FailureReason   string
}
