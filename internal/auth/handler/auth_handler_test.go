package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/testes001/myfinbank-sub003/internal/audit"
	"github.com/testes001/myfinbank-sub003/internal/auth/domain"
	"github.com/testes001/myfinbank-sub003/internal/auth/handler"
	"github.com/testes001/myfinbank-sub003/internal/auth/service"
	"github.com/testes001/myfinbank-sub003/internal/metrics"
	"github.com/testes001/myfinbank-sub003/internal/mocks"
)

type noopSink struct{}

func (noopSink) Emit(audit.Event) {}

type handlerFixture struct {
	app    *fiber.App
	repo   *mocks.MockUserRepository
	ledger *mocks.MockAttemptLedger
	tokens *service.TokenService
	clock  clockwork.Clock
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := mocks.NewMockUserRepository(ctrl)
	ledger := mocks.NewMockAttemptLedger(ctrl)
	clock := clockwork.NewRealClock()
	log := zap.NewNop()
	sink := noopSink{}

	tokens := service.NewTokenService("access-secret", "refresh-secret", 15, 10080, clock)
	limiter := service.NewRateLimiter(ledger, sink, service.DefaultRateLimitConfig(), clock, log)
	authService := service.NewAuthService(repo, tokens, limiter, sink, clock, log, 5)

	m := metrics.New(prometheus.NewRegistry())
	h := handler.NewAuthHandler(authService, tokens, m)

	app := fiber.New()
	app.Post("/api/v1/login", h.Login)
	app.Post("/api/v1/refresh", h.Refresh)
	app.Delete("/api/v1/session", h.Logout)
	app.Get("/api/v1/protected", h.RequireAuth(), func(c *fiber.Ctx) error {
		claims := c.Locals("claims").(*service.JWTCustomClaims)
		return c.JSON(fiber.Map{"user_id": claims.UserID})
	})

	return &handlerFixture{app: app, repo: repo, ledger: ledger, tokens: tokens, clock: clock}
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func (f *handlerFixture) expectCleanLimiter() {
	f.ledger.EXPECT().FailedCountByIP(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
	f.ledger.EXPECT().FailedCount(gomock.Any(), gomock.Any(), 15*time.Minute).Return(0, nil)
}

func testUser(t *testing.T) *domain.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           "user-1",
		Email:        "user@test.com",
		PasswordHash: string(hashed),
		Role:         "customer",
	}
}

func TestLoginEndpoint_Success(t *testing.T) {
	f := newHandlerFixture(t)

	f.expectCleanLimiter()
	f.repo.EXPECT().GetByEmail(gomock.Any(), "user@test.com").Return(testUser(t), nil)
	f.ledger.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
	f.repo.EXPECT().RecordLoginAttempt(gomock.Any(), gomock.Any()).Return(nil)
	f.ledger.EXPECT().ClearFailures(gomock.Any(), "user@test.com").Return(nil)
	f.repo.EXPECT().StoreRefreshToken(gomock.Any(), gomock.Any()).Return(nil)
	f.repo.EXPECT().ActiveSessionCount(gomock.Any(), "user-1").Return(1, nil)

	resp, err := f.app.Test(jsonRequest(http.MethodPost, "/api/v1/login",
		`{"email":"user@test.com","password":"correct horse"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
}

func TestLoginEndpoint_GenericFailureMessage(t *testing.T) {
	// Wrong password and unknown email must produce byte-identical responses.
	tests := []struct {
		name string
		user *domain.User
	}{
		{name: "wrong password", user: testUser(t)},
		{name: "unknown email", user: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)

			f.expectCleanLimiter()
			f.repo.EXPECT().GetByEmail(gomock.Any(), "user@test.com").Return(tt.user, nil)
			f.ledger.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
			f.ledger.EXPECT().FailedCount(gomock.Any(), "user@test.com", 5*time.Minute).Return(1, nil)
			f.repo.EXPECT().RecordLoginAttempt(gomock.Any(), gomock.Any()).Return(nil)

			resp, err := f.app.Test(jsonRequest(http.MethodPost, "/api/v1/login",
				`{"email":"user@test.com","password":"not it"}`))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			body := decodeBody(t, resp)
			assert.Equal(t, "invalid email or password", body["error"])
		})
	}
}

func TestLoginEndpoint_RateLimited(t *testing.T) {
	f := newHandlerFixture(t)

	oldest := time.Now().Add(-5 * time.Minute)
	f.ledger.EXPECT().FailedCountByIP(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
	f.ledger.EXPECT().FailedCount(gomock.Any(), "user@test.com", 15*time.Minute).Return(5, nil)
	f.ledger.EXPECT().OldestFailure(gomock.Any(), "user@test.com", 15*time.Minute).Return(oldest, true, nil)

	resp, err := f.app.Test(jsonRequest(http.MethodPost, "/api/v1/login",
		`{"email":"user@test.com","password":"correct horse"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["require_captcha"])
	assert.NotContains(t, body["error"], "user@test.com")
}

func TestRefreshEndpoint_RotatesToken(t *testing.T) {
	f := newHandlerFixture(t)

	_, refreshToken, _, err := f.tokens.Generate("user-1", "user@test.com", "customer", "sess-1")
	require.NoError(t, err)

	row := &domain.RefreshToken{
		ID:        "rt-1",
		SessionID: "sess-1",
		UserID:    "user-1",
		Token:     refreshToken,
		ExpiresAt: f.clock.Now().Add(time.Hour),
	}
	f.repo.EXPECT().GetRefreshToken(gomock.Any(), refreshToken).Return(row, nil)
	f.repo.EXPECT().RevokeRefreshToken(gomock.Any(), "rt-1").Return(nil)
	f.repo.EXPECT().StoreRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	resp, err := f.app.Test(jsonRequest(http.MethodPost, "/api/v1/refresh",
		`{"refresh_token":"`+refreshToken+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEqual(t, refreshToken, body["refresh_token"])
}

func TestRefreshEndpoint_ReplayedTokenRevokesSession(t *testing.T) {
	f := newHandlerFixture(t)

	_, refreshToken, _, err := f.tokens.Generate("user-1", "user@test.com", "customer", "sess-1")
	require.NoError(t, err)

	f.repo.EXPECT().GetRefreshToken(gomock.Any(), refreshToken).
		Return(&domain.RefreshToken{ID: "rt-1", SessionID: "sess-1", Revoked: true}, nil)
	f.repo.EXPECT().SessionHasLineage(gomock.Any(), "sess-1").Return(true, nil)
	f.repo.EXPECT().RevokeSession(gomock.Any(), "sess-1").Return(nil)

	resp, err := f.app.Test(jsonRequest(http.MethodPost, "/api/v1/refresh",
		`{"refresh_token":"`+refreshToken+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "session revoked", body["error"])
}

func TestLogoutEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	_, refreshToken, _, err := f.tokens.Generate("user-1", "user@test.com", "customer", "sess-1")
	require.NoError(t, err)

	f.repo.EXPECT().RevokeSession(gomock.Any(), "sess-1").Return(nil)

	resp, err := f.app.Test(jsonRequest(http.MethodDelete, "/api/v1/session",
		`{"refresh_token":"`+refreshToken+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRequireAuth_ValidToken(t *testing.T) {
	f := newHandlerFixture(t)

	accessToken, _, _, err := f.tokens.Generate("user-1", "user@test.com", "customer", "sess-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+accessToken)

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "user-1", body["user_id"])
}

func TestRequireAuth_Failures(t *testing.T) {
	f := newHandlerFixture(t)

	// Expired token: issued by a service whose clock sits far in the past.
	pastClock := clockwork.NewFakeClockAt(time.Now().Add(-2 * time.Hour))
	pastTokens := service.NewTokenService("access-secret", "refresh-secret", 15, 10080, pastClock)
	expiredToken, _, _, err := pastTokens.Generate("user-1", "user@test.com", "customer", "sess-1")
	require.NoError(t, err)

	// Wrong secret: valid shape, unverifiable signature.
	forgedTokens := service.NewTokenService("other-secret", "refresh-secret", 15, 10080, clockwork.NewRealClock())
	forgedToken, _, _, err := forgedTokens.Generate("user-1", "user@test.com", "customer", "sess-1")
	require.NoError(t, err)

	tests := []struct {
		name      string
		header    string
		wantError string
	}{
		{name: "missing header", header: "", wantError: "missing bearer token"},
		{name: "not a bearer token", header: "Basic abc", wantError: "missing bearer token"},
		{name: "expired reported distinctly", header: "Bearer " + expiredToken, wantError: "token expired"},
		{name: "bad signature", header: "Bearer " + forgedToken, wantError: "invalid token"},
		{name: "garbage", header: "Bearer not.a.jwt", wantError: "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}

			resp, err := f.app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			body := decodeBody(t, resp)
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}
