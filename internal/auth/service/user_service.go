package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/testes001/myfinbank-sub003/internal/audit"
	"github.com/testes001/myfinbank-sub003/internal/auth/domain"
	"github.com/testes001/myfinbank-sub003/internal/auth/dto"
	apperrors "github.com/testes001/myfinbank-sub003/internal/errors"
	"github.com/testes001/myfinbank-sub003/pkg/constant"
)

type AuthService struct {
	repo              domain.UserRepository
	tokens            TokenGenerator
	limiter           *RateLimiter
	sink              audit.Sink
	clock             clockwork.Clock
	log               *zap.Logger
	maxActiveSessions int
}

func NewAuthService(repo domain.UserRepository, tokens TokenGenerator, limiter *RateLimiter,
	sink audit.Sink, clock clockwork.Clock, log *zap.Logger, maxActiveSessions int) *AuthService {
	return &AuthService{
		repo:              repo,
		tokens:            tokens,
		limiter:           limiter,
		sink:              sink,
		clock:             clock,
		log:               log,
		maxActiveSessions: maxActiveSessions,
	}
}

func (s *AuthService) Register(ctx context.Context, input dto.RegisterInput) (*domain.User, error) {
	email := NormalizeEmail(input.Email)

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrEmailAlreadyInUse
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hashed),
		Role:         constant.DefaultUserRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login runs the rate-limit check, the credential check, and token issuance.
// Every credential failure surfaces as ErrInvalidCredentials regardless of
// its internal cause; the precise cause stays in the audit trail.
func (s *AuthService) Login(ctx context.Context, input dto.LoginInput) (*dto.TokenResponse, error) {
	email := NormalizeEmail(input.Email)

	decision := s.limiter.Check(ctx, email, input.IPAddress)
	if !decision.Allowed {
		rlErr := &apperrors.RateLimitError{RequireCaptcha: decision.RequireCaptcha}
		if decision.ResetTime != nil {
			rlErr.ResetTime = *decision.ResetTime
			rlErr.RetryAfter = decision.ResetTime.Sub(s.clock.Now())
		}
		return nil, rlErr
	}
	if decision.Delay > 0 {
		// Progressive delay: slow the caller down before the credential check.
		s.clock.Sleep(decision.Delay)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	credentialOK := user != nil &&
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) == nil

	s.limiter.RecordAttempt(ctx, email, input.IPAddress, input.UserAgent, credentialOK)
	s.recordDurableAttempt(ctx, email, input, credentialOK)

	if !credentialOK {
		return nil, apperrors.ErrInvalidCredentials
	}

	s.limiter.Clear(ctx, email)

	sessionID := uuid.NewString()
	accessToken, refreshToken, _, err := s.tokens.Generate(user.ID, user.Email, user.Role, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.repo.StoreRefreshToken(ctx, &domain.RefreshToken{
		ID:                uuid.NewString(),
		SessionID:         sessionID,
		UserID:            user.ID,
		Token:             refreshToken,
		DeviceFingerprint: input.Fingerprint,
		IPAddress:         input.IPAddress,
		UserAgent:         input.UserAgent,
		ExpiresAt:         now.Add(s.tokens.RefreshTokenTTL()),
		CreatedAt:         now,
	}); err != nil {
		return nil, err
	}

	s.evictExcessSessions(ctx, user.ID)

	s.sink.Emit(audit.Event{
		Actor:      user.ID,
		Action:     "auth.login",
		Resource:   "session",
		ResourceID: sessionID,
		Status:     "success",
		Details:    map[string]string{"ip_address": input.IPAddress},
	})

	return &dto.TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh rotates the presented refresh token. Presenting a token whose row
// was already superseded or revoked is treated as replay of a stolen token:
// the whole session is revoked.
func (s *AuthService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenResponse, error) {
	claims, err := s.tokens.VerifyRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, err
	}

	row, err := s.repo.GetRefreshToken(ctx, input.RefreshToken)
	if err != nil {
		return nil, err
	}

	if row == nil || row.Revoked {
		return nil, s.handleRefreshReuse(ctx, claims)
	}

	if s.clock.Now().After(row.ExpiresAt) {
		return nil, apperrors.ErrRefreshTokenExpired
	}

	if row.DeviceFingerprint != "" && input.Fingerprint != row.DeviceFingerprint {
		s.sink.Emit(audit.Event{
			Actor:      claims.UserID,
			Action:     "auth.fingerprint_mismatch",
			Resource:   "session",
			ResourceID: row.SessionID,
			Status:     "denied",
		})
		return nil, apperrors.ErrRefreshTokenInvalid
	}

	// Supersede the old lineage link before issuing its successor, so a crash
	// between the two steps fails closed rather than leaving both valid.
	if err := s.repo.RevokeRefreshToken(ctx, row.ID); err != nil {
		return nil, err
	}

	accessToken, refreshToken, _, err := s.tokens.Generate(claims.UserID, claims.Email, claims.Role, row.SessionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.repo.StoreRefreshToken(ctx, &domain.RefreshToken{
		ID:                uuid.NewString(),
		SessionID:         row.SessionID,
		UserID:            row.UserID,
		Token:             refreshToken,
		DeviceFingerprint: input.Fingerprint,
		IPAddress:         input.IPAddress,
		UserAgent:         input.UserAgent,
		ExpiresAt:         now.Add(s.tokens.RefreshTokenTTL()),
		CreatedAt:         now,
	}); err != nil {
		return nil, err
	}

	s.sink.Emit(audit.Event{
		Actor:      claims.UserID,
		Action:     "auth.token_rotated",
		Resource:   "session",
		ResourceID: row.SessionID,
		Status:     "success",
	})

	return &dto.TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Logout revokes the presented session only; the user's other devices keep
// their sessions.
func (s *AuthService) Logout(ctx context.Context, input dto.LogoutInput) error {
	claims, err := s.tokens.VerifyRefreshToken(input.RefreshToken)
	if err != nil {
		return err
	}

	if err := s.repo.RevokeSession(ctx, claims.SessionID); err != nil {
		return err
	}

	s.sink.Emit(audit.Event{
		Actor:      claims.UserID,
		Action:     "auth.logout",
		Resource:   "session",
		ResourceID: claims.SessionID,
		Status:     "success",
	})

	return nil
}

func (s *AuthService) handleRefreshReuse(ctx context.Context, claims *JWTCustomClaims) error {
	lineage, err := s.repo.SessionHasLineage(ctx, claims.SessionID)
	if err != nil || !lineage {
		return apperrors.ErrRefreshTokenInvalid
	}

	// A validly signed token for a known session with no active row means a
	// rotated token is being replayed. Revoke everything under the session.
	if err := s.repo.RevokeSession(ctx, claims.SessionID); err != nil {
		s.log.Error("failed to revoke compromised session",
			zap.String("session_id", claims.SessionID), zap.Error(err))
	}

	s.sink.Emit(audit.Event{
		Actor:      claims.UserID,
		Action:     "auth.session_compromise",
		Resource:   "session",
		ResourceID: claims.SessionID,
		Status:     "revoked",
	})

	return apperrors.ErrSessionRevoked
}

func (s *AuthService) recordDurableAttempt(ctx context.Context, email string, input dto.LoginInput, success bool) {
	err := s.repo.RecordLoginAttempt(ctx, &domain.LoginAttempt{
		ID:          uuid.NewString(),
		Email:       email,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		AttemptTime: s.clock.Now(),
		Successful:  success,
	})
	if err != nil {
		s.log.Warn("failed to record login attempt", zap.Error(err))
	}
}

func (s *AuthService) evictExcessSessions(ctx context.Context, userID string) {
	count, err := s.repo.ActiveSessionCount(ctx, userID)
	if err != nil {
		s.log.Warn("failed to count active sessions", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if count <= s.maxActiveSessions {
		return
	}
	if err := s.repo.DeleteOldestSession(ctx, userID); err != nil {
		s.log.Warn("failed to evict oldest session", zap.String("user_id", userID), zap.Error(err))
	}
}
