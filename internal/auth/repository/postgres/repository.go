package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/testes001/myfinbank-sub003/internal/auth/domain"
)

// Querier is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db Querier
}

func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, email)

	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

func (r *Repository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Email, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt)

	return err
}

func (r *Repository) StoreRefreshToken(ctx context.Context, rt *domain.RefreshToken) error {
	query := `INSERT INTO refresh_tokens
		(id, session_id, user_id, token, device_fingerprint, ip_address, user_agent, expires_at, created_at, revoked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, query,
		rt.ID, rt.SessionID, rt.UserID, rt.Token, rt.DeviceFingerprint,
		rt.IPAddress, rt.UserAgent, rt.ExpiresAt, rt.CreatedAt, rt.Revoked)

	return err
}

func (r *Repository) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, session_id, user_id, token, device_fingerprint, ip_address, user_agent, expires_at, created_at, revoked
		FROM refresh_tokens
		WHERE token = $1
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, token)

	var rt domain.RefreshToken
	err := row.Scan(&rt.ID, &rt.SessionID, &rt.UserID, &rt.Token, &rt.DeviceFingerprint,
		&rt.IPAddress, &rt.UserAgent, &rt.ExpiresAt, &rt.CreatedAt, &rt.Revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return &rt, nil
}

func (r *Repository) RevokeRefreshToken(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE refresh_tokens SET revoked = true WHERE id = $1`, id)
	return err
}

// RevokeSession revokes every token in the session's lineage. Other sessions
// of the same user are untouched.
func (r *Repository) RevokeSession(ctx context.Context, sessionID string) error {
	_, err := r.db.Exec(ctx, `UPDATE refresh_tokens SET revoked = true WHERE session_id = $1`, sessionID)
	return err
}

func (r *Repository) SessionHasLineage(ctx context.Context, sessionID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE session_id = $1)`, sessionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check session lineage: %w", err)
	}

	return exists, nil
}

func (r *Repository) ActiveSessionCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT session_id)
		FROM refresh_tokens
		WHERE user_id = $1 AND revoked = false AND expires_at > now()
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active sessions: %w", err)
	}

	return count, nil
}

func (r *Repository) DeleteOldestSession(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM refresh_tokens
		WHERE session_id = (
			SELECT session_id FROM refresh_tokens
			WHERE user_id = $1 AND revoked = false
			ORDER BY created_at ASC
			LIMIT 1
		)
	`, userID)

	return err
}

func (r *Repository) RecordLoginAttempt(ctx context.Context, attempt *domain.LoginAttempt) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO login_attempts (id, email, ip_address, user_agent, attempt_time, successful)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, attempt.ID, attempt.Email, attempt.IPAddress, attempt.UserAgent, attempt.AttemptTime, attempt.Successful)

	return err
}
