package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/testes001/myfinbank-sub003/internal/transfer/domain"
)

// Querier is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements domain.AccountStore over Postgres. The
// compare-and-set is a conditional UPDATE: the balance predicate makes the
// row-level write atomic without explicit locks.
type AccountRepository struct {
	db Querier
}

func NewAccountRepository(db Querier) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Get(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT id, user_id, balance, currency, status, created_at, updated_at
		FROM accounts
		WHERE id = $1
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, id)

	var account domain.Account
	err := row.Scan(&account.ID, &account.UserID, &account.Balance, &account.Currency,
		&account.Status, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

func (r *AccountRepository) CompareAndSetBalance(ctx context.Context, id string, expected, updated decimal.Decimal) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET balance = $3, updated_at = now()
		WHERE id = $1 AND balance = $2
	`, id, expected, updated)
	if err != nil {
		return false, fmt.Errorf("failed to update balance: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

type TransactionRepository struct {
	db Querier
}

func NewTransactionRepository(db Querier) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO transactions
			(id, from_account_id, to_account_id, amount, currency, status,
			 reference_number, description, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
	`, txn.ID, txn.FromAccountID, txn.ToAccountID, txn.Amount, txn.Currency, txn.Status,
		txn.ReferenceNumber, txn.Description, txn.IdempotencyKey, txn.CreatedAt)

	return err
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return r.getBy(ctx, `WHERE id = $1`, id)
}

func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	return r.getBy(ctx, `WHERE idempotency_key = $1`, key)
}

func (r *TransactionRepository) getBy(ctx context.Context, where, arg string) (*domain.Transaction, error) {
	query := `
		SELECT id, from_account_id, to_account_id, amount, currency, status,
		       reference_number, description, COALESCE(idempotency_key, ''), created_at,
		       completed_at, COALESCE(failure_reason, '')
		FROM transactions
	` + where + ` LIMIT 1;`
	row := r.db.QueryRow(ctx, query, arg)

	var txn domain.Transaction
	err := row.Scan(&txn.ID, &txn.FromAccountID, &txn.ToAccountID, &txn.Amount, &txn.Currency,
		&txn.Status, &txn.ReferenceNumber, &txn.Description, &txn.IdempotencyKey,
		&txn.CreatedAt, &txn.CompletedAt, &txn.FailureReason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &txn, nil
}

func (r *TransactionRepository) MarkCompleted(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE transactions
		SET status = $2, completed_at = now()
		WHERE id = $1 AND status = $3
	`, id, domain.TransactionCompleted, domain.TransactionPending)

	return err
}

func (r *TransactionRepository) MarkFailed(ctx context.Context, id, reason string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE transactions
		SET status = $2, completed_at = now(), failure_reason = $3
		WHERE id = $1 AND status = $4
	`, id, domain.TransactionFailed, reason, domain.TransactionPending)

	return err
}
