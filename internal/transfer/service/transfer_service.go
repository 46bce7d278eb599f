package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/testes001/myfinbank-sub003/internal/audit"
	apperrors "github.com/testes001/myfinbank-sub003/internal/errors"
	"github.com/testes001/myfinbank-sub003/internal/transfer/domain"
	"github.com/testes001/myfinbank-sub003/internal/transfer/dto"
)

const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = 10 * time.Millisecond
	// compensationRetries is deliberately higher than the forward retry
	// budget: once the debit landed, giving the money back must not give up
	// as easily as the credit did.
	compensationRetries = 10
)

// TransferEngine moves money between two accounts with optimistic
// compare-and-set writes. The pending transaction row is created before any
// balance mutation; a failed operation never leaves only the debit or only
// the credit applied.
type TransferEngine struct {
	accounts     domain.AccountStore
	transactions domain.TransactionRepository
	sink         audit.Sink
	clock        clockwork.Clock
	log          *zap.Logger
	maxRetries   int
	retryBackoff time.Duration
}

type Option func(*TransferEngine)

// WithRetryPolicy overrides the bounded CAS retry count and backoff.
func WithRetryPolicy(maxRetries int, backoff time.Duration) Option {
	return func(e *TransferEngine) {
		e.maxRetries = maxRetries
		e.retryBackoff = backoff
	}
}

func NewTransferEngine(accounts domain.AccountStore, transactions domain.TransactionRepository,
	sink audit.Sink, clock clockwork.Clock, log *zap.Logger, opts ...Option) *TransferEngine {
	e := &TransferEngine{
		accounts:     accounts,
		transactions: transactions,
		sink:         sink,
		clock:        clock,
		log:          log,
		maxRetries:   defaultMaxRetries,
		retryBackoff: defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Transfer debits the source and credits the destination atomically from the
// caller's point of view. Validation failures surface before any account
// read; infrastructure failures fail closed.
func (e *TransferEngine) Transfer(ctx context.Context, input dto.TransferInput) (*domain.Transaction, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrInvalidTransfer)
	}
	if input.FromAccountID == input.ToAccountID {
		return nil, fmt.Errorf("%w: source and destination are the same account", apperrors.ErrInvalidTransfer)
	}

	if input.IdempotencyKey != "" {
		existing, err := e.transactions.GetByIdempotencyKey(ctx, input.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	from, err := e.getAccount(ctx, input.FromAccountID)
	if err != nil {
		return nil, err
	}
	to, err := e.getAccount(ctx, input.ToAccountID)
	if err != nil {
		return nil, err
	}

	if from.Currency != to.Currency {
		return nil, apperrors.ErrCurrencyMismatch
	}
	if from.Status != domain.AccountActive || to.Status != domain.AccountActive {
		return nil, apperrors.ErrAccountInactive
	}
	if from.Balance.LessThan(input.Amount) {
		e.emitOutcome(input, "", "rejected", apperrors.ErrInsufficientFunds.Error())
		return nil, apperrors.ErrInsufficientFunds
	}

	txn := &domain.Transaction{
		ID:              uuid.NewString(),
		FromAccountID:   input.FromAccountID,
		ToAccountID:     input.ToAccountID,
		Amount:          input.Amount,
		Currency:        from.Currency,
		Status:          domain.TransactionPending,
		ReferenceNumber: newReferenceNumber(),
		Description:     input.Description,
		IdempotencyKey:  input.IdempotencyKey,
		CreatedAt:       e.clock.Now(),
	}
	if err := e.transactions.Create(ctx, txn); err != nil {
		return nil, err
	}

	if err := e.debit(ctx, txn, from); err != nil {
		return nil, err
	}

	if err := e.credit(ctx, txn, to); err != nil {
		return nil, err
	}

	if err := e.transactions.MarkCompleted(ctx, txn.ID); err != nil {
		// Both balances moved; the row update is retried by reconciliation,
		// not by re-running the money movement.
		e.log.Error("transfer completed but row update failed",
			zap.String("transaction_id", txn.ID), zap.Error(err))
	}
	now := e.clock.Now()
	txn.Status = domain.TransactionCompleted
	txn.CompletedAt = &now

	e.emitOutcome(input, txn.ID, "completed", "")

	return txn, nil
}

// GetTransaction looks up a transaction by id.
func (e *TransferEngine) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	txn, err := e.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, apperrors.ErrTransactionNotFound
	}

	return txn, nil
}

// debit removes the amount from the source with a bounded CAS loop. Every
// retry re-reads the balance and re-checks sufficiency, so a concurrent
// withdrawal can still turn the transfer into InsufficientFunds.
func (e *TransferEngine) debit(ctx context.Context, txn *domain.Transaction, from *domain.Account) error {
	current := from
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt > 0 {
			e.clock.Sleep(e.retryBackoff * time.Duration(attempt))
			refreshed, err := e.getAccount(ctx, txn.FromAccountID)
			if err != nil {
				return e.fail(ctx, txn, err)
			}
			current = refreshed
		}

		if current.Balance.LessThan(txn.Amount) {
			return e.fail(ctx, txn, apperrors.ErrInsufficientFunds)
		}

		ok, err := e.accounts.CompareAndSetBalance(ctx, current.ID, current.Balance, current.Balance.Sub(txn.Amount))
		if err != nil {
			return e.fail(ctx, txn, err)
		}
		if ok {
			return nil
		}
	}

	return e.fail(ctx, txn, apperrors.ErrConcurrentModification)
}

// credit adds the amount to the destination. It has no balance precondition,
// so a CAS conflict only means a fresh read and another try. If the budget is
// exhausted the already-applied debit is compensated.
func (e *TransferEngine) credit(ctx context.Context, txn *domain.Transaction, to *domain.Account) error {
	current := to
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt > 0 {
			e.clock.Sleep(e.retryBackoff * time.Duration(attempt))
			refreshed, err := e.getAccount(ctx, txn.ToAccountID)
			if err != nil {
				e.compensateDebit(ctx, txn)
				return e.fail(ctx, txn, err)
			}
			current = refreshed
		}

		ok, err := e.accounts.CompareAndSetBalance(ctx, current.ID, current.Balance, current.Balance.Add(txn.Amount))
		if err != nil {
			e.compensateDebit(ctx, txn)
			return e.fail(ctx, txn, err)
		}
		if ok {
			return nil
		}
	}

	e.compensateDebit(ctx, txn)

	return e.fail(ctx, txn, apperrors.ErrConcurrentModification)
}

// compensateDebit returns the debited amount to the source account so the
// aborted transfer leaves no partial application.
func (e *TransferEngine) compensateDebit(ctx context.Context, txn *domain.Transaction) {
	for attempt := 0; attempt < compensationRetries; attempt++ {
		if attempt > 0 {
			e.clock.Sleep(e.retryBackoff * time.Duration(attempt))
		}

		current, err := e.accounts.Get(ctx, txn.FromAccountID)
		if err != nil || current == nil {
			continue
		}

		ok, err := e.accounts.CompareAndSetBalance(ctx, current.ID, current.Balance, current.Balance.Add(txn.Amount))
		if err == nil && ok {
			return
		}
	}

	// Manual reconciliation territory: the pending row plus this log line
	// identify the stranded debit.
	e.log.Error("debit compensation failed",
		zap.String("transaction_id", txn.ID),
		zap.String("from_account_id", txn.FromAccountID),
		zap.String("amount", txn.Amount.String()))
}

func (e *TransferEngine) getAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := e.accounts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperrors.ErrAccountNotFound
	}

	return account, nil
}

func (e *TransferEngine) fail(ctx context.Context, txn *domain.Transaction, cause error) error {
	if err := e.transactions.MarkFailed(ctx, txn.ID, cause.Error()); err != nil {
		e.log.Error("failed to mark transaction failed",
			zap.String("transaction_id", txn.ID), zap.Error(err))
	}
	txn.Status = domain.TransactionFailed
	txn.FailureReason = cause.Error()

	e.emitOutcome(dto.TransferInput{
		FromAccountID: txn.FromAccountID,
		ToAccountID:   txn.ToAccountID,
		Amount:        txn.Amount,
	}, txn.ID, "failed", cause.Error())

	return cause
}

func (e *TransferEngine) emitOutcome(input dto.TransferInput, txnID, status, reason string) {
	details := map[string]string{
		"from_account_id": input.FromAccountID,
		"to_account_id":   input.ToAccountID,
		"amount":          input.Amount.String(),
	}
	if reason != "" {
		details["reason"] = reason
	}

	e.sink.Emit(audit.Event{
		Actor:      input.ActorID,
		Action:     "transfer." + status,
		Resource:   "transaction",
		ResourceID: txnID,
		Status:     status,
		Details:    details,
	})
}

func newReferenceNumber() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "TXN-" + uuid.NewString()[:12]
	}

	return "TXN-" + hex.EncodeToString(buf)
}
