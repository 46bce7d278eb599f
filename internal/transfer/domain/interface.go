package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// AccountStore is the balance boundary. Get returns (nil, nil) for unknown
// accounts; CompareAndSetBalance returns false when the expected balance lost
// a race to a concurrent write.
type AccountStore interface {
	Get(ctx context.Context, id string) (*Account, error)
	CompareAndSetBalance(ctx context.Context, id string, expected, updated decimal.Decimal) (bool, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *Transaction) error
	GetByID(ctx context.Context, id string) (*Transaction, error)
	// GetByIdempotencyKey returns (nil, nil) when the key is unseen.
	GetByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, reason string) error
}
