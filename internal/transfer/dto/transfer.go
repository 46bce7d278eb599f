package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransferInput struct {
	FromAccountID  string          `json:"from_account_id"`
	ToAccountID    string          `json:"to_account_id"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	IdempotencyKey string          `json:"-"`
	ActorID        string          `json:"-"`
}

type TransactionOutput struct {
	ID              string     `json:"id"`
	FromAccountID   string     `json:"from_account_id"`
	ToAccountID     string     `json:"to_account_id"`
	Amount          string     `json:"amount"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	ReferenceNumber string     `json:"reference_number"`
	Description     string     `json:"description,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	FailureReason   string     `json:"failure_reason,omitempty"`
}
