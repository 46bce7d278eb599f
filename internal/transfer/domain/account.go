package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountActive AccountStatus = "active"
	AccountFrozen AccountStatus = "frozen"
	AccountClosed AccountStatus = "closed"
)

// Account balances are mutated only through compare-and-set; the engine never
// writes a balance it did not read first.
type Account struct {
	ID        string
	UserID    string
	Balance   decimal.Decimal
	Currency  string
	Status    AccountStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
