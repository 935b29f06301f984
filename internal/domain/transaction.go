package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mode partitions an owner's transactions into work and personal contexts.
// Every read the analysis engine performs is filtered by owner+mode.
type Mode string

const (
	ModeWork     Mode = "trabalho"
	ModePersonal Mode = "pessoal"
)

// Direction of a transaction relative to the account.
type Direction string

const (
	DirectionIn  Direction = "entrada"
	DirectionOut Direction = "saida"
)

// Transaction is one ledger entry. Amounts are always positive; the
// direction carries the sign. The engine only ever reads transactions.
type Transaction struct {
	ID          string
	Owner       string
	AccountID   string
	Amount      decimal.Decimal
	Direction   Direction
	Category    string
	Description string
	Mode        Mode
	OccurredAt  time.Time
}

// IsOutflow reports whether the transaction takes money out of the account.
func (t Transaction) IsOutflow() bool { return t.Direction == DirectionOut }

// Account holds a point-in-time balance. The balance is adjusted when a
// transaction is recorded; the analysis engine treats it as read-only input.
type Account struct {
	ID      string
	Owner   string
	Label   string
	Kind    string
	Balance decimal.Decimal
}
