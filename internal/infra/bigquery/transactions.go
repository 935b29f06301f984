package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/equilibra/equilibra/internal/domain"
)

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	UserID    string `bigquery:"user_id"`    // REQUIRED
	AccountID string `bigquery:"account_id"` // REQUIRED

	Amount    *big.Rat `bigquery:"amount"`    // REQUIRED NUMERIC, always positive
	Direction string   `bigquery:"direction"` // REQUIRED, entrada|saida
	Category  string   `bigquery:"category"`  // REQUIRED

	Description bigquery.NullString `bigquery:"description"` // NULLABLE

	Mode string `bigquery:"mode"` // REQUIRED, trabalho|pessoal

	OccurredAt time.Time  `bigquery:"occurred_at"` // REQUIRED TIMESTAMP
	OccurredOn civil.Date `bigquery:"occurred_on"` // REQUIRED DATE (partition column)

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

func transactionRowFromDomain(t domain.Transaction) *TransactionRow {
	row := &TransactionRow{
		TransactionID: t.ID,
		UserID:        t.Owner,
		AccountID:     t.AccountID,
		Amount:        ratFromDecimal(t.Amount),
		Direction:     string(t.Direction),
		Category:      t.Category,
		Mode:          string(t.Mode),
		OccurredAt:    t.OccurredAt,
		OccurredOn:    civil.DateOf(t.OccurredAt),
		CreatedTS:     time.Now().UTC(),
	}
	if t.Description != "" {
		row.Description = bigquery.NullString{StringVal: t.Description, Valid: true}
	}
	return row
}

func (r *TransactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:          r.TransactionID,
		Owner:       r.UserID,
		AccountID:   r.AccountID,
		Amount:      decimalFromRat(r.Amount),
		Direction:   domain.Direction(r.Direction),
		Category:    r.Category,
		Description: r.Description.StringVal,
		Mode:        domain.Mode(r.Mode),
		OccurredAt:  r.OccurredAt,
	}
}
