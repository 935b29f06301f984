package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/equilibra/equilibra/internal/domain"
)

type AccountRow struct {
	AccountID string `bigquery:"account_id"` // REQUIRED

	UserID string `bigquery:"user_id"` // REQUIRED

	Label string `bigquery:"label"` // REQUIRED
	Kind  string `bigquery:"kind"`  // REQUIRED, e.g. corrente|poupanca

	Balance *big.Rat `bigquery:"balance"` // REQUIRED NUMERIC

	IsPrimary bool `bigquery:"is_primary"`

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

func accountRowFromDomain(a domain.Account, primary bool) *AccountRow {
	return &AccountRow{
		AccountID: a.ID,
		UserID:    a.Owner,
		Label:     a.Label,
		Kind:      a.Kind,
		Balance:   ratFromDecimal(a.Balance),
		IsPrimary: primary,
		CreatedTS: time.Now().UTC(),
	}
}

func (r *AccountRow) toDomain() domain.Account {
	return domain.Account{
		ID:      r.AccountID,
		Owner:   r.UserID,
		Label:   r.Label,
		Kind:    r.Kind,
		Balance: decimalFromRat(r.Balance),
	}
}
