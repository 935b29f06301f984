package bigquery

import (
	"context"
	"fmt"
	"math/big"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const accountColumns = `
	account_id,
	user_id,
	label,
	kind,
	balance,
	is_primary,
	created_ts,
	updated_ts`

// PrimaryAccount returns the owner's principal account, or nil when the
// owner has none.
func PrimaryAccount(ctx context.Context, owner string) (*AccountRow, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("PrimaryAccount: bigquery client: %w", err)
	}
	defer client.Close()

	return PrimaryAccountWithClient(ctx, client, owner)
}

// PrimaryAccountWithClient returns the owner's principal account using the
// provided BigQuery client. The oldest account wins when none is flagged.
func PrimaryAccountWithClient(ctx context.Context, client *bigquery.Client, owner string) (*AccountRow, error) {
	q := client.Query(`
		SELECT ` + accountColumns + `
		FROM ` + tableRef(accountsTable) + `
		WHERE user_id = @owner
		ORDER BY is_primary DESC, created_ts ASC
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("PrimaryAccountWithClient: query read: %w", err)
	}

	var row AccountRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("PrimaryAccountWithClient: iter next: %w", err)
	}

	return &row, nil
}

// ListAccountsWithClient returns every account the owner holds.
func ListAccountsWithClient(ctx context.Context, client *bigquery.Client, owner string) ([]*AccountRow, error) {
	q := client.Query(`
		SELECT ` + accountColumns + `
		FROM ` + tableRef(accountsTable) + `
		WHERE user_id = @owner
		ORDER BY created_ts ASC
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccountsWithClient: query read: %w", err)
	}

	var accounts []*AccountRow
	for {
		var row AccountRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAccountsWithClient: iter next: %w", err)
		}
		accounts = append(accounts, &row)
	}

	return accounts, nil
}

// InsertAccountWithClient creates one account row. A generated ID is filled
// in when the row carries none.
func InsertAccountWithClient(ctx context.Context, client *bigquery.Client, row *AccountRow) (string, error) {
	if row.AccountID == "" {
		row.AccountID = uuid.NewString()
	}

	q := client.Query(`
		INSERT INTO ` + tableRef(accountsTable) + ` (` + accountColumns + `
		)
		VALUES (
			@account_id, @user_id, @label, @kind,
			@balance, @is_primary, @created_ts, @updated_ts
		)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: row.AccountID},
		{Name: "user_id", Value: row.UserID},
		{Name: "label", Value: row.Label},
		{Name: "kind", Value: row.Kind},
		{Name: "balance", Value: row.Balance},
		{Name: "is_primary", Value: row.IsPrimary},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "updated_ts", Value: row.UpdatedTS},
	}

	if err := runDML(ctx, q); err != nil {
		return "", fmt.Errorf("InsertAccountWithClient: %w", err)
	}
	return row.AccountID, nil
}

// SetAccountBalanceWithClient overwrites one account's balance. The seeder
// uses this after loading a sample ledger.
func SetAccountBalanceWithClient(ctx context.Context, client *bigquery.Client, owner, accountID string, balance *big.Rat) error {
	q := client.Query(`
		UPDATE ` + tableRef(accountsTable) + `
		SET balance = @balance,
		    updated_ts = CURRENT_TIMESTAMP()
		WHERE account_id = @account_id
		  AND user_id = @owner
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "balance", Value: balance},
		{Name: "account_id", Value: accountID},
		{Name: "owner", Value: owner},
	}

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("SetAccountBalanceWithClient: %w", err)
	}
	return nil
}
