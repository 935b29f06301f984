package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/equilibra/equilibra/internal/domain"
)

const monthFormat = "2006-01"

const transactionColumns = `
	transaction_id,
	user_id,
	account_id,
	amount,
	direction,
	category,
	description,
	mode,
	occurred_at,
	occurred_on,
	created_ts`

// RecordTransaction inserts one transaction and adjusts the account balance
// in the same script, so a reader never sees one without the other.
func RecordTransaction(ctx context.Context, row *TransactionRow) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("RecordTransaction: bigquery client: %w", err)
	}
	defer client.Close()

	return RecordTransactionWithClient(ctx, client, row)
}

// RecordTransactionWithClient inserts a transaction and applies its signed
// amount to the account balance using the provided BigQuery client.
func RecordTransactionWithClient(ctx context.Context, client *bigquery.Client, row *TransactionRow) error {
	delta := new(big.Rat).Set(row.Amount)
	if row.Direction == string(domain.DirectionOut) {
		delta.Neg(delta)
	}

	q := client.Query(`
		BEGIN TRANSACTION;

		INSERT INTO ` + tableRef(transactionsTable) + ` (` + transactionColumns + `
		)
		VALUES (
			@transaction_id, @user_id, @account_id,
			@amount, @direction, @category, @description,
			@mode, @occurred_at, @occurred_on, @created_ts
		);

		UPDATE ` + tableRef(accountsTable) + `
		SET balance = balance + @delta,
		    updated_ts = CURRENT_TIMESTAMP()
		WHERE account_id = @account_id
		  AND user_id = @user_id;

		COMMIT TRANSACTION;
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: row.TransactionID},
		{Name: "user_id", Value: row.UserID},
		{Name: "account_id", Value: row.AccountID},
		{Name: "amount", Value: row.Amount},
		{Name: "direction", Value: row.Direction},
		{Name: "category", Value: row.Category},
		{Name: "description", Value: row.Description},
		{Name: "mode", Value: row.Mode},
		{Name: "occurred_at", Value: row.OccurredAt},
		{Name: "occurred_on", Value: row.OccurredOn},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "delta", Value: delta},
	}

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("RecordTransactionWithClient: %w", err)
	}
	return nil
}

// InsertTransactions streams a batch of rows without touching balances.
// Used by the seeder, which sets the balance explicitly afterwards.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}

	table := client.DatasetInProject(projectID, datasetID).Table(transactionsTable)
	if err := table.Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactionsWithClient: inserting rows: %w", err)
	}
	return nil
}

// QueryTransactionsInRange returns one owner's transactions for a mode
// within [start, end], ordered by occurrence time ascending.
func QueryTransactionsInRange(ctx context.Context, owner string, mode string, start, end time.Time) ([]*TransactionRow, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsInRange: bigquery client: %w", err)
	}
	defer client.Close()

	return QueryTransactionsInRangeWithClient(ctx, client, owner, mode, start, end)
}

// QueryTransactionsInRangeWithClient queries transactions using the provided
// BigQuery client.
func QueryTransactionsInRangeWithClient(ctx context.Context, client *bigquery.Client, owner string, mode string, start, end time.Time) ([]*TransactionRow, error) {
	q := client.Query(`
		SELECT ` + transactionColumns + `
		FROM ` + tableRef(transactionsTable) + `
		WHERE user_id = @owner
		  AND mode = @mode
		  AND occurred_at >= @start
		  AND occurred_at <= @end
		ORDER BY occurred_at, created_ts
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
		{Name: "mode", Value: mode},
		{Name: "start", Value: start},
		{Name: "end", Value: end},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsInRangeWithClient: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsInRangeWithClient: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// ListRecentTransactionsWithClient returns the owner's newest transactions
// for a mode, newest first.
func ListRecentTransactionsWithClient(ctx context.Context, client *bigquery.Client, owner string, mode string, limit int) ([]*TransactionRow, error) {
	q := client.Query(`
		SELECT ` + transactionColumns + `
		FROM ` + tableRef(transactionsTable) + `
		WHERE user_id = @owner
		  AND mode = @mode
		ORDER BY occurred_at DESC, created_ts DESC
		LIMIT @limit
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
		{Name: "mode", Value: mode},
		{Name: "limit", Value: int64(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRecentTransactionsWithClient: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRecentTransactionsWithClient: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

type monthlyTotalRow struct {
	Month string   `bigquery:"month"`
	Total *big.Rat `bigquery:"total"`
}

// MonthlyOutflowTotalsWithClient returns one outflow total per trailing
// calendar month ending at now's month, oldest first. Months without
// transactions come back as zero.
func MonthlyOutflowTotalsWithClient(ctx context.Context, client *bigquery.Client, owner string, mode string, months int, now time.Time) ([]*big.Rat, error) {
	firstMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	q := client.Query(`
		SELECT
			FORMAT_TIMESTAMP('%Y-%m', occurred_at) AS month,
			SUM(amount) AS total
		FROM ` + tableRef(transactionsTable) + `
		WHERE user_id = @owner
		  AND mode = @mode
		  AND direction = 'saida'
		  AND occurred_at >= @first_month
		GROUP BY month
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
		{Name: "mode", Value: mode},
		{Name: "first_month", Value: firstMonth},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("MonthlyOutflowTotalsWithClient: query read: %w", err)
	}

	byMonth := make(map[string]*big.Rat)
	for {
		var r monthlyTotalRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("MonthlyOutflowTotalsWithClient: iter next: %w", err)
		}
		byMonth[r.Month] = r.Total
	}

	totals := make([]*big.Rat, 0, months)
	for i := 0; i < months; i++ {
		key := firstMonth.AddDate(0, i, 0).Format(monthFormat)
		if total, ok := byMonth[key]; ok && total != nil {
			totals = append(totals, total)
		} else {
			totals = append(totals, new(big.Rat))
		}
	}

	return totals, nil
}

// CategoryOutflowForMonthWithClient sums one category's outflow for the
// calendar month containing monthStart.
func CategoryOutflowForMonthWithClient(ctx context.Context, client *bigquery.Client, owner string, mode string, category string, monthStart time.Time) (*big.Rat, error) {
	nextMonth := time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	q := client.Query(`
		SELECT
			'total' AS month,
			IFNULL(SUM(amount), 0) AS total
		FROM ` + tableRef(transactionsTable) + `
		WHERE user_id = @owner
		  AND mode = @mode
		  AND direction = 'saida'
		  AND LOWER(category) = LOWER(@category)
		  AND occurred_at >= @month_start
		  AND occurred_at < @next_month
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
		{Name: "mode", Value: mode},
		{Name: "category", Value: category},
		{Name: "month_start", Value: time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)},
		{Name: "next_month", Value: nextMonth},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("CategoryOutflowForMonthWithClient: query read: %w", err)
	}

	var r monthlyTotalRow
	if err := it.Next(&r); err != nil && err != iterator.Done {
		return nil, fmt.Errorf("CategoryOutflowForMonthWithClient: iter next: %w", err)
	}
	if r.Total == nil {
		return new(big.Rat), nil
	}
	return r.Total, nil
}
