package bigquery

import (
	"context"
	"fmt"
	"math/big"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
)

var (
	projectID = "equilibra-prod"
	datasetID = "equilibra"
)

const (
	transactionsTable = "transactions"
	accountsTable     = "accounts"
	insightsTable     = "insights"
	goalsTable        = "goals"
	offersTable       = "offers"
)

// Configure overrides the default project and dataset. Call once at startup,
// before any repository is built.
func Configure(project, dataset string) {
	if project != "" {
		projectID = project
	}
	if dataset != "" {
		datasetID = dataset
	}
}

func tableRef(table string) string {
	return "`" + projectID + "." + datasetID + "." + table + "`"
}

// ratFromDecimal converts a decimal amount to the NUMERIC wire type.
func ratFromDecimal(d decimal.Decimal) *big.Rat {
	return d.Rat()
}

// decimalFromRat converts a NUMERIC value back to a two-place decimal.
// nil maps to zero.
func decimalFromRat(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigRat(r, 2)
}

// runDML runs a statement (or multi-statement script) and waits for it.
func runDML(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
