package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const goalColumns = `
	goal_id,
	user_id,
	category,
	mode,
	limit_amount,
	period_month,
	created_ts`

// UpsertGoalWithClient writes one goal, replacing any earlier goal for the
// same (owner, category, mode, period). Delete and insert run in one script
// transaction.
func UpsertGoalWithClient(ctx context.Context, client *bigquery.Client, row *GoalRow) (string, error) {
	if row.GoalID == "" {
		row.GoalID = uuid.NewString()
	}

	q := client.Query(`
		BEGIN TRANSACTION;

		DELETE FROM ` + tableRef(goalsTable) + `
		WHERE user_id = @user_id
		  AND LOWER(category) = LOWER(@category)
		  AND mode = @mode
		  AND period_month = @period_month;

		INSERT INTO ` + tableRef(goalsTable) + ` (` + goalColumns + `
		)
		VALUES (
			@goal_id, @user_id, @category, @mode,
			@limit_amount, @period_month, @created_ts
		);

		COMMIT TRANSACTION;
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "goal_id", Value: row.GoalID},
		{Name: "user_id", Value: row.UserID},
		{Name: "category", Value: row.Category},
		{Name: "mode", Value: row.Mode},
		{Name: "limit_amount", Value: row.LimitAmount},
		{Name: "period_month", Value: row.PeriodMonth},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	if err := runDML(ctx, q); err != nil {
		return "", fmt.Errorf("UpsertGoalWithClient: %w", err)
	}
	return row.GoalID, nil
}

// ListGoalsWithClient returns the owner's goals for one mode and period.
func ListGoalsWithClient(ctx context.Context, client *bigquery.Client, owner string, mode string, period civil.Date) ([]*GoalRow, error) {
	q := client.Query(`
		SELECT ` + goalColumns + `
		FROM ` + tableRef(goalsTable) + `
		WHERE user_id = @owner
		  AND mode = @mode
		  AND period_month = @period_month
		ORDER BY category
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
		{Name: "mode", Value: mode},
		{Name: "period_month", Value: period},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListGoalsWithClient: query read: %w", err)
	}

	var rows []*GoalRow
	for {
		var r GoalRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListGoalsWithClient: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// DeleteGoalWithClient removes one goal by ID.
func DeleteGoalWithClient(ctx context.Context, client *bigquery.Client, owner, goalID string) error {
	q := client.Query(`
		DELETE FROM ` + tableRef(goalsTable) + `
		WHERE user_id = @owner
		  AND goal_id = @goal_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
		{Name: "goal_id", Value: goalID},
	}

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("DeleteGoalWithClient: %w", err)
	}
	return nil
}
