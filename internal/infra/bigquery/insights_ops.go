package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const insightColumns = `
	insight_id,
	user_id,
	title,
	message,
	kind,
	source,
	priority,
	generated_at,
	read`

// ReplaceUnreadInsights swaps the owner's unread insights for a new batch.
func ReplaceUnreadInsights(ctx context.Context, owner string, rows []InsightRow) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("ReplaceUnreadInsights: bigquery client: %w", err)
	}
	defer client.Close()

	return ReplaceUnreadInsightsWithClient(ctx, client, owner, rows)
}

// ReplaceUnreadInsightsWithClient deletes the owner's unread insights and
// inserts the new batch inside one script transaction, so a concurrent
// reader sees either the old batch or the new one, never a gap. Read
// insights are left alone as history.
func ReplaceUnreadInsightsWithClient(ctx context.Context, client *bigquery.Client, owner string, rows []InsightRow) error {
	q := client.Query(`
		BEGIN TRANSACTION;

		DELETE FROM ` + tableRef(insightsTable) + `
		WHERE user_id = @owner
		  AND read = FALSE;

		INSERT INTO ` + tableRef(insightsTable) + ` (` + insightColumns + `
		)
		SELECT
			r.insight_id,
			r.user_id,
			r.title,
			r.message,
			r.kind,
			r.source,
			r.priority,
			r.generated_at,
			r.read
		FROM UNNEST(@rows) AS r;

		COMMIT TRANSACTION;
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
		{Name: "rows", Value: rows},
	}

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("ReplaceUnreadInsightsWithClient: %w", err)
	}
	return nil
}

// ListInsightsWithClient returns the owner's insights, most urgent first and
// newest within a priority. onlyUnread narrows to the current batch.
func ListInsightsWithClient(ctx context.Context, client *bigquery.Client, owner string, onlyUnread bool, limit int) ([]*InsightRow, error) {
	query := `
		SELECT ` + insightColumns + `
		FROM ` + tableRef(insightsTable) + `
		WHERE user_id = @owner`
	if onlyUnread {
		query += `
		  AND read = FALSE`
	}
	query += `
		ORDER BY priority ASC, generated_at DESC
		LIMIT @limit
	`

	q := client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
		{Name: "limit", Value: int64(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListInsightsWithClient: query read: %w", err)
	}

	var rows []*InsightRow
	for {
		var r InsightRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListInsightsWithClient: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// MarkInsightReadWithClient flags one insight as read.
func MarkInsightReadWithClient(ctx context.Context, client *bigquery.Client, owner, insightID string) error {
	q := client.Query(`
		UPDATE ` + tableRef(insightsTable) + `
		SET read = TRUE
		WHERE user_id = @owner
		  AND insight_id = @insight_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
		{Name: "insight_id", Value: insightID},
	}

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("MarkInsightReadWithClient: %w", err)
	}
	return nil
}
