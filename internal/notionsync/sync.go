package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/equilibra/equilibra/internal/domain"
	"github.com/equilibra/equilibra/internal/logger"
)

// InsightLister is the slice of the repository the sync reads from.
type InsightLister interface {
	ListInsights(ctx context.Context, owner string, onlyUnread bool, limit int) ([]domain.Insight, error)
}

// SyncInsights mirrors one owner's current unread insights into a Notion
// database. The Insight ID property tracks which page belongs to which
// insight:
//  1. Query the owner's pages already in Notion.
//  2. Archive pages whose insight is no longer in the unread batch.
//  3. Create pages for insights that have none yet.
//
// dryRun logs what would happen without touching Notion.
func SyncInsights(ctx context.Context, repo InsightLister, notionClient NotionService, notionDBID, owner string, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Str("owner", owner).
		Bool("dry_run", dryRun).
		Msg("Starting insight sync to Notion")

	insights, err := repo.ListInsights(ctx, owner, true, 10)
	if err != nil {
		return fmt.Errorf("failed to list insights: %w", err)
	}

	current := make(map[string]bool, len(insights))
	for _, in := range insights {
		current[in.ID] = true
	}

	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}

	log.Info().
		Int("insight_count", len(insights)).
		Int("notion_page_count", len(notionPages)).
		Msg("Retrieved current state")

	existing := make(map[string]bool)
	var archived int
	for _, page := range notionPages {
		if extractOwner(page) != owner {
			continue
		}

		id := extractInsightID(page)
		if id != "" && current[id] {
			existing[id] = true
			continue
		}

		// Page without an insight ID, or insight dropped from the batch.
		if dryRun {
			log.Info().
				Str("insight_id", id).
				Str("page_id", string(page.ID)).
				Msg("[DRY RUN] Would archive stale Notion page")
			archived++
			continue
		}
		if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().
				Err(err).
				Str("insight_id", id).
				Str("page_id", string(page.ID)).
				Msg("Failed to archive stale Notion page")
			continue
		}
		archived++
	}

	var created int
	for _, in := range insights {
		if existing[in.ID] {
			continue
		}

		if dryRun {
			log.Info().
				Str("insight_id", in.ID).
				Str("title", in.Title).
				Msg("[DRY RUN] Would create Notion page")
			created++
			continue
		}

		if _, err := notionClient.CreatePage(ctx, notionDBID, InsightToNotionProperties(in)); err != nil {
			return fmt.Errorf("failed to create Notion page for insight %s: %w", in.ID, err)
		}
		created++
	}

	log.Info().
		Str("owner", owner).
		Int("created", created).
		Int("archived", archived).
		Int("unchanged", len(existing)).
		Msg("Insight sync complete")

	return nil
}

func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}

		// Only set StartCursor when we have a cursor value.
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
