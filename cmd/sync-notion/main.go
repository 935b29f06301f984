package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/equilibra/equilibra/internal/config"
	infraBQ "github.com/equilibra/equilibra/internal/infra/bigquery"
	"github.com/equilibra/equilibra/internal/logger"
	"github.com/equilibra/equilibra/internal/notionsync"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	owner := flag.String("user", "", "Owner ID whose insights get mirrored (required)")
	notionToken := flag.String("notion-token", "", "Notion API token (overrides config)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (overrides config)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *notionToken == "" {
		*notionToken = cfg.Notion.Token
	}
	if *notionDBID == "" {
		*notionDBID = cfg.Notion.DatabaseID
	}

	// Validate required flags
	if *owner == "" {
		log.Fatal().Msg("Error: -user is required")
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: -notion-token or notion.token config is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: -notion-db-id or notion.database_id config is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("owner", *owner).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	infraBQ.Configure(cfg.BigQuery.Project, cfg.BigQuery.Dataset)
	repo, err := infraBQ.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery repository")
	}
	defer repo.Close()

	// Initialize Notion client
	notionClient := notionsync.NewNotionClient(*notionToken)

	// Mirror unread insights
	if err := notionsync.SyncInsights(ctx, repo, notionClient, *notionDBID, *owner, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Println("Sync completed successfully.")
}
