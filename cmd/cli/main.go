package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/equilibra/equilibra/internal/config"
	"github.com/equilibra/equilibra/internal/domain"
	"github.com/equilibra/equilibra/internal/export"
	infraBQ "github.com/equilibra/equilibra/internal/infra/bigquery"
	"github.com/equilibra/equilibra/internal/insights"
	"github.com/equilibra/equilibra/internal/logger"
	"github.com/equilibra/equilibra/internal/offers"
	"github.com/equilibra/equilibra/internal/seed"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "seed":
		runSeed(log)
	case "analyze":
		runAnalyze(log)
	case "offers":
		runOffers(log)
	case "report":
		runReport(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Équilibra CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  seed      Load the example dataset for a user")
	fmt.Println("  analyze   Run the pattern analysis for a user")
	fmt.Println("  offers    Refresh personalized offers for a user")
	fmt.Println("  report    Build a monthly report, optionally uploading it")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func openRepository(ctx context.Context, log zerolog.Logger) *infraBQ.Repository {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	infraBQ.Configure(cfg.BigQuery.Project, cfg.BigQuery.Dataset)

	repo, err := infraBQ.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	return repo
}

func runSeed(log zerolog.Logger) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	owner := fs.String("user", "", "owner ID to seed")
	fs.Parse(os.Args[2:])

	if *owner == "" {
		log.Fatal().Msg("Error: -user is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo := openRepository(ctx, log)
	defer repo.Close()

	n, err := seed.Apply(ctx, repo, *owner, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}

	fmt.Printf("Seeded %d transactions for %s.\n", n, *owner)
}

func runAnalyze(log zerolog.Logger) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	owner := fs.String("user", "", "owner ID to analyze")
	modeFlag := fs.String("mode", string(domain.ModePersonal), "trabalho or pessoal")
	useLLM := fs.Bool("llm", false, "use the Gemini generator instead of rules")
	fs.Parse(os.Args[2:])

	if *owner == "" {
		log.Fatal().Msg("Error: -user is required")
	}
	mode := domain.Mode(*modeFlag)
	if mode != domain.ModeWork && mode != domain.ModePersonal {
		log.Fatal().Msg("Error: -mode must be trabalho or pessoal")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo := openRepository(ctx, log)
	defer repo.Close()

	var gen insights.Generator = insights.RuleGenerator{}
	if *useLLM {
		cfg, err := config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load config")
		}
		if cfg.Gemini.APIKey != "" {
			os.Setenv("GEMINI_API_KEY", cfg.Gemini.APIKey)
		}
		llm, err := insights.NewGeminiGenerator(ctx, cfg.Gemini.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini generator")
		}
		gen = llm
	}

	engine := insights.NewService(repo, repo, gen, nil, log)
	count, err := engine.Run(ctx, *owner, mode)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	fmt.Printf("Wrote %d insights for %s (%s).\n", count, *owner, mode)

	list, err := repo.ListInsights(ctx, *owner, true, count)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list insights")
	}
	for i, in := range list {
		fmt.Printf("\n%d. [%s/p%d] %s\n   %s\n", i+1, in.Kind, in.Priority, in.Title, in.Message)
	}
}

func runOffers(log zerolog.Logger) {
	fs := flag.NewFlagSet("offers", flag.ExitOnError)
	owner := fs.String("user", "", "owner ID to refresh offers for")
	fs.Parse(os.Args[2:])

	if *owner == "" {
		log.Fatal().Msg("Error: -user is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo := openRepository(ctx, log)
	defer repo.Close()

	active, err := offers.NewService(repo, log).Refresh(ctx, *owner)
	if err != nil {
		log.Fatal().Err(err).Msg("Offer refresh failed")
	}

	fmt.Printf("%d active offers for %s:\n", len(active), *owner)
	for _, o := range active {
		fmt.Printf("\n[%s] %s\n%s\nVálida até %s\n", o.Kind, o.Title, o.Description, o.ValidUntil.Format("2006-01-02"))
	}
}

func runReport(log zerolog.Logger) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	owner := fs.String("user", "", "owner ID to report on")
	modeFlag := fs.String("mode", string(domain.ModePersonal), "trabalho or pessoal")
	monthFlag := fs.String("month", "", "month to report on (YYYY-MM, default current)")
	upload := fs.Bool("upload", false, "upload the report to Cloud Storage")
	fs.Parse(os.Args[2:])

	if *owner == "" {
		log.Fatal().Msg("Error: -user is required")
	}
	mode := domain.Mode(*modeFlag)
	if mode != domain.ModeWork && mode != domain.ModePersonal {
		log.Fatal().Msg("Error: -mode must be trabalho or pessoal")
	}

	month := time.Now().UTC()
	if *monthFlag != "" {
		parsed, err := time.Parse("2006-01", *monthFlag)
		if err != nil {
			log.Fatal().Msg("Error: -month must be YYYY-MM")
		}
		month = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	infraBQ.Configure(cfg.BigQuery.Project, cfg.BigQuery.Dataset)

	repo, err := infraBQ.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	defer repo.Close()

	service := export.NewService(repo, cfg.GCS.Bucket, log)
	report, err := service.Build(ctx, *owner, mode, month)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build report")
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode report")
	}
	fmt.Println(string(out))

	if *upload {
		object, err := service.Upload(ctx, report)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to upload report")
		}
		fmt.Printf("\nUploaded to gs://%s/%s\n", cfg.GCS.Bucket, object)
	}
}
