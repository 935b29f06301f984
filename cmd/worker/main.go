package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/equilibra/equilibra/internal/config"
	"github.com/equilibra/equilibra/internal/domain"
	infraBQ "github.com/equilibra/equilibra/internal/infra/bigquery"
	"github.com/equilibra/equilibra/internal/insights"
	"github.com/equilibra/equilibra/internal/logger"
	"github.com/equilibra/equilibra/internal/notify"
	"github.com/equilibra/equilibra/internal/offers"
)

// The worker re-runs the pattern analysis and the offer refresh for a fixed
// set of owners on a schedule, independent of the API process.
func main() {
	var (
		ownersFlag = flag.String("owners", os.Getenv("EQUILIBRA_OWNERS"), "comma-separated owner IDs to analyze")
		interval   = flag.Duration("interval", time.Hour, "time between analysis runs")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}

	log := logger.NewWithLevel(cfg.Log.Level)

	owners := splitOwners(*ownersFlag)
	if len(owners) == 0 {
		log.Fatal().Msg("No owners configured, set -owners or EQUILIBRA_OWNERS")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	infraBQ.Configure(cfg.BigQuery.Project, cfg.BigQuery.Dataset)
	repo, err := infraBQ.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	defer repo.Close()

	var notifier insights.Notifier
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Telegram notifier")
		}
		notifier = tg
	}

	engine := insights.NewService(repo, repo, insights.RuleGenerator{}, notifier, log)
	offerService := offers.NewService(repo, log)

	runAll := func() {
		for _, owner := range owners {
			for _, mode := range []domain.Mode{domain.ModeWork, domain.ModePersonal} {
				count, err := engine.Run(ctx, owner, mode)
				if err != nil {
					log.Error().Err(err).Str("owner", owner).Str("mode", string(mode)).Msg("Analysis run failed")
					continue
				}
				log.Info().Str("owner", owner).Str("mode", string(mode)).Int("insights", count).Msg("Analysis run completed")
			}

			if _, err := offerService.Refresh(ctx, owner); err != nil {
				log.Error().Err(err).Str("owner", owner).Msg("Offer refresh failed")
			}
		}
	}

	log.Info().Int("owners", len(owners)).Dur("interval", *interval).Msg("Starting analysis worker")
	runAll()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runAll()
		case <-quit:
			log.Info().Msg("Worker exited")
			return
		}
	}
}

func splitOwners(s string) []string {
	var owners []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			owners = append(owners, trimmed)
		}
	}
	return owners
}
