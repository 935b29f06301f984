package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/equilibra/equilibra/internal/api/handlers"
	"github.com/equilibra/equilibra/internal/api/middleware"
	"github.com/equilibra/equilibra/internal/assistant"
	"github.com/equilibra/equilibra/internal/config"
	"github.com/equilibra/equilibra/internal/export"
	infraBQ "github.com/equilibra/equilibra/internal/infra/bigquery"
	"github.com/equilibra/equilibra/internal/insights"
	"github.com/equilibra/equilibra/internal/jobs"
	"github.com/equilibra/equilibra/internal/jobs/inmemory"
	"github.com/equilibra/equilibra/internal/logger"
	"github.com/equilibra/equilibra/internal/notify"
	"github.com/equilibra/equilibra/internal/offers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.Log.Level)

	ctx := context.Background()

	infraBQ.Configure(cfg.BigQuery.Project, cfg.BigQuery.Dataset)
	repo, err := infraBQ.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	defer repo.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Jobs.BufferSize, cfg.Jobs.Workers, jobStore)

	// Urgent findings go to Telegram when a bot token is configured.
	var notifier insights.Notifier
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Telegram notifier")
		}
		notifier = tg
	} else {
		log.Warn().Msg("No Telegram token configured - urgent alerts will not be pushed")
	}

	// One engine per strategy. The LLM engine exists only when Gemini
	// credentials are available; jobs asking for it fall back to rules.
	ruleEngine := insights.NewService(repo, repo, insights.RuleGenerator{}, notifier, log)

	var llmEngine *insights.Service
	if cfg.Gemini.APIKey != "" {
		os.Setenv("GEMINI_API_KEY", cfg.Gemini.APIKey)
	}
	if os.Getenv("GEMINI_API_KEY") != "" || os.Getenv("GOOGLE_API_KEY") != "" {
		gen, err := insights.NewGeminiGenerator(ctx, cfg.Gemini.Model)
		if err != nil {
			log.Warn().Err(err).Msg("Gemini generator unavailable, llm jobs will use rules")
		} else {
			llmEngine = insights.NewService(repo, repo, gen, notifier, log)
		}
	}

	// Start worker in background to process analysis jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		analyzeJob, ok := job.(*jobs.AnalyzeOwnerJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", analyzeJob.JobID).
			Str("owner", analyzeJob.Owner).
			Str("mode", string(analyzeJob.Mode)).
			Str("strategy", analyzeJob.Strategy).
			Msg("Processing analysis job")

		engine := ruleEngine
		if analyzeJob.Strategy == jobs.StrategyLLM && llmEngine != nil {
			engine = llmEngine
		}

		count, err := engine.Run(ctx, analyzeJob.Owner, analyzeJob.Mode)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", analyzeJob.JobID).
				Str("owner", analyzeJob.Owner).
				Msg("Analysis run failed")
			return err
		}
		analyzeJob.InsightCount = count

		log.Info().
			Str("job_id", analyzeJob.JobID).
			Str("owner", analyzeJob.Owner).
			Int("insights", count).
			Msg("Analysis run completed")

		return nil
	}

	go func() {
		log.Info().Msg("Starting analysis worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Analysis worker stopped with error")
		}
	}()

	// Conversational assistant is optional like the LLM engine.
	var chatAssistant *assistant.Assistant
	if os.Getenv("GEMINI_API_KEY") != "" || os.Getenv("GOOGLE_API_KEY") != "" {
		chatAssistant, err = assistant.New(ctx, cfg.Gemini.Model)
		if err != nil {
			log.Warn().Err(err).Msg("Assistant unavailable")
		}
	}

	offerService := offers.NewService(repo, log)
	reportService := export.NewService(repo, cfg.GCS.Bucket, log)
	if cfg.GCS.Bucket == "" {
		log.Warn().Msg("No GCS bucket configured - report uploads will be disabled")
	}

	// Initialize handlers
	transactionsHandler := handlers.NewTransactionsHandler(repo, log)
	dashboardHandler := handlers.NewDashboardHandler(repo, log)
	insightsHandler := handlers.NewInsightsHandler(repo, jobQueue, log)
	goalsHandler := handlers.NewGoalsHandler(repo, log)
	offersHandler := handlers.NewOffersHandler(offerService, log)
	assistantHandler := handlers.NewAssistantHandler(chatAssistant, log)
	reportsHandler := handlers.NewReportsHandler(reportService, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.ListTransactions(w, r)
		case http.MethodPost:
			transactionsHandler.CreateTransaction(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			dashboardHandler.Summary(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/insights", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			insightsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/insights/generate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			insightsHandler.Generate(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/insights/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/insights/")
		insightID, ok := strings.CutSuffix(rest, "/read")
		if !ok || insightID == "" {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		if r.Method == http.MethodPost {
			insightsHandler.MarkRead(w, r, insightID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/goals", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			goalsHandler.List(w, r)
		case http.MethodPost:
			goalsHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/goals/", func(w http.ResponseWriter, r *http.Request) {
		goalID := strings.TrimPrefix(r.URL.Path, "/api/goals/")
		if goalID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Goal ID is required")
			return
		}
		if r.Method == http.MethodDelete {
			goalsHandler.Delete(w, r, goalID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/offers", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			offersHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/offers/refresh", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			offersHandler.Refresh(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/offers/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/offers/")
		offerID, ok := strings.CutSuffix(rest, "/dismiss")
		if !ok || offerID == "" {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		if r.Method == http.MethodPost {
			offersHandler.Dismiss(w, r, offerID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			assistantHandler.Chat(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reports", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			reportsHandler.Generate(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Apply middleware to the API; the health check stays outside Auth.
	api := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(mux),
				),
			),
		),
	)

	root := http.NewServeMux()
	root.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	root.Handle("/api/", api)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
