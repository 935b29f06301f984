package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/equilibra/equilibra/internal/api/middleware"
	"github.com/equilibra/equilibra/internal/domain"
	"github.com/equilibra/equilibra/internal/jobs"
)

// InsightStore is the repository surface the insight handlers use.
type InsightStore interface {
	ListInsights(ctx context.Context, owner string, onlyUnread bool, limit int) ([]domain.Insight, error)
	MarkInsightRead(ctx context.Context, owner, insightID string) error
}

// InsightsHandler handles insight endpoints.
type InsightsHandler struct {
	store     InsightStore
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(store InsightStore, publisher jobs.Publisher, log zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{
		store:     store,
		publisher: publisher,
		log:       log,
	}
}

// Generate handles POST /api/insights/generate. The analysis runs
// asynchronously; poll /api/jobs/{id} for the outcome.
func (h *InsightsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := middleware.Owner(ctx)

	var req struct {
		Mode     string `json:"mode"`
		Strategy string `json:"strategy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	mode := domain.Mode(req.Mode)
	if mode != domain.ModeWork && mode != domain.ModePersonal {
		middleware.WriteError(w, http.StatusBadRequest, "Mode must be trabalho or pessoal")
		return
	}

	switch req.Strategy {
	case "", jobs.StrategyRules, jobs.StrategyLLM:
	default:
		middleware.WriteError(w, http.StatusBadRequest, "Strategy must be rules or llm")
		return
	}

	job := &jobs.AnalyzeOwnerJob{
		Owner:    owner,
		Mode:     mode,
		Strategy: req.Strategy,
	}

	if err := h.publisher.PublishAnalyzeOwner(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue analysis job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue analysis job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("owner", owner).Msg("Analysis job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// List handles GET /api/insights
func (h *InsightsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := middleware.Owner(ctx)

	query := r.URL.Query()
	onlyUnread := query.Get("unread") == "true"

	limit := 50
	if limitStr := query.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	list, err := h.store.ListInsights(ctx, owner, onlyUnread, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list insights")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list insights")
		return
	}

	if list == nil {
		list = []domain.Insight{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"insights": list,
		"count":    len(list),
	})
}

// MarkRead handles POST /api/insights/{id}/read
func (h *InsightsHandler) MarkRead(w http.ResponseWriter, r *http.Request, insightID string) {
	ctx := r.Context()
	owner := middleware.Owner(ctx)

	if err := h.store.MarkInsightRead(ctx, owner, insightID); err != nil {
		h.log.Error().Err(err).Str("insight_id", insightID).Msg("Failed to mark insight read")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to mark insight read")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"insight_id": insightID,
		"status":     "read",
	})
}

// JobsHandler handles job-status endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		Owner:  middleware.Owner(ctx),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
