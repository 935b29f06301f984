package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/equilibra/equilibra/internal/api/middleware"
	"github.com/equilibra/equilibra/internal/domain"
	"github.com/equilibra/equilibra/internal/offers"
)

// GoalStore is the repository surface the goal handlers use.
type GoalStore interface {
	UpsertGoal(ctx context.Context, g domain.Goal) (string, error)
	ListGoals(ctx context.Context, owner string, mode domain.Mode, period time.Time) ([]domain.Goal, error)
	DeleteGoal(ctx context.Context, owner, goalID string) error
	CategoryOutflowForMonth(ctx context.Context, owner string, mode domain.Mode, category string, month time.Time) (decimal.Decimal, error)
}

// GoalsHandler handles spending-goal endpoints.
type GoalsHandler struct {
	store GoalStore
	log   zerolog.Logger
}

// NewGoalsHandler creates a new goals handler.
func NewGoalsHandler(store GoalStore, log zerolog.Logger) *GoalsHandler {
	return &GoalsHandler{store: store, log: log}
}

// List handles GET /api/goals. Each goal is returned with the category
// outflow accumulated in its period and the spent/limit percentage.
func (h *GoalsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := middleware.Owner(ctx)

	mode, ok := parseMode(r)
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid mode")
		return
	}

	period := time.Now().UTC()
	if monthStr := r.URL.Query().Get("month"); monthStr != "" {
		parsed, err := time.Parse("2006-01", monthStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid month format, expected YYYY-MM")
			return
		}
		period = parsed
	}

	goals, err := h.store.ListGoals(ctx, owner, mode, period)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list goals")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list goals")
		return
	}

	progress := make([]map[string]interface{}, 0, len(goals))
	for _, g := range goals {
		spent, err := h.store.CategoryOutflowForMonth(ctx, owner, mode, g.Category, g.PeriodMonth)
		if err != nil {
			h.log.Error().Err(err).Str("category", g.Category).Msg("Failed to aggregate goal spend")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute goal progress")
			return
		}
		p := g.Progress(spent)
		progress = append(progress, map[string]interface{}{
			"goal_id":      p.ID,
			"category":     p.Category,
			"mode":         p.Mode,
			"limit_amount": p.LimitAmount.StringFixed(2),
			"period_month": p.PeriodMonth.Format("2006-01"),
			"spent":        p.Spent.StringFixed(2),
			"percent":      p.Percent,
		})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"goals": progress,
		"count": len(progress),
	})
}

// Create handles POST /api/goals. Posting the same (category, mode, month)
// again replaces the previous limit.
func (h *GoalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := middleware.Owner(ctx)

	var req struct {
		Category    string `json:"category"`
		Mode        string `json:"mode"`
		LimitAmount string `json:"limit_amount"`
		PeriodMonth string `json:"period_month"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Category == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Category is required")
		return
	}
	mode := domain.Mode(req.Mode)
	if mode != domain.ModeWork && mode != domain.ModePersonal {
		middleware.WriteError(w, http.StatusBadRequest, "Mode must be trabalho or pessoal")
		return
	}
	limit, err := decimal.NewFromString(req.LimitAmount)
	if err != nil || !limit.IsPositive() {
		middleware.WriteError(w, http.StatusBadRequest, "Limit amount must be a positive number")
		return
	}

	period := time.Now().UTC()
	if req.PeriodMonth != "" {
		period, err = time.Parse("2006-01", req.PeriodMonth)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid period_month format, expected YYYY-MM")
			return
		}
	}

	goal := domain.Goal{
		Owner:       owner,
		Category:    req.Category,
		Mode:        mode,
		LimitAmount: limit,
		PeriodMonth: time.Date(period.Year(), period.Month(), 1, 0, 0, 0, 0, time.UTC),
	}

	id, err := h.store.UpsertGoal(ctx, goal)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to save goal")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save goal")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{
		"goal_id": id,
		"status":  "created",
	})
}

// Delete handles DELETE /api/goals/{id}
func (h *GoalsHandler) Delete(w http.ResponseWriter, r *http.Request, goalID string) {
	ctx := r.Context()
	owner := middleware.Owner(ctx)

	if err := h.store.DeleteGoal(ctx, owner, goalID); err != nil {
		h.log.Error().Err(err).Str("goal_id", goalID).Msg("Failed to delete goal")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete goal")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"goal_id": goalID,
		"status":  "deleted",
	})
}

// OffersHandler handles personalized-offer endpoints.
type OffersHandler struct {
	service *offers.Service
	log     zerolog.Logger
}

// NewOffersHandler creates a new offers handler.
func NewOffersHandler(service *offers.Service, log zerolog.Logger) *OffersHandler {
	return &OffersHandler{service: service, log: log}
}

// List handles GET /api/offers
func (h *OffersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := middleware.Owner(ctx)

	active, err := h.service.List(ctx, owner)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list offers")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list offers")
		return
	}

	if active == nil {
		active = []domain.Offer{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"offers": active,
		"count":  len(active),
	})
}

// Refresh handles POST /api/offers/refresh. It re-derives offers from the
// owner's recent spending and returns the active set.
func (h *OffersHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := middleware.Owner(ctx)

	active, err := h.service.Refresh(ctx, owner)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to refresh offers")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to refresh offers")
		return
	}

	if active == nil {
		active = []domain.Offer{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"offers": active,
		"count":  len(active),
	})
}

// Dismiss handles POST /api/offers/{id}/dismiss
func (h *OffersHandler) Dismiss(w http.ResponseWriter, r *http.Request, offerID string) {
	ctx := r.Context()
	owner := middleware.Owner(ctx)

	if err := h.service.Dismiss(ctx, owner, offerID); err != nil {
		h.log.Error().Err(err).Str("offer_id", offerID).Msg("Failed to dismiss offer")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to dismiss offer")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"offer_id": offerID,
		"status":   "dismissed",
	})
}
