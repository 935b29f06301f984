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
	"github.com/equilibra/equilibra/internal/insights"
)

// LedgerStore is the repository surface the transaction and dashboard
// handlers read and write.
type LedgerStore interface {
	TransactionsInRange(ctx context.Context, owner string, mode domain.Mode, start, end time.Time) ([]domain.Transaction, error)
	RecentTransactions(ctx context.Context, owner string, mode domain.Mode, limit int) ([]domain.Transaction, error)
	RecordTransaction(ctx context.Context, t domain.Transaction) (string, error)
	PrimaryAccount(ctx context.Context, owner string) (*domain.Account, error)
	MonthlyOutflowTotals(ctx context.Context, owner string, mode domain.Mode, months int, now time.Time) ([]decimal.Decimal, error)
}

// parseMode validates the mode query parameter, defaulting to pessoal.
func parseMode(r *http.Request) (domain.Mode, bool) {
	switch r.URL.Query().Get("mode") {
	case "", string(domain.ModePersonal):
		return domain.ModePersonal, true
	case string(domain.ModeWork):
		return domain.ModeWork, true
	default:
		return "", false
	}
}

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	store LedgerStore
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(store LedgerStore, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: store, log: log}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := middleware.Owner(ctx)

	mode, ok := parseMode(r)
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid mode")
		return
	}

	query := r.URL.Query()
	now := time.Now()
	start := now.AddDate(0, -1, 0)
	end := now

	var err error
	if s := query.Get("start_date"); s != "" {
		start, err = time.Parse("2006-01-02", s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
	}
	if e := query.Get("end_date"); e != "" {
		end, err = time.Parse("2006-01-02", e)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
		// Make the end date inclusive.
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	transactions, err := h.store.TransactionsInRange(ctx, owner, mode, start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	// Return array directly for frontend compatibility.
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := middleware.Owner(ctx)

	var req struct {
		AccountID   string `json:"account_id"`
		Amount      string `json:"amount"`
		Direction   string `json:"direction"`
		Category    string `json:"category"`
		Description string `json:"description"`
		Mode        string `json:"mode"`
		OccurredAt  string `json:"occurred_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		middleware.WriteError(w, http.StatusBadRequest, "Amount must be a positive decimal")
		return
	}

	direction := domain.Direction(req.Direction)
	if direction != domain.DirectionIn && direction != domain.DirectionOut {
		middleware.WriteError(w, http.StatusBadRequest, "Direction must be entrada or saida")
		return
	}

	mode := domain.Mode(req.Mode)
	if mode != domain.ModeWork && mode != domain.ModePersonal {
		middleware.WriteError(w, http.StatusBadRequest, "Mode must be trabalho or pessoal")
		return
	}

	if req.AccountID == "" || req.Category == "" {
		middleware.WriteError(w, http.StatusBadRequest, "account_id and category are required")
		return
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != "" {
		occurredAt, err = time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid occurred_at, want RFC 3339")
			return
		}
	}

	id, err := h.store.RecordTransaction(ctx, domain.Transaction{
		Owner:       owner,
		AccountID:   req.AccountID,
		Amount:      amount,
		Direction:   direction,
		Category:    req.Category,
		Description: req.Description,
		Mode:        mode,
		OccurredAt:  occurredAt,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to record transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to record transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{
		"transaction_id": id,
	})
}

// DashboardHandler serves the aggregated dashboard summary.
type DashboardHandler struct {
	store LedgerStore
	log   zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(store LedgerStore, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{store: store, log: log}
}

// Summary handles GET /api/dashboard
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := middleware.Owner(ctx)

	mode, ok := parseMode(r)
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid mode")
		return
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	balance := decimal.Zero
	account, err := h.store.PrimaryAccount(ctx, owner)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load account")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load account")
		return
	}
	if account != nil {
		balance = account.Balance
	}

	window, err := h.store.TransactionsInRange(ctx, owner, mode, monthStart, now)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	inflow, outflow := decimal.Zero, decimal.Zero
	byCategory := make(map[string]string)
	perCategory := make(map[string]decimal.Decimal)
	byDay := make(map[string]string)
	perDay := make(map[string]decimal.Decimal)
	for _, t := range window {
		if t.IsOutflow() {
			outflow = outflow.Add(t.Amount)
			perCategory[t.Category] = perCategory[t.Category].Add(t.Amount)
			day := t.OccurredAt.Format("2006-01-02")
			perDay[day] = perDay[day].Add(t.Amount)
		} else {
			inflow = inflow.Add(t.Amount)
		}
	}
	for category, amount := range perCategory {
		byCategory[category] = amount.StringFixed(2)
	}
	for day, amount := range perDay {
		byDay[day] = amount.StringFixed(2)
	}

	projected := insights.BalanceProjection(balance, outflow, now)

	monthly, err := h.store.MonthlyOutflowTotals(ctx, owner, mode, 6, now)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query monthly totals")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query monthly totals")
		return
	}
	trendSeries := make([]string, 0, len(monthly))
	for _, m := range monthly {
		trendSeries = append(trendSeries, m.StringFixed(2))
	}

	summary := map[string]interface{}{
		"balance":             balance.StringFixed(2),
		"month_income":        inflow.StringFixed(2),
		"month_spend":         outflow.StringFixed(2),
		"projected_balance":   projected.StringFixed(2),
		"outflow_by_category": byCategory,
		"outflow_by_day":      byDay,
		"monthly_trend":       trendSeries,
	}
	if projection, ok := insights.MonthlyTrend(monthly); ok {
		summary["projected_next_month_spend"] = projection.StringFixed(2)
	}

	middleware.WriteJSON(w, http.StatusOK, summary)
}
