package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/equilibra/equilibra/internal/api/middleware"
	"github.com/equilibra/equilibra/internal/domain"
	"github.com/equilibra/equilibra/internal/jobs"
)

type mockLedgerStore struct {
	transactions []domain.Transaction
	recorded     []domain.Transaction
	account      *domain.Account
	monthly      []decimal.Decimal
}

func (m *mockLedgerStore) TransactionsInRange(ctx context.Context, owner string, mode domain.Mode, start, end time.Time) ([]domain.Transaction, error) {
	return m.transactions, nil
}

func (m *mockLedgerStore) RecentTransactions(ctx context.Context, owner string, mode domain.Mode, limit int) ([]domain.Transaction, error) {
	return m.transactions, nil
}

func (m *mockLedgerStore) RecordTransaction(ctx context.Context, t domain.Transaction) (string, error) {
	m.recorded = append(m.recorded, t)
	return "tx-1", nil
}

func (m *mockLedgerStore) PrimaryAccount(ctx context.Context, owner string) (*domain.Account, error) {
	return m.account, nil
}

func (m *mockLedgerStore) MonthlyOutflowTotals(ctx context.Context, owner string, mode domain.Mode, months int, now time.Time) ([]decimal.Decimal, error) {
	return m.monthly, nil
}

type mockInsightStore struct {
	insights []domain.Insight
	read     []string
}

func (m *mockInsightStore) ListInsights(ctx context.Context, owner string, onlyUnread bool, limit int) ([]domain.Insight, error) {
	return m.insights, nil
}

func (m *mockInsightStore) MarkInsightRead(ctx context.Context, owner, insightID string) error {
	m.read = append(m.read, insightID)
	return nil
}

type mockPublisher struct {
	published []*jobs.AnalyzeOwnerJob
}

func (m *mockPublisher) PublishAnalyzeOwner(ctx context.Context, job *jobs.AnalyzeOwnerJob) error {
	if job.JobID == "" {
		job.JobID = "job-1"
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	m.published = append(m.published, job)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// serve runs the handler behind the auth middleware the way the router does.
func serve(t *testing.T, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	middleware.Auth(handler).ServeHTTP(rec, req)
	return rec
}

func TestListTransactions(t *testing.T) {
	store := &mockLedgerStore{
		transactions: []domain.Transaction{
			{ID: "t1", Category: "Lazer", Amount: decimal.NewFromInt(50), Direction: domain.DirectionOut},
		},
	}
	h := NewTransactionsHandler(store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/transactions?mode=pessoal", nil)
	rec := serve(t, h.ListTransactions, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got []domain.Transaction
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].ID != "t1" {
		t.Errorf("got %+v, want one transaction t1", got)
	}
}

func TestListTransactions_InvalidMode(t *testing.T) {
	h := NewTransactionsHandler(&mockLedgerStore{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/transactions?mode=other", nil)
	rec := serve(t, h.ListTransactions, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestListTransactions_MissingIdentity(t *testing.T) {
	h := NewTransactionsHandler(&mockLedgerStore{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	rec := httptest.NewRecorder()
	middleware.Auth(http.HandlerFunc(h.ListTransactions)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestCreateTransaction(t *testing.T) {
	store := &mockLedgerStore{}
	h := NewTransactionsHandler(store, zerolog.Nop())

	body := `{"account_id":"acc-1","amount":"125.40","direction":"saida","category":"Mercado","mode":"pessoal"}`
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
	rec := serve(t, h.CreateTransaction, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if len(store.recorded) != 1 {
		t.Fatalf("recorded %d transactions, want 1", len(store.recorded))
	}
	got := store.recorded[0]
	if got.Owner != "user-1" {
		t.Errorf("Owner = %q, want user-1", got.Owner)
	}
	if !got.Amount.Equal(decimal.RequireFromString("125.40")) {
		t.Errorf("Amount = %s, want 125.40", got.Amount)
	}
}

func TestCreateTransaction_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative amount", `{"account_id":"a","amount":"-5","direction":"saida","category":"Lazer","mode":"pessoal"}`},
		{"bad direction", `{"account_id":"a","amount":"5","direction":"debit","category":"Lazer","mode":"pessoal"}`},
		{"bad mode", `{"account_id":"a","amount":"5","direction":"saida","category":"Lazer","mode":"corporate"}`},
		{"missing category", `{"account_id":"a","amount":"5","direction":"saida","mode":"pessoal"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockLedgerStore{}
			h := NewTransactionsHandler(store, zerolog.Nop())

			req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(tt.body))
			rec := serve(t, h.CreateTransaction, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if len(store.recorded) != 0 {
				t.Errorf("recorded %d transactions, want 0", len(store.recorded))
			}
		})
	}
}

func TestDashboardSummary(t *testing.T) {
	now := time.Now()
	store := &mockLedgerStore{
		account: &domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(1000)},
		transactions: []domain.Transaction{
			{Amount: decimal.NewFromInt(3000), Direction: domain.DirectionIn, Category: "Salário", OccurredAt: now},
			{Amount: decimal.NewFromInt(200), Direction: domain.DirectionOut, Category: "Mercado", OccurredAt: now},
			{Amount: decimal.NewFromInt(100), Direction: domain.DirectionOut, Category: "Lazer", OccurredAt: now},
		},
		monthly: []decimal.Decimal{
			decimal.NewFromInt(250),
			decimal.NewFromInt(280),
			decimal.NewFromInt(300),
		},
	}
	h := NewDashboardHandler(store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec := serve(t, h.Summary, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var got map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["balance"] != "1000.00" {
		t.Errorf("balance = %v, want 1000.00", got["balance"])
	}
	if got["month_income"] != "3000.00" {
		t.Errorf("month_income = %v, want 3000.00", got["month_income"])
	}
	if got["month_spend"] != "300.00" {
		t.Errorf("month_spend = %v, want 300.00", got["month_spend"])
	}
	byCategory, ok := got["outflow_by_category"].(map[string]interface{})
	if !ok || byCategory["Mercado"] != "200.00" {
		t.Errorf("outflow_by_category = %v, want Mercado 200.00", got["outflow_by_category"])
	}
	if _, ok := got["projected_next_month_spend"]; !ok {
		t.Error("expected projected_next_month_spend with a rising trend")
	}
}

func TestInsightsGenerate(t *testing.T) {
	pub := &mockPublisher{}
	h := NewInsightsHandler(&mockInsightStore{}, pub, zerolog.Nop())

	body := `{"mode":"trabalho","strategy":"llm"}`
	req := httptest.NewRequest(http.MethodPost, "/api/insights/generate", strings.NewReader(body))
	rec := serve(t, h.Generate, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}
	if len(pub.published) != 1 {
		t.Fatalf("published %d jobs, want 1", len(pub.published))
	}
	job := pub.published[0]
	if job.Owner != "user-1" || job.Mode != domain.ModeWork || job.Strategy != jobs.StrategyLLM {
		t.Errorf("job = %+v, want owner user-1 mode trabalho strategy llm", job)
	}
}

func TestInsightsGenerate_InvalidStrategy(t *testing.T) {
	pub := &mockPublisher{}
	h := NewInsightsHandler(&mockInsightStore{}, pub, zerolog.Nop())

	body := `{"mode":"pessoal","strategy":"oracle"}`
	req := httptest.NewRequest(http.MethodPost, "/api/insights/generate", strings.NewReader(body))
	rec := serve(t, h.Generate, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(pub.published) != 0 {
		t.Errorf("published %d jobs, want 0", len(pub.published))
	}
}

func TestInsightsMarkRead(t *testing.T) {
	store := &mockInsightStore{}
	h := NewInsightsHandler(store, &mockPublisher{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/insights/ins-1/read", nil)
	rec := serve(t, func(w http.ResponseWriter, r *http.Request) {
		h.MarkRead(w, r, "ins-1")
	}, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(store.read) != 1 || store.read[0] != "ins-1" {
		t.Errorf("read = %v, want [ins-1]", store.read)
	}
}

type mockGoalStore struct {
	goals    []domain.Goal
	upserted []domain.Goal
	deleted  []string
	spend    map[string]decimal.Decimal
}

func (m *mockGoalStore) UpsertGoal(ctx context.Context, g domain.Goal) (string, error) {
	m.upserted = append(m.upserted, g)
	return "goal-1", nil
}

func (m *mockGoalStore) ListGoals(ctx context.Context, owner string, mode domain.Mode, period time.Time) ([]domain.Goal, error) {
	return m.goals, nil
}

func (m *mockGoalStore) DeleteGoal(ctx context.Context, owner, goalID string) error {
	m.deleted = append(m.deleted, goalID)
	return nil
}

func (m *mockGoalStore) CategoryOutflowForMonth(ctx context.Context, owner string, mode domain.Mode, category string, month time.Time) (decimal.Decimal, error) {
	return m.spend[category], nil
}

func TestGoalsList_Progress(t *testing.T) {
	period := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &mockGoalStore{
		goals: []domain.Goal{
			{ID: "g1", Category: "Lazer", Mode: domain.ModePersonal, LimitAmount: decimal.NewFromInt(400), PeriodMonth: period},
		},
		spend: map[string]decimal.Decimal{"Lazer": decimal.NewFromInt(300)},
	}
	h := NewGoalsHandler(store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/goals?month=2024-06", nil)
	rec := serve(t, h.List, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var got struct {
		Goals []struct {
			Category string  `json:"category"`
			Spent    string  `json:"spent"`
			Percent  float64 `json:"percent"`
		} `json:"goals"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Goals) != 1 {
		t.Fatalf("got %d goals, want 1", len(got.Goals))
	}
	if got.Goals[0].Spent != "300.00" || got.Goals[0].Percent != 75 {
		t.Errorf("progress = %+v, want spent 300.00 percent 75", got.Goals[0])
	}
}

func TestGoalsCreate_Validation(t *testing.T) {
	store := &mockGoalStore{}
	h := NewGoalsHandler(store, zerolog.Nop())

	body := `{"category":"Lazer","mode":"pessoal","limit_amount":"0"}`
	req := httptest.NewRequest(http.MethodPost, "/api/goals", strings.NewReader(body))
	rec := serve(t, h.Create, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(store.upserted) != 0 {
		t.Errorf("upserted %d goals, want 0", len(store.upserted))
	}
}

func TestGoalsCreate(t *testing.T) {
	store := &mockGoalStore{}
	h := NewGoalsHandler(store, zerolog.Nop())

	body := `{"category":"Mercado","mode":"pessoal","limit_amount":"800","period_month":"2024-07"}`
	req := httptest.NewRequest(http.MethodPost, "/api/goals", strings.NewReader(body))
	rec := serve(t, h.Create, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if len(store.upserted) != 1 {
		t.Fatalf("upserted %d goals, want 1", len(store.upserted))
	}
	g := store.upserted[0]
	if g.Owner != "user-1" || g.PeriodMonth.Day() != 1 || g.PeriodMonth.Month() != time.July {
		t.Errorf("goal = %+v, want owner user-1 period 2024-07-01", g)
	}
}
