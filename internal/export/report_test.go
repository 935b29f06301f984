package export

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/equilibra/equilibra/internal/domain"
)

type mockStore struct {
	txs      []domain.Transaction
	account  *domain.Account
	insights []domain.Insight
}

func (m *mockStore) TransactionsInRange(_ context.Context, _ string, _ domain.Mode, _, _ time.Time) ([]domain.Transaction, error) {
	return m.txs, nil
}

func (m *mockStore) PrimaryAccount(_ context.Context, _ string) (*domain.Account, error) {
	return m.account, nil
}

func (m *mockStore) ListInsights(_ context.Context, _ string, _ bool, _ int) ([]domain.Insight, error) {
	return m.insights, nil
}

func TestBuild(t *testing.T) {
	store := &mockStore{
		txs: []domain.Transaction{
			{Amount: decimal.RequireFromString("3500.00"), Direction: domain.DirectionIn, Category: "Salário"},
			{Amount: decimal.RequireFromString("78.90"), Direction: domain.DirectionOut, Category: "Alimentação"},
			{Amount: decimal.RequireFromString("45.80"), Direction: domain.DirectionOut, Category: "Transporte"},
		},
		account:  &domain.Account{Balance: decimal.RequireFromString("2500.00")},
		insights: []domain.Insight{{Title: "💰 Gestão Eficiente"}},
	}
	svc := NewService(store, "equilibra-reports", zerolog.Nop())

	report, err := svc.Build(context.Background(), "user-1", domain.ModeWork, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if report.Month != "2024-06" {
		t.Errorf("Month = %q, want 2024-06", report.Month)
	}
	if report.TotalInflow != "R$ 3500.00" {
		t.Errorf("TotalInflow = %q", report.TotalInflow)
	}
	if report.TotalOutflow != "R$ 124.70" {
		t.Errorf("TotalOutflow = %q", report.TotalOutflow)
	}
	if report.Balance != "R$ 2500.00" {
		t.Errorf("Balance = %q", report.Balance)
	}
	if report.ByCategory["Transporte"] != "R$ 45.80" {
		t.Errorf("ByCategory[Transporte] = %q", report.ByCategory["Transporte"])
	}
	if report.Transactions != 3 {
		t.Errorf("Transactions = %d, want 3", report.Transactions)
	}
	if len(report.Insights) != 1 {
		t.Errorf("Insights count = %d, want 1", len(report.Insights))
	}
}

func TestBuild_NoAccount(t *testing.T) {
	svc := NewService(&mockStore{}, "equilibra-reports", zerolog.Nop())

	report, err := svc.Build(context.Background(), "user-1", domain.ModePersonal, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if report.Balance != "R$ 0.00" {
		t.Errorf("Balance = %q, want R$ 0.00", report.Balance)
	}
}
