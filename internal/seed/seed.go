package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/equilibra/equilibra/internal/domain"
)

// Store is the persistence surface the seeder needs.
type Store interface {
	PrimaryAccount(ctx context.Context, owner string) (*domain.Account, error)
	CreateAccount(ctx context.Context, a domain.Account, primary bool) (string, error)
	RecentTransactions(ctx context.Context, owner string, mode domain.Mode, limit int) ([]domain.Transaction, error)
	InsertTransactions(ctx context.Context, txs []domain.Transaction) error
	SetAccountBalance(ctx context.Context, owner, accountID string, balance decimal.Decimal) error
	UpsertGoal(ctx context.Context, g domain.Goal) (string, error)
}

type sample struct {
	direction   domain.Direction
	category    string
	description string
	amount      string
	mode        domain.Mode
	day         int
}

// One month in the life of a student with a CLT job and side projects.
var samples = []sample{
	{domain.DirectionIn, "Salário", "Salário CLT", "3500.00", domain.ModeWork, 5},
	{domain.DirectionIn, "Freelance", "Projeto de desenvolvimento web", "1200.00", domain.ModeWork, 12},
	{domain.DirectionOut, "Transporte", "Uber para reunião cliente", "45.80", domain.ModeWork, 10},
	{domain.DirectionOut, "Alimentação", "Almoço reunião de negócios", "78.90", domain.ModeWork, 11},
	{domain.DirectionOut, "Tecnologia", "Assinatura Adobe Creative Cloud", "85.00", domain.ModeWork, 1},
	{domain.DirectionOut, "Alimentação", "Supermercado", "287.50", domain.ModePersonal, 8},
	{domain.DirectionOut, "Alimentação", "iFood - Jantar", "52.90", domain.ModePersonal, 15},
	{domain.DirectionOut, "Transporte", "Uber para faculdade", "28.40", domain.ModePersonal, 9},
	{domain.DirectionOut, "Transporte", "Recarga Bilhete Único", "100.00", domain.ModePersonal, 3},
	{domain.DirectionOut, "Educação", "Mensalidade Faculdade", "890.00", domain.ModePersonal, 7},
	{domain.DirectionOut, "Educação", "Livros universitários", "145.00", domain.ModePersonal, 14},
	{domain.DirectionOut, "Lazer", "Netflix", "39.90", domain.ModePersonal, 1},
	{domain.DirectionOut, "Lazer", "Cinema com amigos", "67.00", domain.ModePersonal, 13},
	{domain.DirectionOut, "Saúde", "Farmácia - Medicamentos", "89.50", domain.ModePersonal, 6},
	{domain.DirectionOut, "Moradia", "Aluguel República", "650.00", domain.ModePersonal, 5},
	{domain.DirectionOut, "Utilidades", "Conta de Luz", "135.80", domain.ModePersonal, 4},
	{domain.DirectionOut, "Utilidades", "Internet banda larga", "99.90", domain.ModePersonal, 2},
	{domain.DirectionOut, "Vestuário", "Roupas para estágio", "189.90", domain.ModePersonal, 16},
}

// SampleTransactions builds the example ledger for an owner, dated within
// the month of now.
func SampleTransactions(owner, accountID string, now time.Time) []domain.Transaction {
	txs := make([]domain.Transaction, 0, len(samples))
	for _, s := range samples {
		txs = append(txs, domain.Transaction{
			ID:          uuid.New().String(),
			Owner:       owner,
			AccountID:   accountID,
			Amount:      decimal.RequireFromString(s.amount),
			Direction:   s.direction,
			Category:    s.category,
			Description: s.description,
			Mode:        s.mode,
			OccurredAt:  time.Date(now.Year(), now.Month(), s.day, 12, 0, 0, 0, time.UTC),
		})
	}
	return txs
}

// Balance returns the net of the given transactions.
func Balance(txs []domain.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.IsOutflow() {
			total = total.Sub(t.Amount)
		} else {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// Apply seeds the example dataset for an owner. It refuses to touch an
// owner that already has transactions, creates an account when none
// exists, and leaves the account balance equal to the seeded net.
func Apply(ctx context.Context, store Store, owner string, log zerolog.Logger) (int, error) {
	for _, mode := range []domain.Mode{domain.ModeWork, domain.ModePersonal} {
		existing, err := store.RecentTransactions(ctx, owner, mode, 1)
		if err != nil {
			return 0, fmt.Errorf("seed: check existing data: %w", err)
		}
		if len(existing) > 0 {
			return 0, fmt.Errorf("seed: owner %s already has transactions", owner)
		}
	}

	account, err := store.PrimaryAccount(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("seed: load account: %w", err)
	}
	if account == nil {
		id, err := store.CreateAccount(ctx, domain.Account{
			Owner: owner,
			Label: "Conta Principal",
			Kind:  "corrente",
		}, true)
		if err != nil {
			return 0, fmt.Errorf("seed: create account: %w", err)
		}
		account = &domain.Account{ID: id, Owner: owner}
		log.Info().Str("account_id", id).Msg("Created account")
	}

	txs := SampleTransactions(owner, account.ID, time.Now().UTC())
	if err := store.InsertTransactions(ctx, txs); err != nil {
		return 0, fmt.Errorf("seed: insert transactions: %w", err)
	}

	if err := store.SetAccountBalance(ctx, owner, account.ID, Balance(txs)); err != nil {
		return 0, fmt.Errorf("seed: set balance: %w", err)
	}

	for _, g := range SampleGoals(owner, time.Now().UTC()) {
		if _, err := store.UpsertGoal(ctx, g); err != nil {
			return 0, fmt.Errorf("seed: upsert goal %s: %w", g.Category, err)
		}
	}

	return len(txs), nil
}

// SampleGoals builds starter spending limits for the month of now.
func SampleGoals(owner string, now time.Time) []domain.Goal {
	period := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return []domain.Goal{
		{
			Owner:       owner,
			Category:    "Alimentação",
			Mode:        domain.ModePersonal,
			LimitAmount: decimal.NewFromInt(500),
			PeriodMonth: period,
		},
		{
			Owner:       owner,
			Category:    "Lazer",
			Mode:        domain.ModePersonal,
			LimitAmount: decimal.NewFromInt(200),
			PeriodMonth: period,
		},
	}
}
