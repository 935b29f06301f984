package offers

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/equilibra/equilibra/internal/domain"
)

// windowDays is the spending slice offers are derived from.
const windowDays = 30

// Offer thresholds.
var (
	loanOutflowFloor      = decimal.NewFromInt(500)
	transportSpendFloor   = decimal.NewFromInt(200)
	cashbackValidityDays  = 30
	loanValidityDays      = 15
	insuranceValidityDays = 20
)

// Generate derives offers from the owner's recent spending across both
// modes. Kinds listed in activeKinds are skipped, so an owner never holds
// two active offers of the same kind. The result carries no IDs or owner;
// the caller stamps those.
func Generate(window []domain.Transaction, activeKinds []domain.OfferKind, now time.Time) []domain.Offer {
	active := make(map[domain.OfferKind]bool, len(activeKinds))
	for _, k := range activeKinds {
		active[k] = true
	}

	spent := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, t := range window {
		if !t.IsOutflow() {
			continue
		}
		spent[t.Category] = spent[t.Category].Add(t.Amount)
		total = total.Add(t.Amount)
	}

	var out []domain.Offer

	if top := topCategory(spent); top != "" && !active[domain.OfferCashback] {
		out = append(out, domain.Offer{
			Kind:        domain.OfferCashback,
			Title:       fmt.Sprintf("Cashback Especial em %s", top),
			Description: fmt.Sprintf("Ganhe 5%% de cashback em todas as compras de %s durante este mês!", top),
			Details: map[string]interface{}{
				"categoria":  top,
				"percentual": 5,
				"tipo":       "category_boost",
			},
			ValidUntil: now.AddDate(0, 0, cashbackValidityDays),
			Active:     true,
		})
	}

	if total.GreaterThan(loanOutflowFloor) && !active[domain.OfferLoan] {
		out = append(out, domain.Offer{
			Kind:        domain.OfferLoan,
			Title:       "Empréstimo com Taxa Especial",
			Description: "Taxa de juros reduzida de 1.5% ao mês para bons pagadores. Até R$ 5.000 aprovados na hora!",
			Details: map[string]interface{}{
				"taxa_juros":   1.5,
				"valor_max":    5000,
				"parcelas_max": 12,
			},
			ValidUntil: now.AddDate(0, 0, loanValidityDays),
			Active:     true,
		})
	}

	if spent["Transporte"].GreaterThan(transportSpendFloor) && !active[domain.OfferInsurance] {
		out = append(out, domain.Offer{
			Kind:        domain.OfferInsurance,
			Title:       "Seguro Auto com Desconto",
			Description: "20% de desconto no primeiro mês do seguro automotivo. Proteção completa para seu veículo!",
			Details: map[string]interface{}{
				"desconto_percentual": 20,
				"tipo_seguro":         "auto",
				"cobertura":           "completa",
			},
			ValidUntil: now.AddDate(0, 0, insuranceValidityDays),
			Active:     true,
		})
	}

	return out
}

// topCategory returns the category with the highest spend, or "" for an
// empty map. Lexicographic order breaks ties so the pick is deterministic.
func topCategory(spent map[string]decimal.Decimal) string {
	var top string
	var max decimal.Decimal
	for category, amount := range spent {
		if top == "" || amount.GreaterThan(max) || (amount.Equal(max) && category < top) {
			top = category
			max = amount
		}
	}
	return top
}

// Store is the persistence surface the offer service needs.
type Store interface {
	TransactionsInRange(ctx context.Context, owner string, mode domain.Mode, start, end time.Time) ([]domain.Transaction, error)
	ActiveOfferKinds(ctx context.Context, owner string) ([]domain.OfferKind, error)
	InsertOffer(ctx context.Context, o domain.Offer) (string, error)
	ListActiveOffers(ctx context.Context, owner string) ([]domain.Offer, error)
	DeactivateOffer(ctx context.Context, owner, offerID string) error
}

// Service generates and persists offers for an owner.
type Service struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewService builds an offer service.
func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// Refresh derives fresh offers from the last 30 days of spending in both
// modes and stores the ones whose kind is not already covered. It returns
// the owner's active offers after the refresh.
func (s *Service) Refresh(ctx context.Context, owner string) ([]domain.Offer, error) {
	now := s.now()
	start := now.AddDate(0, 0, -windowDays)

	var window []domain.Transaction
	for _, mode := range []domain.Mode{domain.ModeWork, domain.ModePersonal} {
		txs, err := s.store.TransactionsInRange(ctx, owner, mode, start, now)
		if err != nil {
			return nil, fmt.Errorf("offers refresh: transactions: %w", err)
		}
		window = append(window, txs...)
	}

	activeKinds, err := s.store.ActiveOfferKinds(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("offers refresh: active kinds: %w", err)
	}

	for _, offer := range Generate(window, activeKinds, now) {
		offer.Owner = owner
		if _, err := s.store.InsertOffer(ctx, offer); err != nil {
			return nil, fmt.Errorf("offers refresh: insert %s: %w", offer.Kind, err)
		}
		s.log.Info().Str("owner", owner).Str("kind", string(offer.Kind)).Msg("Created offer")
	}

	return s.store.ListActiveOffers(ctx, owner)
}

// List returns the owner's active offers without regenerating them.
func (s *Service) List(ctx context.Context, owner string) ([]domain.Offer, error) {
	return s.store.ListActiveOffers(ctx, owner)
}

// Dismiss deactivates one offer.
func (s *Service) Dismiss(ctx context.Context, owner, offerID string) error {
	return s.store.DeactivateOffer(ctx, owner, offerID)
}
