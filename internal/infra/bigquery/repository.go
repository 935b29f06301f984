package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/equilibra/equilibra/internal/domain"
)

// Repository exposes the ledger, insight, goal and offer tables as domain
// types over one shared BigQuery client. It satisfies the engine's reader
// and writer interfaces.
type Repository struct {
	client *bigquery.Client
}

// NewRepository creates a Repository with its own BigQuery client.
func NewRepository(ctx context.Context) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{client: client}, nil
}

// NewRepositoryWithClient wraps an existing client. The caller keeps
// ownership of the client's lifecycle.
func NewRepositoryWithClient(client *bigquery.Client) *Repository {
	return &Repository{client: client}
}

// Close releases the underlying client.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// TransactionsInRange returns the owner's transactions for one mode within
// [start, end], oldest first.
func (r *Repository) TransactionsInRange(ctx context.Context, owner string, mode domain.Mode, start, end time.Time) ([]domain.Transaction, error) {
	rows, err := QueryTransactionsInRangeWithClient(ctx, r.client, owner, string(mode), start, end)
	if err != nil {
		return nil, err
	}
	txs := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, row.toDomain())
	}
	return txs, nil
}

// PrimaryAccount returns the owner's principal account, or nil when the
// owner has none.
func (r *Repository) PrimaryAccount(ctx context.Context, owner string) (*domain.Account, error) {
	row, err := PrimaryAccountWithClient(ctx, r.client, owner)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	account := row.toDomain()
	return &account, nil
}

// MonthlyOutflowTotals returns one outflow total per trailing calendar
// month, oldest first, zero-filled.
func (r *Repository) MonthlyOutflowTotals(ctx context.Context, owner string, mode domain.Mode, months int, now time.Time) ([]decimal.Decimal, error) {
	totals, err := MonthlyOutflowTotalsWithClient(ctx, r.client, owner, string(mode), months, now)
	if err != nil {
		return nil, err
	}
	out := make([]decimal.Decimal, 0, len(totals))
	for _, t := range totals {
		out = append(out, decimalFromRat(t))
	}
	return out, nil
}

// ReplaceUnreadInsights swaps the owner's unread insights for the batch.
func (r *Repository) ReplaceUnreadInsights(ctx context.Context, owner string, batch []domain.Insight) error {
	rows := make([]InsightRow, 0, len(batch))
	for _, in := range batch {
		rows = append(rows, insightRowFromDomain(in))
	}
	return ReplaceUnreadInsightsWithClient(ctx, r.client, owner, rows)
}

// RecordTransaction stores one transaction and adjusts the account balance.
// A generated ID is filled in when the transaction carries none.
func (r *Repository) RecordTransaction(ctx context.Context, t domain.Transaction) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := RecordTransactionWithClient(ctx, r.client, transactionRowFromDomain(t)); err != nil {
		return "", err
	}
	return t.ID, nil
}

// InsertTransactions streams rows without adjusting balances.
func (r *Repository) InsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	rows := make([]*TransactionRow, 0, len(txs))
	for _, t := range txs {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		rows = append(rows, transactionRowFromDomain(t))
	}
	return InsertTransactionsWithClient(ctx, r.client, rows)
}

// RecentTransactions returns the owner's newest transactions for a mode.
func (r *Repository) RecentTransactions(ctx context.Context, owner string, mode domain.Mode, limit int) ([]domain.Transaction, error) {
	rows, err := ListRecentTransactionsWithClient(ctx, r.client, owner, string(mode), limit)
	if err != nil {
		return nil, err
	}
	txs := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, row.toDomain())
	}
	return txs, nil
}

// ListInsights returns the owner's insights, most urgent first.
func (r *Repository) ListInsights(ctx context.Context, owner string, onlyUnread bool, limit int) ([]domain.Insight, error) {
	rows, err := ListInsightsWithClient(ctx, r.client, owner, onlyUnread, limit)
	if err != nil {
		return nil, err
	}
	insights := make([]domain.Insight, 0, len(rows))
	for _, row := range rows {
		insights = append(insights, row.toDomain())
	}
	return insights, nil
}

// MarkInsightRead flags one insight as read.
func (r *Repository) MarkInsightRead(ctx context.Context, owner, insightID string) error {
	return MarkInsightReadWithClient(ctx, r.client, owner, insightID)
}

// UpsertGoal writes one goal, replacing any earlier goal for the same
// (category, mode, period).
func (r *Repository) UpsertGoal(ctx context.Context, g domain.Goal) (string, error) {
	return UpsertGoalWithClient(ctx, r.client, goalRowFromDomain(g))
}

// ListGoals returns the owner's goals for one mode and period month.
func (r *Repository) ListGoals(ctx context.Context, owner string, mode domain.Mode, period time.Time) ([]domain.Goal, error) {
	first := time.Date(period.Year(), period.Month(), 1, 0, 0, 0, 0, time.UTC)
	rows, err := ListGoalsWithClient(ctx, r.client, owner, string(mode), civil.DateOf(first))
	if err != nil {
		return nil, err
	}
	goals := make([]domain.Goal, 0, len(rows))
	for _, row := range rows {
		goals = append(goals, row.toDomain())
	}
	return goals, nil
}

// DeleteGoal removes one goal.
func (r *Repository) DeleteGoal(ctx context.Context, owner, goalID string) error {
	return DeleteGoalWithClient(ctx, r.client, owner, goalID)
}

// CategoryOutflowForMonth sums a category's outflow in the month containing
// the given time.
func (r *Repository) CategoryOutflowForMonth(ctx context.Context, owner string, mode domain.Mode, category string, month time.Time) (decimal.Decimal, error) {
	total, err := CategoryOutflowForMonthWithClient(ctx, r.client, owner, string(mode), category, month)
	if err != nil {
		return decimal.Zero, err
	}
	return decimalFromRat(total), nil
}

// ActiveOfferKinds returns the kinds already covered by an active offer.
func (r *Repository) ActiveOfferKinds(ctx context.Context, owner string) ([]domain.OfferKind, error) {
	kinds, err := ActiveOfferKindsWithClient(ctx, r.client, owner)
	if err != nil {
		return nil, err
	}
	out := make([]domain.OfferKind, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, domain.OfferKind(k))
	}
	return out, nil
}

// InsertOffer stores one offer.
func (r *Repository) InsertOffer(ctx context.Context, o domain.Offer) (string, error) {
	row, err := offerRowFromDomain(o)
	if err != nil {
		return "", fmt.Errorf("InsertOffer: encoding details: %w", err)
	}
	return InsertOfferWithClient(ctx, r.client, row)
}

// ListActiveOffers returns the owner's active, unexpired offers.
func (r *Repository) ListActiveOffers(ctx context.Context, owner string) ([]domain.Offer, error) {
	rows, err := ListActiveOffersWithClient(ctx, r.client, owner)
	if err != nil {
		return nil, err
	}
	offers := make([]domain.Offer, 0, len(rows))
	for _, row := range rows {
		offers = append(offers, row.toDomain())
	}
	return offers, nil
}

// DeactivateOffer retires one offer.
func (r *Repository) DeactivateOffer(ctx context.Context, owner, offerID string) error {
	return DeactivateOfferWithClient(ctx, r.client, owner, offerID)
}

// CreateAccount stores one account and returns its ID.
func (r *Repository) CreateAccount(ctx context.Context, a domain.Account, primary bool) (string, error) {
	return InsertAccountWithClient(ctx, r.client, accountRowFromDomain(a, primary))
}

// ListAccounts returns every account the owner holds.
func (r *Repository) ListAccounts(ctx context.Context, owner string) ([]domain.Account, error) {
	rows, err := ListAccountsWithClient(ctx, r.client, owner)
	if err != nil {
		return nil, err
	}
	accounts := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, row.toDomain())
	}
	return accounts, nil
}

// SetAccountBalance overwrites one account's balance.
func (r *Repository) SetAccountBalance(ctx context.Context, owner, accountID string, balance decimal.Decimal) error {
	return SetAccountBalanceWithClient(ctx, r.client, owner, accountID, ratFromDecimal(balance))
}
