package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/equilibra/equilibra/internal/domain"
)

// Report is one month's financial snapshot for an owner+mode, serialized
// to JSON and archived in GCS.
type Report struct {
	Owner        string            `json:"owner"`
	Mode         domain.Mode       `json:"mode"`
	Month        string            `json:"month"`
	Balance      string            `json:"balance"`
	TotalInflow  string            `json:"total_inflow"`
	TotalOutflow string            `json:"total_outflow"`
	ByCategory   map[string]string `json:"outflow_by_category"`
	Transactions int               `json:"transaction_count"`
	Insights     []domain.Insight  `json:"insights"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// Store is the read surface the report builder needs.
type Store interface {
	TransactionsInRange(ctx context.Context, owner string, mode domain.Mode, start, end time.Time) ([]domain.Transaction, error)
	PrimaryAccount(ctx context.Context, owner string) (*domain.Account, error)
	ListInsights(ctx context.Context, owner string, onlyUnread bool, limit int) ([]domain.Insight, error)
}

// Service builds monthly reports and archives them.
type Service struct {
	store  Store
	bucket string
	log    zerolog.Logger
	now    func() time.Time
}

// NewService builds a report service writing to the given bucket.
func NewService(store Store, bucket string, log zerolog.Logger) *Service {
	return &Service{store: store, bucket: bucket, log: log, now: time.Now}
}

// Build assembles the report for the calendar month containing the given
// time.
func (s *Service) Build(ctx context.Context, owner string, mode domain.Mode, month time.Time) (*Report, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	txs, err := s.store.TransactionsInRange(ctx, owner, mode, start, end)
	if err != nil {
		return nil, fmt.Errorf("build report: transactions: %w", err)
	}

	balance := decimal.Zero
	if account, err := s.store.PrimaryAccount(ctx, owner); err != nil {
		return nil, fmt.Errorf("build report: primary account: %w", err)
	} else if account != nil {
		balance = account.Balance
	}

	insights, err := s.store.ListInsights(ctx, owner, true, 10)
	if err != nil {
		return nil, fmt.Errorf("build report: insights: %w", err)
	}

	inflow, outflow := decimal.Zero, decimal.Zero
	byCategory := make(map[string]string)
	perCategory := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.IsOutflow() {
			outflow = outflow.Add(t.Amount)
			perCategory[t.Category] = perCategory[t.Category].Add(t.Amount)
		} else {
			inflow = inflow.Add(t.Amount)
		}
	}
	for category, amount := range perCategory {
		byCategory[category] = domain.FormatBRL(amount)
	}

	return &Report{
		Owner:        owner,
		Mode:         mode,
		Month:        start.Format("2006-01"),
		Balance:      domain.FormatBRL(balance),
		TotalInflow:  domain.FormatBRL(inflow),
		TotalOutflow: domain.FormatBRL(outflow),
		ByCategory:   byCategory,
		Transactions: len(txs),
		Insights:     insights,
		GeneratedAt:  s.now().UTC(),
	}, nil
}

// Upload archives the report under
// reports/<owner>/<mode>/<month>.json and returns the object name.
func (s *Service) Upload(ctx context.Context, report *Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("upload report: marshal: %w", err)
	}

	objectName := fmt.Sprintf("reports/%s/%s/%s.json", report.Owner, report.Mode, report.Month)
	if err := uploadBytes(ctx, s.bucket, objectName, data); err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}

	s.log.Info().
		Str("owner", report.Owner).
		Str("object", objectName).
		Msg("Archived monthly report")

	return objectName, nil
}

// uploadBytes writes data to a GCS object. It assumes Application Default
// Credentials are configured.
func uploadBytes(ctx context.Context, bucketName, objectName string, data []byte) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write GCS object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close GCS writer: %w", err)
	}

	return nil
}
