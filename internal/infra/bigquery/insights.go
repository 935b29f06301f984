package bigquery

import (
	"time"

	"github.com/equilibra/equilibra/internal/domain"
)

// InsightRow doubles as the query parameter struct for the batched insert,
// so it carries only types the parameter encoder accepts.
type InsightRow struct {
	InsightID string `bigquery:"insight_id"` // REQUIRED

	UserID string `bigquery:"user_id"` // REQUIRED

	Title   string `bigquery:"title"`   // REQUIRED
	Message string `bigquery:"message"` // REQUIRED

	Kind   string `bigquery:"kind"`   // REQUIRED, alerta|oportunidade|informacao
	Source string `bigquery:"source"` // REQUIRED, regressao_linear|arvore_decisao|heuristica

	Priority int64 `bigquery:"priority"` // REQUIRED, 1..3

	GeneratedAt time.Time `bigquery:"generated_at"` // REQUIRED
	Read        bool      `bigquery:"read"`         // REQUIRED
}

func insightRowFromDomain(in domain.Insight) InsightRow {
	return InsightRow{
		InsightID:   in.ID,
		UserID:      in.Owner,
		Title:       in.Title,
		Message:     in.Message,
		Kind:        string(in.Kind),
		Source:      string(in.Source),
		Priority:    int64(in.Priority),
		GeneratedAt: in.GeneratedAt,
		Read:        in.Read,
	}
}

func (r *InsightRow) toDomain() domain.Insight {
	return domain.Insight{
		ID:          r.InsightID,
		Owner:       r.UserID,
		Title:       r.Title,
		Message:     r.Message,
		Kind:        domain.InsightKind(r.Kind),
		Source:      domain.InsightSource(r.Source),
		Priority:    int(r.Priority),
		GeneratedAt: r.GeneratedAt,
		Read:        r.Read,
	}
}
