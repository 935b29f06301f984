package bigquery

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/equilibra/equilibra/internal/domain"
)

type OfferRow struct {
	OfferID string `bigquery:"offer_id"` // REQUIRED

	UserID string `bigquery:"user_id"` // REQUIRED

	Kind        string `bigquery:"kind"`        // REQUIRED, cashback|emprestimo|seguro
	Title       string `bigquery:"title"`       // REQUIRED
	Description string `bigquery:"description"` // REQUIRED

	Details bigquery.NullString `bigquery:"details"` // NULLABLE, JSON-encoded kind-specific fields

	ValidUntil time.Time `bigquery:"valid_until"` // REQUIRED
	Active     bool      `bigquery:"active"`      // REQUIRED

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

func offerRowFromDomain(o domain.Offer) (*OfferRow, error) {
	row := &OfferRow{
		OfferID:     o.ID,
		UserID:      o.Owner,
		Kind:        string(o.Kind),
		Title:       o.Title,
		Description: o.Description,
		ValidUntil:  o.ValidUntil,
		Active:      o.Active,
		CreatedTS:   time.Now().UTC(),
	}
	if len(o.Details) > 0 {
		encoded, err := json.Marshal(o.Details)
		if err != nil {
			return nil, err
		}
		row.Details = bigquery.NullString{StringVal: string(encoded), Valid: true}
	}
	return row, nil
}

func (r *OfferRow) toDomain() domain.Offer {
	offer := domain.Offer{
		ID:          r.OfferID,
		Owner:       r.UserID,
		Kind:        domain.OfferKind(r.Kind),
		Title:       r.Title,
		Description: r.Description,
		ValidUntil:  r.ValidUntil,
		Active:      r.Active,
		CreatedAt:   r.CreatedTS,
	}
	if r.Details.Valid {
		// A row with unreadable details still surfaces as an offer.
		_ = json.Unmarshal([]byte(r.Details.StringVal), &offer.Details)
	}
	return offer
}
