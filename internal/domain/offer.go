package domain

import "time"

// OfferKind identifies the product an offer advertises. At most one active
// offer per (owner, kind) exists at a time.
type OfferKind string

const (
	OfferCashback  OfferKind = "cashback"
	OfferLoan      OfferKind = "emprestimo"
	OfferInsurance OfferKind = "seguro"
)

// Offer is a personalized product recommendation derived from an owner's
// recent spending. Details carries kind-specific fields (category,
// percentages, limits) as free-form JSON.
type Offer struct {
	ID          string
	Owner       string
	Kind        OfferKind
	Title       string
	Description string
	Details     map[string]interface{}
	ValidUntil  time.Time
	Active      bool
	CreatedAt   time.Time
}
