package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const offerColumns = `
	offer_id,
	user_id,
	kind,
	title,
	description,
	details,
	valid_until,
	active,
	created_ts`

// ActiveOfferKindsWithClient returns the kinds for which the owner already
// holds an active, unexpired offer. The generator skips those kinds.
func ActiveOfferKindsWithClient(ctx context.Context, client *bigquery.Client, owner string) ([]string, error) {
	q := client.Query(`
		SELECT DISTINCT kind AS kind
		FROM ` + tableRef(offersTable) + `
		WHERE user_id = @owner
		  AND active = TRUE
		  AND valid_until >= CURRENT_TIMESTAMP()
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ActiveOfferKindsWithClient: query read: %w", err)
	}

	var kinds []string
	for {
		var r struct {
			Kind string `bigquery:"kind"`
		}
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ActiveOfferKindsWithClient: iter next: %w", err)
		}
		kinds = append(kinds, r.Kind)
	}

	return kinds, nil
}

// InsertOfferWithClient creates one offer row. A generated ID is filled in
// when the row carries none.
func InsertOfferWithClient(ctx context.Context, client *bigquery.Client, row *OfferRow) (string, error) {
	if row.OfferID == "" {
		row.OfferID = uuid.NewString()
	}

	q := client.Query(`
		INSERT INTO ` + tableRef(offersTable) + ` (` + offerColumns + `
		)
		VALUES (
			@offer_id, @user_id, @kind, @title, @description,
			@details, @valid_until, @active, @created_ts
		)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "offer_id", Value: row.OfferID},
		{Name: "user_id", Value: row.UserID},
		{Name: "kind", Value: row.Kind},
		{Name: "title", Value: row.Title},
		{Name: "description", Value: row.Description},
		{Name: "details", Value: row.Details},
		{Name: "valid_until", Value: row.ValidUntil},
		{Name: "active", Value: row.Active},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	if err := runDML(ctx, q); err != nil {
		return "", fmt.Errorf("InsertOfferWithClient: %w", err)
	}
	return row.OfferID, nil
}

// ListActiveOffersWithClient returns the owner's active, unexpired offers,
// newest first.
func ListActiveOffersWithClient(ctx context.Context, client *bigquery.Client, owner string) ([]*OfferRow, error) {
	q := client.Query(`
		SELECT ` + offerColumns + `
		FROM ` + tableRef(offersTable) + `
		WHERE user_id = @owner
		  AND active = TRUE
		  AND valid_until >= CURRENT_TIMESTAMP()
		ORDER BY created_ts DESC
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListActiveOffersWithClient: query read: %w", err)
	}

	var rows []*OfferRow
	for {
		var r OfferRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListActiveOffersWithClient: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// DeactivateOfferWithClient retires one offer.
func DeactivateOfferWithClient(ctx context.Context, client *bigquery.Client, owner, offerID string) error {
	q := client.Query(`
		UPDATE ` + tableRef(offersTable) + `
		SET active = FALSE
		WHERE user_id = @owner
		  AND offer_id = @offer_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
		{Name: "offer_id", Value: offerID},
	}

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("DeactivateOfferWithClient: %w", err)
	}
	return nil
}
