package cart

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Lines(ctx context.Context, buyerID string) ([]Line, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT listing_id, qty FROM cart_items
		WHERE buyer_id = $1 ORDER BY added_at`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ListingID, &l.Qty); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Add coalesces on repeat-add: the same listing bumps the existing line
// instead of inserting a duplicate.
func (r *Repo) Add(ctx context.Context, buyerID, listingID string, qty int) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO cart_items(buyer_id, listing_id, qty)
		VALUES ($1, $2, $3)
		ON CONFLICT (buyer_id, listing_id)
		DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty`,
		buyerID, listingID, qty)
	return err
}

func (r *Repo) SetQty(ctx context.Context, buyerID, listingID string, qty int) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE cart_items SET qty = $3
		WHERE buyer_id = $1 AND listing_id = $2`,
		buyerID, listingID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("listing %s: %w", listingID, ErrLineNotFound)
	}
	return nil
}

// Remove is idempotent; removing an absent line is not an error.
func (r *Repo) Remove(ctx context.Context, buyerID, listingID string) error {
	_, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items WHERE buyer_id = $1 AND listing_id = $2`,
		buyerID, listingID)
	return err
}
