package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const listingCols = `id, seller_id, title, price, currency, quantity, status, created_at, updated_at`

func scanListing(row pgx.Row) (Listing, error) {
	var l Listing
	err := row.Scan(&l.ID, &l.SellerID, &l.Title, &l.Price, &l.Currency,
		&l.Quantity, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (r *Repo) Get(ctx context.Context, id string) (Listing, error) {
	l, err := scanListing(r.DB.QueryRow(ctx,
		`SELECT `+listingCols+` FROM listings WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Listing{}, ErrNotFound
	}
	return l, err
}

// GetMany returns the listings that exist, keyed by id. Missing ids are
// simply absent; callers decide whether that is an error.
func (r *Repo) GetMany(ctx context.Context, ids []string) (map[string]Listing, error) {
	if len(ids) == 0 {
		return map[string]Listing{}, nil
	}
	rows, err := r.DB.Query(ctx,
		`SELECT `+listingCols+` FROM listings WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Listing, len(ids))
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out[l.ID] = l
	}
	return out, rows.Err()
}

// DecrementStock is the authoritative stock check: a single conditional
// UPDATE that only fires while quantity covers qty, so concurrent
// settlements of the same listing can never oversell. When the remaining
// quantity hits zero the listing flips to out_of_stock in the same tx.
func (r *Repo) DecrementStock(ctx context.Context, id string, qty int) (remaining int, soldOut bool, err error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		UPDATE listings SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2
		RETURNING quantity`, id, qty).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the listing is gone or stock ran short; tell them apart.
		var available int
		if err2 := tx.QueryRow(ctx, `SELECT quantity FROM listings WHERE id=$1`, id).Scan(&available); err2 != nil {
			if errors.Is(err2, pgx.ErrNoRows) {
				return 0, false, fmt.Errorf("listing %s: %w", id, ErrNotFound)
			}
			return 0, false, err2
		}
		return 0, false, fmt.Errorf("listing %s: need %d, have %d: %w", id, qty, available, ErrInsufficientStock)
	}
	if err != nil {
		return 0, false, err
	}

	if remaining <= 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE listings SET status = $2, updated_at = now()
			WHERE id = $1 AND status = $3`, id, StatusOutOfStock, StatusPublished); err != nil {
			return 0, false, err
		}
		soldOut = true
	}
	return remaining, soldOut, tx.Commit(ctx)
}

// Restock adds quantity back and republishes a sold-out listing.
func (r *Repo) Restock(ctx context.Context, id string, qty int) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE listings
		SET quantity = quantity + $2,
		    status = CASE WHEN status = $3 THEN $4 ELSE status END,
		    updated_at = now()
		WHERE id = $1`, id, qty, StatusOutOfStock, StatusPublished)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	return nil
}
