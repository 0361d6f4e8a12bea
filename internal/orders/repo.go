package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// CreateBatch persists every order of one checkout and empties the buyer's
// cart in a single transaction: either all per-seller orders exist and the
// cart is clear, or nothing changed.
func (r *Repo) CreateBatch(ctx context.Context, buyerID string, os []*Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, o := range os {
		_, err = tx.Exec(ctx, `
			INSERT INTO orders(id, buyer_id, seller_id, total, currency, gateway_order_id, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			o.ID, o.BuyerID, o.SellerID, o.Total, o.Currency, o.GatewayOrderID, o.Status)
		if err != nil {
			return err
		}
		for _, l := range o.Lines {
			_, err = tx.Exec(ctx, `
				INSERT INTO order_lines(order_id, listing_id, title, qty, unit_price, currency)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				o.ID, l.ListingID, l.Title, l.Qty, l.UnitPrice, l.Currency)
			if err != nil {
				return err
			}
		}
	}

	ct, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE buyer_id=$1`, buyerID)
	if err != nil {
		return err
	}
	// Zero deletions means a concurrent checkout already consumed this
	// cart; committing now would duplicate the orders.
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("cart for buyer %s already checked out: %w", buyerID, ErrConflict)
	}
	return tx.Commit(ctx)
}

const orderCols = `id, buyer_id, seller_id, total, currency, gateway_order_id,
	COALESCE(gateway_payment_id, ''), status, created_at, updated_at`

func (r *Repo) scanOrder(ctx context.Context, row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.BuyerID, &o.SellerID, &o.Total, &o.Currency,
		&o.GatewayOrderID, &o.GatewayPaymentID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT listing_id, title, qty, unit_price, currency
		FROM order_lines WHERE order_id=$1 ORDER BY id`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ListingID, &l.Title, &l.Qty, &l.UnitPrice, &l.Currency); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	return &o, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (*Order, error) {
	return r.scanOrder(ctx, r.DB.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
}

func (r *Repo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error) {
	return r.scanOrder(ctx, r.DB.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE gateway_order_id=$1`, gatewayOrderID))
}

// MarkPaid transitions created/pending -> paid and stores the gateway
// payment identifiers. It reports whether this call performed the
// transition: a repeated callback for an already-paid order returns
// first=false, which is what keeps inventory decrement one-shot.
func (r *Repo) MarkPaid(ctx context.Context, orderID, gatewayPaymentID, gatewaySignature string) (first bool, err error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders
		SET status = $2, gateway_payment_id = $3, gateway_signature = $4, updated_at = now()
		WHERE id = $1 AND status IN ($5, $6)`,
		orderID, StatusPaid, gatewayPaymentID, gatewaySignature, StatusCreated, StatusPending)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// UpdateStatus applies a seller-side fulfilment transition. The WHERE
// clause re-checks the from-status so concurrent updates cannot skip a
// step.
func (r *Repo) UpdateStatus(ctx context.Context, orderID string, from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("order %s: %s -> %s: %w", orderID, from, to, ErrConflict)
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`, orderID, from, to)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("order %s no longer in status %s: %w", orderID, from, ErrConflict)
	}
	return nil
}
