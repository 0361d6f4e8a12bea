package settlement

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Insert(ctx context.Context, a Anomaly) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO anomalies(event_id, order_id, listing_id, qty, reason)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING`,
		a.EventID, a.OrderID, a.ListingID, a.Qty, a.Reason)
	return err
}
