package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("inventory record not found")

// DB matches the subset of *pgxpool.Pool the repo uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo struct{ DB DB }

// SnapshotForUpdate locks the records for the given products (FOR UPDATE) and
// returns them keyed by product id. Products without a record are simply
// absent from the map. Rows are locked in the caller's product order; callers
// issuing multi-product checkouts against the same property therefore contend
// on the first shared row rather than deadlocking.
func (r *Repo) SnapshotForUpdate(ctx context.Context, tx pgx.Tx, propertyID string, productIDs []string) (map[string]Record, error) {
	out := make(map[string]Record, len(productIDs))
	for _, pid := range productIDs {
		var rec Record
		err := tx.QueryRow(ctx, `
			SELECT property_id, product_id, name, quantity, unit_price_cents, updated_at
			FROM inventory
			WHERE property_id=$1 AND product_id=$2
			FOR UPDATE
		`, propertyID, pid).Scan(&rec.PropertyID, &rec.ProductID, &rec.Name, &rec.Quantity, &rec.UnitPriceCents, &rec.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("lock inventory %s: %w", pid, err)
		}
		out[pid] = rec
	}
	return out, nil
}

// Decrement subtracts qty from the record. The availability check sits in the
// UPDATE predicate, so quantity can never go negative even without the
// snapshot lock. Returns false when the guard rejected the write.
func (r *Repo) Decrement(ctx context.Context, tx pgx.Tx, propertyID, productID string, qty int) (bool, error) {
	ct, err := tx.Exec(ctx, `
		UPDATE inventory
		SET quantity = quantity - $3, updated_at = now()
		WHERE property_id=$1 AND product_id=$2 AND quantity >= $3
	`, propertyID, productID, qty)
	if err != nil {
		return false, fmt.Errorf("decrement inventory %s: %w", productID, err)
	}
	return ct.RowsAffected() == 1, nil
}

// ListByProperty returns the property's menu, ordered by name.
func (r *Repo) ListByProperty(ctx context.Context, propertyID string) ([]Record, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT property_id, product_id, name, quantity, unit_price_cents, updated_at
		FROM inventory
		WHERE property_id=$1
		ORDER BY name
	`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.PropertyID, &rec.ProductID, &rec.Name, &rec.Quantity, &rec.UnitPriceCents, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Upsert sets the record's stock level and price. Used by the host
// add-product and replenishment flows, not by checkout.
func (r *Repo) Upsert(ctx context.Context, rec Record) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO inventory(property_id, product_id, name, quantity, unit_price_cents)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (property_id, product_id)
		DO UPDATE SET name=EXCLUDED.name, quantity=EXCLUDED.quantity,
		              unit_price_cents=EXCLUDED.unit_price_cents, updated_at=now()
	`, rec.PropertyID, rec.ProductID, rec.Name, rec.Quantity, rec.UnitPriceCents)
	return err
}
