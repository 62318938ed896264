package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrConflict means the order exists but is not in a state that allows
	// the requested transition.
	ErrConflict = errors.New("order status conflict")
)

// ItemInsertError reports which line item failed, so the caller can surface
// the offending product.
type ItemInsertError struct {
	ProductID string
	Err       error
}

func (e *ItemInsertError) Error() string {
	return fmt.Sprintf("insert order item %s: %v", e.ProductID, e.Err)
}

func (e *ItemInsertError) Unwrap() error { return e.Err }

// DB matches the subset of *pgxpool.Pool the repo uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo struct{ DB DB }

// InsertTx persists the order header and its items inside the caller's
// transaction. The header goes first; item insertion stops at the first
// failure and reports the offending product.
func (r *Repo) InsertTx(ctx context.Context, tx pgx.Tx, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now().UTC()
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = StatusPending
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO orders(id, property_id, subtotal_cents, service_fee_cents, total_cents, payment_status, order_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, o.ID, o.PropertyID, o.SubtotalCents, o.FeeCents, o.TotalCents, o.PaymentStatus, o.OrderDate)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.OrderID = o.ID
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, name, quantity, unit_price_cents)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, it.ID, it.OrderID, it.ProductID, it.Name, it.Quantity, it.UnitPriceCents)
		if err != nil {
			return &ItemInsertError{ProductID: it.ProductID, Err: err}
		}
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, property_id, subtotal_cents, service_fee_cents, total_cents,
		       payment_status, COALESCE(payment_ref, ''), order_date, paid_at
		FROM orders WHERE id=$1
	`, orderID).Scan(&o.ID, &o.PropertyID, &o.SubtotalCents, &o.FeeCents, &o.TotalCents,
		&o.PaymentStatus, &o.PaymentRef, &o.OrderDate, &o.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, name, quantity, unit_price_cents
		FROM order_items WHERE order_id=$1
	`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		it.OrderID = o.ID
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return &o, nil
}

// MarkPaid transitions pending -> completed and records the payment reference.
func (r *Repo) MarkPaid(ctx context.Context, orderID, paymentRef string) error {
	return r.transition(ctx, orderID, StatusCompleted, `
		UPDATE orders
		SET payment_status=$2, payment_ref=$3, paid_at=now()
		WHERE id=$1 AND payment_status=$4
	`, orderID, StatusCompleted, paymentRef, StatusPending)
}

// MarkFailed transitions pending -> failed.
func (r *Repo) MarkFailed(ctx context.Context, orderID string) error {
	return r.transition(ctx, orderID, StatusFailed, `
		UPDATE orders
		SET payment_status=$2
		WHERE id=$1 AND payment_status=$3
	`, orderID, StatusFailed, StatusPending)
}

func (r *Repo) transition(ctx context.Context, orderID string, to Status, sql string, args ...any) error {
	ct, err := r.DB.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	// Distinguish a missing order from an illegal transition.
	var current Status
	err = r.DB.QueryRow(ctx, `SELECT payment_status FROM orders WHERE id=$1`, orderID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("select order status: %w", err)
	}
	if current == to {
		// already there; treat the repeat as a conflict the caller may ignore
		return ErrConflict
	}
	if !CanTransition(current, to) {
		return ErrConflict
	}
	return fmt.Errorf("order %s not updated from %s", orderID, current)
}
