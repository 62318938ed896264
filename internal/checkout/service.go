package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"

	"github.com/eddiefio/guestify-checkout/internal/inventory"
	"github.com/eddiefio/guestify-checkout/internal/order"
)

// InventoryStore is the slice of the inventory repo the checkout needs.
type InventoryStore interface {
	SnapshotForUpdate(ctx context.Context, tx pgx.Tx, propertyID string, productIDs []string) (map[string]inventory.Record, error)
	Decrement(ctx context.Context, tx pgx.Tx, propertyID, productID string, qty int) (bool, error)
}

// OrderStore is the slice of the order repo the checkout needs.
type OrderStore interface {
	InsertTx(ctx context.Context, tx pgx.Tx, o *order.Order) error
}

type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service turns a guest cart into a persisted order with consistent stock.
// Validation, the order write, and the stock decrements all run inside one
// transaction: any stage failure rolls everything back, so an order never
// persists without its decrements and stock never goes negative.
type Service struct {
	DB        DB
	Inventory InventoryStore
	Orders    OrderStore
	Logger    *log.Logger
}

type Result struct {
	OrderID       string
	SubtotalCents int64
	FeeCents      int64
	TotalCents    int64
}

func (s *Service) Checkout(ctx context.Context, propertyID string, cart []Line) (Result, error) {
	lines, verr := validateCart(propertyID, cart)
	if verr != nil {
		return Result{}, verr
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("begin checkout tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Stage 1: validate requested quantities against locked stock. The locks
	// hold until commit, so validation cannot go stale mid-checkout.
	snap, err := s.snapshot(ctx, tx, propertyID, lines)
	if err != nil {
		return Result{}, err
	}
	if verr := validateStock(lines, snap); verr != nil {
		return Result{}, verr
	}
	s.logPriceMismatches(propertyID, lines, snap)

	// Stage 2: persist the order header and line items. Totals come from the
	// client cart prices, matching the original behavior; the inventory price
	// snapshot is logged above so a drift is visible.
	totals := computeTotals(lines)
	ord := &order.Order{
		PropertyID:    propertyID,
		SubtotalCents: totals.SubtotalCents,
		FeeCents:      totals.FeeCents,
		TotalCents:    totals.TotalCents,
		Items:         orderItems(lines),
	}
	if err := s.Orders.InsertTx(ctx, tx, ord); err != nil {
		var itemErr *order.ItemInsertError
		if errors.As(err, &itemErr) {
			return Result{}, &Error{Code: CodeOrderItemCreationFailed, ProductID: itemErr.ProductID, Err: err}
		}
		return Result{}, &Error{Code: CodeOrderCreationFailed, Err: err}
	}

	// Stage 3: decrement stock. The UPDATE predicate re-checks availability;
	// a miss means the snapshot and the table disagree, and the whole
	// checkout rolls back as late InsufficientStock.
	for _, l := range lines {
		applied, err := s.Inventory.Decrement(ctx, tx, propertyID, l.ProductID, l.Quantity)
		if err != nil {
			return Result{}, &Error{Code: CodeInventoryUpdateFailed, ProductID: l.ProductID, Err: err}
		}
		if !applied {
			return Result{}, &Error{
				Code:      CodeInsufficientStock,
				ProductID: l.ProductID,
				Requested: l.Quantity,
				Available: snap[l.ProductID].Quantity,
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit checkout tx: %w", err)
	}

	return Result{
		OrderID:       ord.ID,
		SubtotalCents: totals.SubtotalCents,
		FeeCents:      totals.FeeCents,
		TotalCents:    totals.TotalCents,
	}, nil
}

func (s *Service) snapshot(ctx context.Context, tx pgx.Tx, propertyID string, lines []line) (map[string]inventory.Record, error) {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	snap, err := s.Inventory.SnapshotForUpdate(ctx, tx, propertyID, ids)
	if err != nil {
		return nil, fmt.Errorf("snapshot inventory: %w", err)
	}
	return snap, nil
}

// validateStock checks every line against the locked snapshot. No side
// effects; the first shortfall wins.
func validateStock(lines []line, snap map[string]inventory.Record) *Error {
	for _, l := range lines {
		rec, ok := snap[l.ProductID]
		if !ok {
			return &Error{Code: CodeProductNotFound, ProductID: l.ProductID}
		}
		if rec.Quantity < l.Quantity {
			return &Error{
				Code:      CodeInsufficientStock,
				ProductID: l.ProductID,
				Requested: l.Quantity,
				Available: rec.Quantity,
			}
		}
	}
	return nil
}

func (s *Service) logPriceMismatches(propertyID string, lines []line, snap map[string]inventory.Record) {
	if s.Logger == nil {
		return
	}
	for _, l := range lines {
		if rec, ok := snap[l.ProductID]; ok && rec.UnitPriceCents != l.PriceCents {
			s.Logger.Printf("price mismatch property=%s product=%s cart=%d inventory=%d",
				propertyID, l.ProductID, l.PriceCents, rec.UnitPriceCents)
		}
	}
}

func orderItems(lines []line) []order.Item {
	items := make([]order.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, order.Item{
			ProductID:      l.ProductID,
			Name:           l.Name,
			Quantity:       l.Quantity,
			UnitPriceCents: l.PriceCents,
		})
	}
	return items
}
