package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verkstad/shop-orders/internal/shop"
)

// DefaultTTL is how long a reservation holds stock before the sweeper may
// expire it.
const DefaultTTL = 10 * time.Minute

// Ledger gates orders against real-time availability and owns the
// reservation lifecycle. Available stock is product stock minus the sum of
// active, unexpired reservations; the permanent stock decrement only happens
// when a reservation is confirmed, so declined or abandoned payments never
// lose inventory.
type Ledger struct {
	DB    *pgxpool.Pool
	TTL   time.Duration
	Clock func() time.Time
}

func NewLedger(db *pgxpool.Pool, ttl time.Duration) *Ledger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Ledger{DB: db, TTL: ttl, Clock: time.Now}
}

// Available computes the sellable quantity for one product.
func (l *Ledger) Available(ctx context.Context, productID string) (int, error) {
	var avail int
	err := l.DB.QueryRow(ctx, `
		SELECT p.stock - COALESCE((
			SELECT SUM(r.quantity) FROM stock_reservations r
			WHERE r.product_id = p.id AND r.status = 'active' AND r.expires_at > $2
		), 0)
		FROM products p WHERE p.id = $1`,
		productID, l.Clock().UTC()).Scan(&avail)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, &shop.ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return 0, err
	}
	return avail, nil
}

// Reserve places an active reservation per cart line inside one transaction.
// Each product row is locked before availability is computed, so two
// concurrent reservations for the same product serialize and can never
// jointly exceed its stock. Any shortfall aborts the transaction, which also
// rolls back reservations already written for earlier lines; no partial set
// survives.
func (l *Ledger) Reserve(ctx context.Context, orderID string, items []shop.CartLine) ([]shop.StockReservation, error) {
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := l.Clock().UTC()
	expires := now.Add(l.TTL)

	out := make([]shop.StockReservation, 0, len(items))
	for _, it := range items {
		var stock int
		err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, it.ProductID).Scan(&stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &shop.ProductNotFoundError{ProductID: it.ProductID}
		}
		if err != nil {
			return nil, err
		}

		var reserved int
		err = tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(quantity), 0) FROM stock_reservations
			WHERE product_id=$1 AND status='active' AND expires_at > $2`,
			it.ProductID, now).Scan(&reserved)
		if err != nil {
			return nil, err
		}

		if avail := stock - reserved; avail < it.Quantity {
			return nil, &shop.InsufficientStockError{
				ProductID: it.ProductID,
				Requested: it.Quantity,
				Available: avail,
			}
		}

		res := shop.StockReservation{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Status:    shop.ReservationActive,
			CreatedAt: now,
			ExpiresAt: expires,
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO stock_reservations (id, order_id, product_id, quantity, status, created_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			res.ID, res.OrderID, res.ProductID, res.Quantity, res.Status, res.CreatedAt, res.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// ConfirmOrder marks the order's active reservations confirmed and applies
// the permanent stock decrement. Transitions are guarded on status='active',
// so a reservation that is already confirmed, cancelled or expired is left
// untouched and nothing is decremented twice; repeated payment callbacks are
// therefore harmless.
func (l *Ledger) ConfirmOrder(ctx context.Context, orderID string) error {
	return l.confirm(ctx, `
		UPDATE stock_reservations SET status='confirmed'
		WHERE order_id=$1 AND status='active'
		RETURNING id, product_id, quantity`, orderID)
}

// Confirm is the per-reservation variant of ConfirmOrder.
func (l *Ledger) Confirm(ctx context.Context, ids []string) error {
	return l.confirm(ctx, `
		UPDATE stock_reservations SET status='confirmed'
		WHERE id = ANY($1) AND status='active'
		RETURNING id, product_id, quantity`, ids)
}

func (l *Ledger) confirm(ctx context.Context, sql string, arg any) error {
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, sql, arg)
	if err != nil {
		return err
	}
	type line struct {
		id, productID string
		qty           int
	}
	var confirmed []line
	for rows.Next() {
		var ln line
		if err := rows.Scan(&ln.id, &ln.productID, &ln.qty); err != nil {
			rows.Close()
			return err
		}
		confirmed = append(confirmed, ln)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, ln := range confirmed {
		ct, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = now()
			WHERE id=$1 AND stock >= $2`, ln.productID, ln.qty)
		if err != nil {
			return err
		}
		if ct.RowsAffected() != 1 {
			// Active reservations should never exceed stock; abort so the
			// transition rolls back along with any partial decrements.
			return fmt.Errorf("confirm reservation %s: stock underflow on product %s", ln.id, ln.productID)
		}
	}

	return tx.Commit(ctx)
}

// CancelOrder releases the order's active reservations without touching
// stock. Already-terminal reservations stay as they are, so a late cancel
// can never undo a confirm.
func (l *Ledger) CancelOrder(ctx context.Context, orderID string) (int64, error) {
	ct, err := l.DB.Exec(ctx, `
		UPDATE stock_reservations SET status='cancelled'
		WHERE order_id=$1 AND status='active'`, orderID)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// Cancel is the per-reservation variant of CancelOrder.
func (l *Ledger) Cancel(ctx context.Context, ids []string) (int64, error) {
	ct, err := l.DB.Exec(ctx, `
		UPDATE stock_reservations SET status='cancelled'
		WHERE id = ANY($1) AND status='active'`, ids)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// ConfirmedCount reports how many of an order's reservations are confirmed.
func (l *Ledger) ConfirmedCount(ctx context.Context, orderID string) (int64, error) {
	var n int64
	err := l.DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM stock_reservations
		WHERE order_id=$1 AND status='confirmed'`, orderID).Scan(&n)
	return n, err
}

// CleanupExpired sweeps overdue active reservations into the expired state
// and returns how many were swept. Stock is untouched; the hold simply stops
// counting against availability.
func (l *Ledger) CleanupExpired(ctx context.Context) (int64, error) {
	ct, err := l.DB.Exec(ctx, `
		UPDATE stock_reservations SET status='expired'
		WHERE status='active' AND expires_at < $1`, l.Clock().UTC())
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// ListByOrder returns all reservations tied to an order, newest first.
func (l *Ledger) ListByOrder(ctx context.Context, orderID string) ([]shop.StockReservation, error) {
	rows, err := l.DB.Query(ctx, `
		SELECT id, order_id, product_id, quantity, status, created_at, expires_at
		FROM stock_reservations WHERE order_id=$1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []shop.StockReservation
	for rows.Next() {
		var r shop.StockReservation
		if err := rows.Scan(&r.ID, &r.OrderID, &r.ProductID, &r.Quantity, &r.Status, &r.CreatedAt, &r.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
