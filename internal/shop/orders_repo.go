package shop

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepo struct{ DB *pgxpool.Pool }

var ErrOrderNotFound = errors.New("order not found")

func (r *OrderRepo) Create(ctx context.Context, o *Order) error {
	info, err := json.Marshal(o.Information)
	if err != nil {
		return err
	}
	cart, err := json.Marshal(o.Cart)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx, `
		INSERT INTO orders (id, number, date, date_change, status, delivery, delivery_cost, information, cart)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.Number, o.Date, o.DateChange, o.Status, o.Delivery, o.DeliveryCost, info, cart)
	return err
}

const orderColumns = `id, number, date, date_change, status, delivery, delivery_cost,
	information, cart, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o          Order
		info, cart []byte
	)
	err := row.Scan(&o.ID, &o.Number, &o.Date, &o.DateChange, &o.Status, &o.Delivery,
		&o.DeliveryCost, &info, &cart, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(info, &o.Information); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cart, &o.Cart); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) Get(ctx context.Context, id string) (*Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

func (r *OrderRepo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE number=$1`, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

// ListByStatus reads off the orders status index, newest first.
func (r *OrderRepo) ListByStatus(ctx context.Context, status OrderStatus) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE status=$1 ORDER BY date DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// SetStatus applies a status transition guarded by the order state machine:
// the update only lands if the current status is one the machine allows into
// the target, so concurrent or repeated transitions degrade to no-ops.
// Returns whether a row was actually transitioned.
func (r *OrderRepo) SetStatus(ctx context.Context, id string, to OrderStatus, when time.Time) (bool, error) {
	froms := make([]string, 0, 2)
	for from, next := range orderNext {
		if next[to] {
			froms = append(froms, string(from))
		}
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$2, date_change=$3, updated_at=now()
		WHERE id=$1 AND status = ANY($4)`,
		id, to, when, froms)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
