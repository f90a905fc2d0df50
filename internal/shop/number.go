package shop

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NumberGenerator issues order numbers in the form YYMM.NNN, where NNN is a
// zero-padded sequence scoped to the calendar month. The sequence lives in a
// per-month counter row bumped in a single statement, so concurrent checkouts
// can never draw the same number.
type NumberGenerator struct {
	DB    *pgxpool.Pool
	Clock func() time.Time
}

func NewNumberGenerator(db *pgxpool.Pool) *NumberGenerator {
	return &NumberGenerator{DB: db, Clock: time.Now}
}

func (g *NumberGenerator) Next(ctx context.Context) (string, error) {
	key := MonthKey(g.Clock().UTC())
	var seq int
	err := g.DB.QueryRow(ctx, `
		INSERT INTO order_counters (month_key, seq) VALUES ($1, 1)
		ON CONFLICT (month_key) DO UPDATE SET seq = order_counters.seq + 1
		RETURNING seq`, key).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("next order number: %w", err)
	}
	return FormatNumber(key, seq), nil
}

// MonthKey returns the YYMM prefix for t.
func MonthKey(t time.Time) string { return t.Format("0601") }

// FormatNumber builds the order number for a month key and sequence value.
func FormatNumber(monthKey string, seq int) string {
	return fmt.Sprintf("%s.%03d", monthKey, seq)
}
