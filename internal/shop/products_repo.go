package shop

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepo struct{ DB *pgxpool.Pool }

const productColumns = `id, slug, category_slug, article, brand, title, subtitle,
	price, price_reduced, description, tag, idx, stock, max_order, image, images,
	status, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Slug, &p.CategorySlug, &p.Article, &p.Brand, &p.Title,
		&p.Subtitle, &p.Price, &p.PriceReduced, &p.Description, &p.Tag, &p.Index,
		&p.Stock, &p.MaxOrder, &p.Image, &p.Images, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetMany fetches the referenced products keyed by id. Missing ids are simply
// absent from the map; callers decide whether that is an error.
func (r *ProductRepo) GetMany(ctx context.Context, ids []string) (map[string]*Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// SetStatus toggles a product in or out of the sellable catalog.
func (r *ProductRepo) SetStatus(ctx context.Context, id string, status ProductStatus) error {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return &ProductNotFoundError{ProductID: id}
	}
	return nil
}

func (r *ProductRepo) List(ctx context.Context) ([]Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products ORDER BY idx, slug`)
}

// ListByStatus reads off the products status index.
func (r *ProductRepo) ListByStatus(ctx context.Context, status ProductStatus) ([]Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE status=$1 ORDER BY idx, slug`, status)
}

func (r *ProductRepo) list(ctx context.Context, sql string, args ...any) ([]Product, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
