// Package repository provides the Postgres and in-memory catalog stores.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"funnel_backend/internal/catalog/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `sku, name, description, collection, price::float8, qty, in_stock, version, updated_at`

// Repo implements the catalog stores on Postgres. The version column is the
// optimistic concurrency token.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var (
	_ domain.ProductStore = (*Repo)(nil)
	_ domain.FactStore    = (*Repo)(nil)
	_ domain.StockWriter  = (*Repo)(nil)
)

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.SKU, &p.Name, &p.Description, &p.Collection, &p.Price, &p.Qty, &p.InStock, &p.Version, &p.UpdatedAt)
	return p, err
}

func scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()
	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) GetBySKU(ctx context.Context, sku string) (domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *Repo) FindProduct(ctx context.Context, identifier string) (domain.Product, error) {
	needle := strings.TrimSpace(identifier)
	if needle == "" {
		return domain.Product{}, domain.ErrProductNotFound
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE sku = $1
		   OR lower(name) = lower($1)
		   OR name ILIKE '%' || $1 || '%'
		   OR name ILIKE '%' || $2 || '%'
		ORDER BY (sku = $1) DESC, (lower(name) = lower($1)) DESC, in_stock DESC, length(name), sku
		LIMIT 1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, needle, domain.SingularPhrase(needle)))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("find product: %w", err)
	}

	terms := domain.SearchTerms(needle)
	if len(terms) == 0 {
		return domain.Product{}, domain.ErrProductNotFound
	}
	p, err = scanProduct(r.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products p
		WHERE NOT EXISTS (SELECT 1 FROM unnest($1::text[]) t WHERE p.name NOT ILIKE '%' || t || '%')
		ORDER BY in_stock DESC, length(name), sku
		LIMIT 1`, terms))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("find product by terms: %w", err)
	}
	return p, nil
}

// DebitStock applies the conditioned write. When no row is updated it reads
// the current row to tell a version conflict from a shortfall.
func (r *Repo) DebitStock(ctx context.Context, sku string, qty int, expectedVersion int64) (domain.Product, error) {
	query := `
		UPDATE products
		SET qty = qty - $2,
			in_stock = (qty - $2) > 0,
			version = version + 1,
			updated_at = now()
		WHERE sku = $1 AND version = $3 AND qty >= $2
		RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, query, sku, qty, expectedVersion))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("debit stock: %w", err)
	}

	current, err := r.GetBySKU(ctx, sku)
	if err != nil {
		return domain.Product{}, err
	}
	if current.Version != expectedVersion {
		return domain.Product{}, domain.ErrVersionConflict
	}
	return domain.Product{}, domain.ErrInsufficientStock
}

func (r *Repo) QueryByCollection(ctx context.Context, q domain.CollectionQuery) (domain.ProductPage, error) {
	names := make([]string, len(q.Names))
	for i, n := range q.Names {
		names[i] = strings.ToLower(strings.TrimSpace(n))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`, count(*) OVER () AS total
		FROM products
		WHERE lower(collection) = ANY($1) AND (NOT $2 OR qty > 0)
		ORDER BY name
		OFFSET $3 LIMIT $4`, names, q.InStockOnly, q.Offset, limit)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("query collection: %w", err)
	}
	defer rows.Close()

	var page domain.ProductPage
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.SKU, &p.Name, &p.Description, &p.Collection, &p.Price, &p.Qty, &p.InStock, &p.Version, &p.UpdatedAt, &page.Total); err != nil {
			return domain.ProductPage{}, fmt.Errorf("scan collection: %w", err)
		}
		page.Items = append(page.Items, p)
	}
	if err := rows.Err(); err != nil {
		return domain.ProductPage{}, fmt.Errorf("query collection: %w", err)
	}
	if len(page.Items) == 0 && q.Offset > 0 {
		// count(*) OVER () is empty past the end; recount for the marker.
		if err := r.pool.QueryRow(ctx, `
			SELECT count(*) FROM products
			WHERE lower(collection) = ANY($1) AND (NOT $2 OR qty > 0)`, names, q.InStockOnly).Scan(&page.Total); err != nil {
			return domain.ProductPage{}, fmt.Errorf("count collection: %w", err)
		}
	}
	return page, nil
}

func (r *Repo) SearchProducts(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	terms := domain.SearchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM (
			SELECT p.*, (
				SELECT count(*) FROM unnest($1::text[]) t
				WHERE p.name ILIKE '%' || t || '%'
				   OR p.description ILIKE '%' || t || '%'
				   OR p.collection ILIKE '%' || t || '%'
				   OR p.sku ILIKE '%' || t || '%'
			) AS hits
			FROM products p
			WHERE p.qty > 0
		) ranked
		WHERE hits > 0
		ORDER BY hits DESC, name
		LIMIT $2`, terms, limit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return scanProducts(rows)
}

func (r *Repo) FindFact(ctx context.Context, factType string) (domain.Fact, error) {
	var f domain.Fact
	err := r.pool.QueryRow(ctx, `
		SELECT id, type, title, content, confidence
		FROM facts WHERE type = $1
		ORDER BY confidence DESC
		LIMIT 1`, factType).Scan(&f.ID, &f.Type, &f.Title, &f.Content, &f.Confidence)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Fact{}, domain.ErrFactNotFound
		}
		return domain.Fact{}, fmt.Errorf("find fact: %w", err)
	}
	return f, nil
}

func (r *Repo) SearchFacts(ctx context.Context, query string, limit int) ([]domain.Fact, error) {
	terms := domain.SearchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 3
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, type, title, content, confidence
		FROM (
			SELECT f.*, (
				SELECT count(*) FROM unnest($1::text[]) t
				WHERE f.title ILIKE '%' || t || '%' OR f.content ILIKE '%' || t || '%' OR f.type ILIKE '%' || t || '%'
			) AS hits
			FROM facts f
		) ranked
		WHERE hits > 0
		ORDER BY hits DESC, confidence DESC
		LIMIT $2`, terms, limit)
	if err != nil {
		return nil, fmt.Errorf("search facts: %w", err)
	}
	defer rows.Close()

	var out []domain.Fact
	for rows.Next() {
		var f domain.Fact
		if err := rows.Scan(&f.ID, &f.Type, &f.Title, &f.Content, &f.Confidence); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repo) UpsertProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	query := `
		INSERT INTO products (sku, name, description, collection, price, qty, in_stock, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6 > 0, 1, now())
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			collection = EXCLUDED.collection,
			price = EXCLUDED.price,
			qty = EXCLUDED.qty,
			in_stock = EXCLUDED.in_stock,
			version = products.version + 1,
			updated_at = now()
		RETURNING ` + productColumns

	out, err := scanProduct(r.pool.QueryRow(ctx, query, p.SKU, p.Name, p.Description, p.Collection, p.Price, p.Qty))
	if err != nil {
		return domain.Product{}, fmt.Errorf("upsert product: %w", err)
	}
	return out, nil
}

func (r *Repo) SetStock(ctx context.Context, sku string, qty int) (domain.Product, error) {
	query := `
		UPDATE products
		SET qty = $2, in_stock = $2 > 0, version = version + 1, updated_at = now()
		WHERE sku = $1
		RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, query, sku, qty))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("set stock: %w", err)
	}
	return p, nil
}

func (r *Repo) UpsertFact(ctx context.Context, f domain.Fact) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO facts (id, type, title, content, confidence)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type, title = EXCLUDED.title,
			content = EXCLUDED.content, confidence = EXCLUDED.confidence`,
		f.ID, f.Type, f.Title, f.Content, f.Confidence)
	if err != nil {
		return fmt.Errorf("upsert fact: %w", err)
	}
	return nil
}
