package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

const defaultListLimit = 50

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const productColumns = `id, sku, handle, name, description, category, brand, base_price::text, status, created_at, updated_at`

func scanProduct(row pgx.Row, p *domain.Product) error {
	return row.Scan(&p.ID, &p.SKU, &p.Handle, &p.Name, &p.Description, &p.Category, &p.Brand, &p.BasePrice, &p.Status, &p.CreatedAt, &p.UpdatedAt)
}

func (r *postgresRepo) List(ctx context.Context, f domain.ProductFilters) ([]domain.Product, int, error) {
	where, args := listConditions(f)

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	q := fmt.Sprintf(`
SELECT %s, COUNT(*) OVER()
FROM products p
%s
ORDER BY p.created_at DESC, p.id DESC
LIMIT $%d OFFSET $%d
`, prefixed(productColumns, "p."), where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, 0, err
	}
	defer rows.Close()

	var (
		result []domain.Product
		total  int
	)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Handle, &p.Name, &p.Description, &p.Category, &p.Brand, &p.BasePrice, &p.Status, &p.CreatedAt, &p.UpdatedAt, &total); err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, 0, err
	}

	if err := r.attachVariants(ctx, result); err != nil {
		return nil, 0, err
	}
	r.logger.Printf("product repo: list count=%d total=%d", len(result), total)
	return result, total, nil
}

// listConditions builds the WHERE clause for List. Style has no column in
// the local catalog and is ignored.
func listConditions(f domain.ProductFilters) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.IncludeDeleted {
		conds = append(conds, "p.deleted_at IS NULL")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		ph := arg("%" + s + "%")
		conds = append(conds, fmt.Sprintf("(p.name ILIKE %s OR p.sku ILIKE %s OR p.description ILIKE %s)", ph, ph, ph))
	}
	if len(f.Category) > 0 {
		conds = append(conds, "p.category = ANY("+arg(f.Category)+")")
	}
	if len(f.Brand) > 0 {
		conds = append(conds, "p.brand = ANY("+arg(f.Brand)+")")
	}
	if len(f.Status) > 0 {
		conds = append(conds, "p.status = ANY("+arg(f.Status)+")")
	}
	if f.MinPrice > 0 {
		conds = append(conds, "p.base_price >= "+arg(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		conds = append(conds, "p.base_price <= "+arg(f.MaxPrice))
	}
	if len(f.Color) > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = p.id AND v.color = ANY("+arg(f.Color)+"))")
	}
	if len(f.Size) > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = p.id AND v.size = ANY("+arg(f.Size)+"))")
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func prefixed(columns, prefix string) string {
	parts := strings.Split(columns, ", ")
	for i, c := range parts {
		parts[i] = prefix + c
	}
	return strings.Join(parts, ", ")
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p domain.Product
	if err := scanProduct(r.pool.QueryRow(ctx, q, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("product repo: get id=%d not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%d error=%v", id, err)
		return nil, err
	}
	products := []domain.Product{p}
	if err := r.attachVariants(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

func (r *postgresRepo) GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id`

	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachVariants(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) attachVariants(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int64, len(products))
	pos := make(map[int64]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		pos[p.ID] = i
		products[i].Variants = []domain.ProductVariant{}
	}

	const q = `
SELECT id, product_id, sku, name, size, color, price::text, COALESCE(weight, ''), dimensions, images, created_at, updated_at
FROM product_variants
WHERE product_id = ANY($1)
ORDER BY product_id, id
`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("load variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			v      domain.ProductVariant
			images []byte
		)
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Size, &v.Color, &v.Price, &v.Weight, &v.Dimensions, &images, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return err
		}
		if err := json.Unmarshal(images, &v.Images); err != nil {
			return fmt.Errorf("decode images for variant %d: %w", v.ID, err)
		}
		i := pos[v.ProductID]
		products[i].Variants = append(products[i].Variants, v)
	}
	return rows.Err()
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO products (sku, handle, name, description, category, brand, base_price, status)
VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8)
ON CONFLICT (sku) DO UPDATE SET
    handle = EXCLUDED.handle,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    category = EXCLUDED.category,
    brand = EXCLUDED.brand,
    base_price = EXCLUDED.base_price,
    status = EXCLUDED.status,
    deleted_at = NULL,
    updated_at = now()
RETURNING id, created_at, updated_at
`
	res := product
	err = tx.QueryRow(ctx, q,
		product.SKU,
		product.Handle,
		product.Name,
		product.Description,
		product.Category,
		product.Brand,
		numericOrZero(product.BasePrice),
		statusOrDefault(product.Status),
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		r.logger.Printf("product repo: upsert sku=%s error=%v", product.SKU, err)
		return nil, err
	}
	res.Status = statusOrDefault(product.Status)

	const vq = `
INSERT INTO product_variants (product_id, sku, name, size, color, price, weight, dimensions, images)
VALUES ($1, $2, $3, $4, $5, $6::numeric, NULLIF($7, ''), $8, $9::jsonb)
ON CONFLICT (sku) DO UPDATE SET
    product_id = EXCLUDED.product_id,
    name = EXCLUDED.name,
    size = EXCLUDED.size,
    color = EXCLUDED.color,
    price = EXCLUDED.price,
    weight = EXCLUDED.weight,
    dimensions = EXCLUDED.dimensions,
    images = EXCLUDED.images,
    updated_at = now()
RETURNING id, created_at, updated_at
`
	res.Variants = make([]domain.ProductVariant, 0, len(product.Variants))
	for _, v := range product.Variants {
		images := v.Images
		if images == nil {
			images = []interface{}{}
		}
		imagesJSON, err := json.Marshal(images)
		if err != nil {
			return nil, fmt.Errorf("encode images for %s: %w", v.SKU, err)
		}
		v.ProductID = res.ID
		v.Images = images
		if err := tx.QueryRow(ctx, vq, res.ID, v.SKU, v.Name, v.Size, v.Color, numericOrZero(v.Price), v.Weight, v.Dimensions, string(imagesJSON)).
			Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt); err != nil {
			r.logger.Printf("product repo: upsert variant sku=%s error=%v", v.SKU, err)
			return nil, err
		}
		res.Variants = append(res.Variants, v)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("product repo: upserted sku=%s id=%d variants=%d", res.SKU, res.ID, len(res.Variants))
	return &res, nil
}

func numericOrZero(s string) string {
	if strings.TrimSpace(s) == "" {
		return "0"
	}
	return strings.TrimSpace(s)
}

func statusOrDefault(s string) string {
	if s == "" {
		return "active"
	}
	return s
}
