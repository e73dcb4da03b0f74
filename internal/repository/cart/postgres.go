package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

// NewPostgres stores cart documents as JSONB rows in the carts table.
func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.Cart, error) {
	if !ValidID(id) {
		return nil, domain.ErrInvalidCartID
	}
	const q = `SELECT document FROM carts WHERE id = $1`

	var raw []byte
	if err := r.pool.QueryRow(ctx, q, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", id, err)
	}
	return &cart, nil
}

func (r *postgresRepo) Save(ctx context.Context, cart domain.Cart) error {
	if !ValidID(cart.ID) {
		return domain.ErrInvalidCartID
	}
	doc, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", cart.ID, err)
	}
	const q = `
INSERT INTO carts (id, document, created_at, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET document = EXCLUDED.document,
    updated_at = EXCLUDED.updated_at
`
	_, err = r.pool.Exec(ctx, q, cart.ID, doc, cart.CreatedAt, cart.UpdatedAt)
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	if !ValidID(id) {
		return domain.ErrInvalidCartID
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
