package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/RaikyD/storefront-bff/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CartSnapshotRepository is a storage.Storage backed by Postgres. The value is
// kept as jsonb, so it must be valid JSON.
type CartSnapshotRepository struct {
	pool *pgxpool.Pool
}

func NewCartSnapshotRepository(p *pgxpool.Pool) *CartSnapshotRepository {
	return &CartSnapshotRepository{pool: p}
}

func (r *CartSnapshotRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx,
		`SELECT payload FROM storefront.cart_snapshots WHERE key = $1`, key,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select cart snapshot: %w", err)
	}
	return payload, nil
}

func (r *CartSnapshotRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO storefront.cart_snapshots (key, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
			SET payload = EXCLUDED.payload, updated_at = now()
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("upsert cart snapshot: %w", err)
	}
	return nil
}
