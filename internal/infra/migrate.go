package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS listings (
        collection TEXT NOT NULL,
        token_id BIGINT NOT NULL CHECK (token_id >= 0),
        seller TEXT NOT NULL,
        price BIGINT NOT NULL CHECK (price > 0),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (collection, token_id)
    )`,
	`CREATE TABLE IF NOT EXISTS proceeds (
        seller TEXT PRIMARY KEY,
        amount BIGINT NOT NULL DEFAULT 0 CHECK (amount >= 0)
    )`,
	`CREATE TABLE IF NOT EXISTS participants (
        id UUID PRIMARY KEY,
        address TEXT NOT NULL UNIQUE,
        passphrase_hash BYTEA NOT NULL,
        token_version INT NOT NULL DEFAULT 0,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS listings_seller_idx ON listings (seller)`,
}

// Migrate creates the marketplace tables when they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for i, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i, err)
		}
	}
	return tx.Commit(ctx)
}
