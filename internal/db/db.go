package db

import (
	"context"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	config.ConnConfig.Tracer = otelpgx.NewTracer()

	return pgxpool.NewWithConfig(ctx, config)
}

// Execer is the subset of pgxpool.Pool used for schema bootstrap.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Schema creates the favorites table when the postgres backend is used.
// Mirrors the hosted favorite_recipes table so both backends share one row shape.
const Schema = `
CREATE TABLE IF NOT EXISTS favorite_recipes (
	id             BIGSERIAL PRIMARY KEY,
	user_id        TEXT        NOT NULL,
	recipe_name    TEXT        NOT NULL,
	description    TEXT        NOT NULL,
	cook_time      TEXT        NOT NULL,
	difficulty     TEXT        NOT NULL,
	ingredients    TEXT[]      NOT NULL,
	instructions   TEXT[]      NOT NULL,
	image_keywords TEXT        NOT NULL,
	image_url      TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, recipe_name)
);
CREATE INDEX IF NOT EXISTS favorite_recipes_user_id_idx ON favorite_recipes (user_id);
`

// EnsureSchema applies Schema. It is idempotent.
func EnsureSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply favorites schema: %w", err)
	}
	return nil
}
