// Package store persists per-template default mappings. Two implementations
// exist: Postgres for shared deployments and Memory for single-process use
// and tests. Both satisfy engine.MappingStore.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zilohq/catalog-transform/internal/engine"
)

// bootstrapSQL creates the mappings table on first start. The payload is the
// whole Defaults value object as JSONB; the engine never depends on the
// stored shape beyond its own JSON encoding.
const bootstrapSQL = `
CREATE TABLE IF NOT EXISTS default_mappings (
	template_key text PRIMARY KEY,
	id           uuid NOT NULL,
	payload      jsonb NOT NULL,
	updated_at   timestamptz NOT NULL DEFAULT now()
)`

// Postgres stores defaults in a PostgreSQL table. Writes are single-statement
// upserts, so concurrent saves to the same template key serialize at the
// database and the last write wins; a partially written payload is never
// observable.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres verifies the connection and bootstraps the schema.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, bootstrapSQL); err != nil {
		return nil, fmt.Errorf("bootstrap default_mappings: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// GetDefaults returns the saved defaults for a template key.
func (p *Postgres) GetDefaults(ctx context.Context, templateKey string) (engine.Defaults, bool, error) {
	var payload []byte
	err := p.pool.QueryRow(ctx,
		`SELECT payload FROM default_mappings WHERE template_key = $1`,
		templateKey,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return engine.Defaults{}, false, nil
	}
	if err != nil {
		return engine.Defaults{}, false, fmt.Errorf("get defaults for %s: %w", templateKey, err)
	}

	var d engine.Defaults
	if err := json.Unmarshal(payload, &d); err != nil {
		return engine.Defaults{}, false, fmt.Errorf("decode defaults for %s: %w", templateKey, err)
	}
	return d, true, nil
}

// PutDefaults upserts the defaults for a template key.
func (p *Postgres) PutDefaults(ctx context.Context, templateKey string, d engine.Defaults) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode defaults for %s: %w", templateKey, err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO default_mappings (template_key, id, payload, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (template_key)
		 DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		templateKey, uuid.New(), payload,
	)
	if err != nil {
		return fmt.Errorf("save defaults for %s: %w", templateKey, err)
	}
	return nil
}
