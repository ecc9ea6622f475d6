// Package store persists normalized catalog records into Postgres.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Aurelien-L/bookcrawler/internal/catalog"
)

// Config controls the Postgres connection pool behind a Writer.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// PgxPool is the subset of pgxpool.Pool the writer uses.
// pgxmock satisfies it in tests.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Writer ingests records one transaction at a time. Each Save acquires its
// own pooled connection, so concurrent callers need no external locking;
// category insert races resolve through the name uniqueness upsert.
type Writer struct {
	pool   PgxPool
	logger *zap.Logger
}

// NewWriter connects a pool with the provided config and pings it to make
// sure the database is reachable before the first record arrives.
func NewWriter(ctx context.Context, cfg Config, logger *zap.Logger) (*Writer, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Writer{pool: pool, logger: logger}, nil
}

// NewWriterWithPool constructs a Writer from an existing pool (primarily
// for testing).
func NewWriterWithPool(pool PgxPool, logger *zap.Logger) (*Writer, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{pool: pool, logger: logger}, nil
}

const (
	upsertCategorySQL = `
INSERT INTO categories (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`

	upsertItemSQL = `
INSERT INTO items (external_id, title, description, category_id, rating)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (external_id) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	category_id = EXCLUDED.category_id,
	rating = EXCLUDED.rating
RETURNING id`

	insertStockSQL = `
INSERT INTO stock_records (item_id, price, availability, stock_count)
VALUES ($1, $2, $3, $4)`
)

// Save ingests one normalized record as a single atomic unit of work:
// category upsert, item upsert, stock insert, commit. On any failure the
// whole transaction rolls back and the error is returned to the caller;
// partial writes are never observable.
//
// Stock rows are append-only: every successful ingestion adds one, so
// repeated crawls accumulate price and stock history for an item while the
// category and item rows stay stable.
//
// It assumes a schema like:
//
//	CREATE TABLE categories (
//		id SERIAL PRIMARY KEY,
//		name TEXT NOT NULL UNIQUE
//	);
//
//	CREATE TABLE items (
//		id SERIAL PRIMARY KEY,
//		external_id TEXT NOT NULL UNIQUE,
//		title TEXT NOT NULL,
//		description TEXT,
//		category_id INTEGER NOT NULL REFERENCES categories (id),
//		rating INTEGER NOT NULL
//	);
//
//	CREATE TABLE stock_records (
//		id SERIAL PRIMARY KEY,
//		item_id INTEGER NOT NULL REFERENCES items (id),
//		price NUMERIC(10,2) NOT NULL,
//		availability TEXT NOT NULL,
//		stock_count INTEGER NOT NULL,
//		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
func (w *Writer) Save(ctx context.Context, rec catalog.Record) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ingest transaction: %w", err)
	}
	defer func() {
		// No-op once the transaction is committed.
		_ = tx.Rollback(ctx)
	}()

	var categoryID int64
	if err := tx.QueryRow(ctx, upsertCategorySQL, rec.Category).Scan(&categoryID); err != nil {
		return fmt.Errorf("upsert category %q: %w", rec.Category, err)
	}

	var itemID int64
	if err := tx.QueryRow(ctx, upsertItemSQL,
		rec.ExternalID,
		rec.Title,
		rec.Description,
		categoryID,
		rec.Rating,
	).Scan(&itemID); err != nil {
		return fmt.Errorf("upsert item %q: %w", rec.ExternalID, err)
	}

	if _, err := tx.Exec(ctx, insertStockSQL,
		itemID,
		rec.Price,
		string(rec.Availability),
		rec.StockCount,
	); err != nil {
		return fmt.Errorf("insert stock record for item %q: %w", rec.ExternalID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ingest transaction: %w", err)
	}

	w.logger.Debug("record persisted",
		zap.String("external_id", rec.ExternalID),
		zap.Int64("item_id", itemID),
		zap.Int64("category_id", categoryID),
	)
	return nil
}

// Ping reports whether the database is reachable.
func (w *Writer) Ping(ctx context.Context) error {
	return w.pool.Ping(ctx)
}

// Close releases the underlying pool resources.
func (w *Writer) Close() {
	if w == nil || w.pool == nil {
		return
	}
	w.pool.Close()
}
