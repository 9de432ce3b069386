package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS pos_sales (
	id              BIGSERIAL PRIMARY KEY,
	cart_id         TEXT NOT NULL UNIQUE,
	sale_id         TEXT NOT NULL DEFAULT '',
	operator        TEXT NOT NULL DEFAULT '',
	payment_method  TEXT NOT NULL,
	discount        NUMERIC(5,2) NOT NULL DEFAULT 0,
	subtotal        NUMERIC(14,2) NOT NULL,
	discount_amount NUMERIC(14,2) NOT NULL,
	total           NUMERIC(14,2) NOT NULL,
	total_profit    NUMERIC(14,2) NOT NULL,
	total_items     INTEGER NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS pos_sale_items (
	id           BIGSERIAL PRIMARY KEY,
	entry_id     BIGINT NOT NULL REFERENCES pos_sales(id) ON DELETE CASCADE,
	product_id   TEXT NOT NULL,
	product_name TEXT NOT NULL,
	quantity     INTEGER NOT NULL CHECK (quantity > 0),
	unit_price   NUMERIC(14,2) NOT NULL,
	cost_price   NUMERIC(14,2) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pos_sales_created_at ON pos_sales (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_pos_sale_items_entry ON pos_sale_items (entry_id);
`

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Migrate creates the journal tables when missing
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Ping checks connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}
