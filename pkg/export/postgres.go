package export

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hwanjo/gsshop-catalog-client/pkg/normalize"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS catalog_products (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	price        BIGINT NOT NULL DEFAULT 0,
	discount     BIGINT NOT NULL DEFAULT 0,
	detail_url   TEXT NOT NULL DEFAULT '',
	image_url    TEXT NOT NULL DEFAULT '',
	collected_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertSQL = `
INSERT INTO catalog_products (id, name, price, discount, detail_url, image_url, collected_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	price = EXCLUDED.price,
	discount = EXCLUDED.discount,
	detail_url = EXCLUDED.detail_url,
	image_url = EXCLUDED.image_url,
	collected_at = EXCLUDED.collected_at`

// PostgresSink writes the collection into a catalog_products table,
// upserting by product identifier.
type PostgresSink struct {
	conn *pgx.Conn
}

// NewPostgresSink connects to dsn and ensures the target table exists.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if _, err := conn.Exec(ctx, createTableSQL); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("ensure catalog_products table: %w", err)
	}

	return &PostgresSink{conn: conn}, nil
}

// Save upserts the full collection in one batch round trip.
func (s *PostgresSink) Save(ctx context.Context, products []normalize.Product) error {
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(upsertSQL, p.ID, p.Name, p.Price, p.Discount, p.URL, p.Image)
	}

	results := s.conn.SendBatch(ctx, batch)
	defer results.Close()

	for range products {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert product batch: %w", err)
		}
	}

	return results.Close()
}

// Close releases the database connection.
func (s *PostgresSink) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}
