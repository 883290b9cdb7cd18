package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id UUID PRIMARY KEY,
    user_id TEXT NOT NULL,
    items JSONB NOT NULL,
    total BIGINT NOT NULL CHECK (total >= 0),
    delivery_fee BIGINT NOT NULL DEFAULT 0,
    shipping_address TEXT NOT NULL CHECK (shipping_address <> ''),
    phone_number TEXT NOT NULL CHECK (phone_number <> ''),
    status TEXT NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'processing', 'delivered', 'cancelled')),
    idempotency_key TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
-- idempotency keys are client supplied, so they are only unique per user
ALTER TABLE orders DROP CONSTRAINT IF EXISTS orders_idempotency_key_key;
CREATE UNIQUE INDEX IF NOT EXISTS uq_orders_user_idempotency ON orders (user_id, idempotency_key);
CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders (user_id, created_at DESC);
`

// Migrate creates the orders schema when it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
