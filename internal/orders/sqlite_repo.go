package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/glam-orders/internal/sqlitedb"
	"github.com/google/uuid"
)

var sqliteMigrations = []sqlitedb.Migration{
	{
		Version: "1.0.0",
		Up: `
CREATE TABLE IF NOT EXISTS orders (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    items TEXT NOT NULL,
    total INTEGER NOT NULL CHECK (total >= 0),
    delivery_fee INTEGER NOT NULL DEFAULT 0,
    shipping_address TEXT NOT NULL CHECK (shipping_address <> ''),
    phone_number TEXT NOT NULL CHECK (phone_number <> ''),
    status TEXT NOT NULL DEFAULT 'pending',
    idempotency_key TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS uq_orders_user_idempotency ON orders(user_id, idempotency_key);
CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC);`,
	},
}

// SQLiteRepo is the embedded order store; same contract as Repo.
// created_at is stored as unix nanoseconds.
type SQLiteRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepo(ctx context.Context, db *sql.DB) (*SQLiteRepo, error) {
	if err := sqlitedb.Migrate(ctx, db, "orders", sqliteMigrations); err != nil {
		return nil, err
	}
	return &SQLiteRepo{db: db, now: time.Now}, nil
}

func (r *SQLiteRepo) Create(ctx context.Context, o Order) (Order, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, false, err
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := scanSQLite(tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = ? AND idempotency_key = ?`, o.UserID, o.IdempotencyKey))
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Order{}, false, err
	}

	items, err := EncodeItems(o.Items)
	if err != nil {
		return Order{}, false, err
	}
	o.ID = uuid.NewString()
	o.Status = StatusPending
	o.CreatedAt = r.now().UTC()
	ts := o.CreatedAt.UnixNano()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, items, total, delivery_fee, shipping_address, phone_number, status, idempotency_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, string(items), o.Total, o.DeliveryFee, o.ShippingAddress, o.PhoneNumber, string(o.Status), o.IdempotencyKey, ts, ts,
	); err != nil {
		return Order{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return Order{}, false, err
	}
	return o, false, nil
}

func (r *SQLiteRepo) Get(ctx context.Context, id string) (Order, error) {
	return scanSQLite(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
}

func (r *SQLiteRepo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+`
		FROM orders WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateStatus(ctx context.Context, id string, to Status) (Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var from string
	if err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, id).Scan(&from); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	if !CanTransition(Status(from), to) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		string(to), r.now().UTC().UnixNano(), id); err != nil {
		return Order{}, err
	}
	o, err := scanSQLite(tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err != nil {
		return Order{}, err
	}
	if err := tx.Commit(); err != nil {
		return Order{}, err
	}
	return o, nil
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row sqlScanner) (Order, error) {
	var (
		o      Order
		items  string
		status string
		ts     int64
	)
	err := row.Scan(&o.ID, &o.UserID, &items, &o.Total, &o.DeliveryFee, &o.ShippingAddress, &o.PhoneNumber, &status, &o.IdempotencyKey, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(strings.TrimSpace(status))
	o.CreatedAt = time.Unix(0, ts).UTC()
	if o.Items, err = DecodeItems([]byte(items)); err != nil {
		return Order{}, fmt.Errorf("order %s: %w", o.ID, err)
	}
	return o, nil
}
