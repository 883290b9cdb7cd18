package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the PostgreSQL order store.
type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, user_id, items, total, delivery_fee, shipping_address, phone_number, status, idempotency_key, created_at`

// Create inserts o with status pending. It is idempotent per user via
// o.IdempotencyKey: when o.UserID already used the key, that user's stored
// order is returned with existed=true and nothing is written.
func (r *Repo) Create(ctx context.Context, o Order) (Order, bool, error) {
	if existing, err := r.byIdempotencyKey(ctx, o.UserID, o.IdempotencyKey); err == nil {
		return existing, true, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Order{}, false, err
	}

	items, err := EncodeItems(o.Items)
	if err != nil {
		return Order{}, false, err
	}
	o.ID = uuid.NewString()
	o.Status = StatusPending

	row := r.DB.QueryRow(ctx, `
		INSERT INTO orders(id, user_id, items, total, delivery_fee, shipping_address, phone_number, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, idempotency_key) DO NOTHING
		RETURNING created_at`,
		o.ID, o.UserID, string(items), o.Total, o.DeliveryFee, o.ShippingAddress, o.PhoneNumber, string(o.Status), o.IdempotencyKey,
	)
	if err := row.Scan(&o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// lost the race against a concurrent insert with the same key
			existing, gerr := r.byIdempotencyKey(ctx, o.UserID, o.IdempotencyKey)
			if gerr != nil {
				return Order{}, false, gerr
			}
			return existing, true, nil
		}
		return Order{}, false, err
	}
	return o, false, nil
}

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Order{}, ErrNotFound
	}
	return scanPG(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
}

// ListByUser returns the user's orders, newest first.
func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+`
		FROM orders WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanPG(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) byIdempotencyKey(ctx context.Context, userID, key string) (Order, error) {
	return scanPG(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 AND idempotency_key=$2`, userID, key))
}

func scanPG(row pgx.Row) (Order, error) {
	var (
		o      Order
		items  []byte
		status string
	)
	err := row.Scan(&o.ID, &o.UserID, &items, &o.Total, &o.DeliveryFee, &o.ShippingAddress, &o.PhoneNumber, &status, &o.IdempotencyKey, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	if o.Items, err = DecodeItems(items); err != nil {
		return Order{}, fmt.Errorf("order %s: %w", o.ID, err)
	}
	return o, nil
}
