package cart

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Store is the durable byte store a session's cart and wishlist live in.
// Get returns (nil, nil) when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// loadJSON reads key and decodes it into a T. Absent, malformed or invalid
// state yields the zero T; only a failing store is reported as an error.
func loadJSON[T any](ctx context.Context, store Store, key string, valid func(T) bool, log *slog.Logger) (T, error) {
	var zero T
	b, err := store.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	if len(b) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		log.Warn("discarding malformed session state", "key", key, "error", err)
		return zero, nil
	}
	if !valid(v) {
		log.Warn("discarding invalid session state", "key", key)
		return zero, nil
	}
	return v, nil
}

func saveJSON(ctx context.Context, store Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return store.Put(ctx, key, b)
}
