package cart

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ariefcatur/glam-orders/internal/catalog"
)

// Wishlist is an ordered set of products with the same write-through
// contract as Cart.
type Wishlist struct {
	mu    sync.Mutex
	key   string
	store Store
	items []catalog.Product
}

func LoadWishlist(ctx context.Context, store Store, key string, log *slog.Logger) (*Wishlist, error) {
	if log == nil {
		log = slog.Default()
	}
	items, err := loadJSON(ctx, store, key, validProducts, log)
	if err != nil {
		return nil, fmt.Errorf("load wishlist: %w", err)
	}
	return &Wishlist{key: key, store: store, items: items}, nil
}

func validProducts(ps []catalog.Product) bool {
	seen := make(map[string]bool, len(ps))
	for _, p := range ps {
		if p.ID == "" || seen[p.ID] {
			return false
		}
		seen[p.ID] = true
	}
	return true
}

// Add reports whether p was newly added.
func (w *Wishlist) Add(ctx context.Context, p catalog.Product) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.indexOf(p.ID) >= 0 {
		return false, nil
	}
	next := append(slices.Clone(w.items), p.Clone())
	if err := w.save(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

func (w *Wishlist) Remove(ctx context.Context, productID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	next := slices.DeleteFunc(slices.Clone(w.items), func(p catalog.Product) bool {
		return p.ID == productID
	})
	return w.save(ctx, next)
}

func (w *Wishlist) Contains(productID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.indexOf(productID) >= 0
}

func (w *Wishlist) Items() []catalog.Product {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]catalog.Product, len(w.items))
	for i, p := range w.items {
		out[i] = p.Clone()
	}
	return out
}

func (w *Wishlist) Clear(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.save(ctx, []catalog.Product{})
}

func (w *Wishlist) indexOf(id string) int {
	return slices.IndexFunc(w.items, func(p catalog.Product) bool { return p.ID == id })
}

func (w *Wishlist) save(ctx context.Context, next []catalog.Product) error {
	if err := saveJSON(ctx, w.store, w.key, next); err != nil {
		return fmt.Errorf("save wishlist: %w", err)
	}
	w.items = next
	return nil
}
