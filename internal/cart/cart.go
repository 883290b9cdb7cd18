// Package cart implements the session cart and wishlist aggregates. Every
// mutation is written through to a Store before it returns.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ariefcatur/glam-orders/internal/catalog"
)

// MaxQuantity caps a single line so totals stay far from int64 overflow.
const MaxQuantity = 999

var (
	ErrInvalidQuantity = fmt.Errorf("quantity must be between 1 and %d", MaxQuantity)
	ErrItemNotFound    = errors.New("item not in cart")
)

type LineItem struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Total is price × quantity in minor units.
func (li LineItem) Total() int64 {
	return li.Product.Price * int64(li.Quantity)
}

// CloneItems deep-copies line items, product images included.
func CloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, it := range items {
		out[i] = LineItem{Product: it.Product.Clone(), Quantity: it.Quantity}
	}
	return out
}

// Subtotal sums line totals using integer arithmetic only.
func Subtotal(items []LineItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Total()
	}
	return total
}

// Cart is safe for concurrent use. Two Carts loaded from the same key do not
// coordinate; the last save wins.
type Cart struct {
	mu    sync.Mutex
	key   string
	store Store
	log   *slog.Logger
	items []LineItem
}

// Load restores the cart stored under key, or an empty cart when nothing
// usable is stored there.
func Load(ctx context.Context, store Store, key string, log *slog.Logger) (*Cart, error) {
	if log == nil {
		log = slog.Default()
	}
	items, err := loadJSON(ctx, store, key, validItems, log)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &Cart{key: key, store: store, log: log, items: items}, nil
}

func validItems(items []LineItem) bool {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.Quantity < 1 || it.Quantity > MaxQuantity || it.Product.ID == "" || seen[it.Product.ID] {
			return false
		}
		seen[it.Product.ID] = true
	}
	return true
}

func (c *Cart) AddItem(ctx context.Context, p catalog.Product, quantity int) error {
	if quantity <= 0 || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	return c.mutate(ctx, func(items []LineItem) ([]LineItem, error) {
		if i := indexOf(items, p.ID); i >= 0 {
			if items[i].Quantity > MaxQuantity-quantity {
				return nil, ErrInvalidQuantity
			}
			items[i].Quantity += quantity
			return items, nil
		}
		return append(items, LineItem{Product: p.Clone(), Quantity: quantity}), nil
	})
}

// RemoveItem is a no-op when productID is not in the cart.
func (c *Cart) RemoveItem(ctx context.Context, productID string) error {
	return c.mutate(ctx, func(items []LineItem) ([]LineItem, error) {
		return without(items, productID), nil
	})
}

// SetQuantity removes the line when quantity <= 0 and returns ErrItemNotFound
// for a product that is not in the cart. Quantities above MaxQuantity are
// rejected.
func (c *Cart) SetQuantity(ctx context.Context, productID string, quantity int) error {
	return c.mutate(ctx, func(items []LineItem) ([]LineItem, error) {
		i := indexOf(items, productID)
		if i < 0 {
			return nil, ErrItemNotFound
		}
		if quantity <= 0 {
			return without(items, productID), nil
		}
		if quantity > MaxQuantity {
			return nil, ErrInvalidQuantity
		}
		items[i].Quantity = quantity
		return items, nil
	})
}

func (c *Cart) Clear(ctx context.Context) error {
	return c.mutate(ctx, func([]LineItem) ([]LineItem, error) {
		return nil, nil
	})
}

func (c *Cart) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Subtotal(c.items)
}

func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Items returns a deep copy of the line items.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CloneItems(c.items)
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

// mutate applies fn to a copy of the items and only adopts the result once
// it has been saved.
func (c *Cart) mutate(ctx context.Context, fn func([]LineItem) ([]LineItem, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fn(CloneItems(c.items))
	if err != nil {
		return err
	}
	if next == nil {
		next = []LineItem{}
	}
	if err := saveJSON(ctx, c.store, c.key, next); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	c.items = next
	return nil
}

func indexOf(items []LineItem, productID string) int {
	for i, it := range items {
		if it.Product.ID == productID {
			return i
		}
	}
	return -1
}

func without(items []LineItem, productID string) []LineItem {
	out := items[:0]
	for _, it := range items {
		if it.Product.ID != productID {
			out = append(out, it)
		}
	}
	return out
}
