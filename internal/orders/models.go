package orders

import (
	"errors"
	"time"

	"github.com/ariefcatur/glam-orders/internal/cart"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Order is immutable once persisted except for Status. Items is a deep copy
// of the cart at submission time and Total = subtotal(Items) + DeliveryFee.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []cart.LineItem `json:"items"`
	Total           int64           `json:"total"`
	DeliveryFee     int64           `json:"delivery_fee"`
	Status          Status          `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	PhoneNumber     string          `json:"phone_number"`
	IdempotencyKey  string          `json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Subtotal recomputes the items' sum without the delivery fee.
func (o Order) Subtotal() int64 {
	return cart.Subtotal(o.Items)
}

// SameRequest reports whether a and b order the same lines at the same
// prices for the same user and delivery details. A replayed idempotency key
// must match the stored order this way.
func SameRequest(a, b Order) bool {
	if a.UserID != b.UserID || a.ShippingAddress != b.ShippingAddress || a.PhoneNumber != b.PhoneNumber ||
		a.Total != b.Total || len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		x, y := a.Items[i], b.Items[i]
		if x.Product.ID != y.Product.ID || x.Product.Price != y.Product.Price || x.Quantity != y.Quantity {
			return false
		}
	}
	return true
}
