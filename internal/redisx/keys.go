package redisx

import "time"

const (
	// Cart blob per session: session:{session_id}:cart -> json line items
	KeyCart = "session:%s:cart"

	// Wishlist blob per session: session:{session_id}:wishlist -> json products
	KeyWishlist = "session:%s:wishlist"

	// In-flight checkout guard: idem:checkout:{user_id}:{idempotency_key}
	KeyCheckoutInFlight = "idem:checkout:%s:%s"
)

var (
	TTLCheckoutInFlight = 30 * time.Second
)
