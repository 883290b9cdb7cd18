// Package notify is the order notification side effect: the client the
// checkout uses to reach the notification function, the function itself
// (render + mail), and the retry worker fed from Kafka.
package notify

import (
	"context"
	"encoding/json"

	"github.com/ariefcatur/glam-orders/internal/cart"
)

// Payload is the body of a notification request.
type Payload struct {
	Address string          `json:"address"`
	Phone   string          `json:"phone"`
	Cart    []cart.LineItem `json:"cart"`
	Total   int64           `json:"total"`
}

// Result is the decoded success response of the notification function.
type Result struct {
	Body json.RawMessage
}

// Sender delivers one notification. A non-nil error means the attempt
// failed; callers treat it as final.
type Sender interface {
	Send(ctx context.Context, p Payload) (Result, error)
}
