package orders

import (
	"encoding/json"
	"time"

	"github.com/ariefcatur/glam-orders/internal/cart"
	"github.com/google/uuid"
)

const (
	EventOrderPlaced           = "OrderPlaced"
	EventNotificationRequested = "NotificationRequested"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
	Price     int64  `json:"price"`
}

type OrderPlacedPayload struct {
	OrderID string    `json:"order_id"`
	UserID  string    `json:"user_id"`
	Items   []ItemQty `json:"items"`
	Total   int64     `json:"total"`
}

// NotificationRequestedPayload carries everything needed to re-send the
// operator email for an order whose first notification failed.
type NotificationRequestedPayload struct {
	OrderID string          `json:"order_id"`
	Address string          `json:"address"`
	Phone   string          `json:"phone"`
	Cart    []cart.LineItem `json:"cart"`
	Total   int64           `json:"total"`
	Reason  string          `json:"reason,omitempty"`
}

func PlacedPayload(o Order) OrderPlacedPayload {
	items := make([]ItemQty, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemQty{ProductID: it.Product.ID, Qty: it.Quantity, Price: it.Product.Price})
	}
	return OrderPlacedPayload{OrderID: o.ID, UserID: o.UserID, Items: items, Total: o.Total}
}

// NewEnvelope wraps payload as a version 1 event correlated to orderID.
func NewEnvelope(eventType, producer, orderID, traceID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       b,
	}, nil
}
