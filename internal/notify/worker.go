package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkax "github.com/ariefcatur/glam-orders/internal/kafka"
	"github.com/ariefcatur/glam-orders/internal/orders"
	lru "github.com/hashicorp/golang-lru/v2"
	kafkago "github.com/segmentio/kafka-go"
)

// RetryWorker re-sends notifications that failed during checkout. It is
// installed as the handler of the retry topic consumer.
type RetryWorker struct {
	Dispatcher *Dispatcher
	Retry      RetryConfig
	Log        *slog.Logger

	seen *lru.Cache[string, struct{}]
}

func NewRetryWorker(d *Dispatcher, dedupSize int, log *slog.Logger) (*RetryWorker, error) {
	if dedupSize <= 0 {
		dedupSize = 1024
	}
	seen, err := lru.New[string, struct{}](dedupSize)
	if err != nil {
		return nil, err
	}
	return &RetryWorker{Dispatcher: d, Retry: DefaultRetryConfig(), Log: log, seen: seen}, nil
}

// HandleNotificationRequested returns an error only when the email could
// not be delivered, so the offset stays uncommitted.
func (w *RetryWorker) HandleNotificationRequested(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		w.Log.Warn("dropping undecodable message", "offset", m.Offset, "error", err)
		return nil
	}
	if env.EventType != orders.EventNotificationRequested {
		return nil
	}
	if w.seen.Contains(env.EventID) {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.NotificationRequestedPayload](env.Payload)
	if err != nil {
		w.Log.Warn("dropping malformed payload", "event_id", env.EventID, "error", err)
		return nil
	}

	res, err := retryWithBackoff(ctx, w.Retry, func() (MailResult, error) {
		return w.Dispatcher.Deliver(ctx, Payload{Address: p.Address, Phone: p.Phone, Cart: p.Cart, Total: p.Total})
	})
	if err != nil {
		return fmt.Errorf("order %s: %w", p.OrderID, err)
	}
	w.seen.Add(env.EventID, struct{}{})
	w.Log.Info("deferred order email sent", "order_id", p.OrderID, "mail_id", res.ID)
	return nil
}
