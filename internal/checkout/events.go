package checkout

import (
	"context"
	"fmt"
	"time"

	kafkax "github.com/ariefcatur/glam-orders/internal/kafka"
	"github.com/ariefcatur/glam-orders/internal/orders"
	"github.com/ariefcatur/glam-orders/internal/redisx"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafkago.Header) error
}

// KafkaEvents publishes OrderPlaced to the placed topic and
// NotificationRequested to the retry topic, both keyed by order id.
type KafkaEvents struct {
	Placed  Publisher
	Retry   Publisher
	Service string
}

func (e *KafkaEvents) OrderPlaced(ctx context.Context, o orders.Order) error {
	return e.publish(ctx, e.Placed, orders.EventOrderPlaced, o.ID, orders.PlacedPayload(o))
}

func (e *KafkaEvents) NotificationDeferred(ctx context.Context, o orders.Order, cause error) error {
	p := orders.NotificationRequestedPayload{
		OrderID: o.ID,
		Address: o.ShippingAddress,
		Phone:   o.PhoneNumber,
		Cart:    o.Items,
		Total:   o.Total,
	}
	if cause != nil {
		p.Reason = cause.Error()
	}
	return e.publish(ctx, e.Retry, orders.EventNotificationRequested, o.ID, p)
}

func (e *KafkaEvents) publish(ctx context.Context, p Publisher, eventType, orderID string, payload any) error {
	env, err := orders.NewEnvelope(eventType, e.Service, orderID, middleware.GetReqID(ctx), payload)
	if err != nil {
		return fmt.Errorf("%s envelope: %w", eventType, err)
	}
	// the request may already be cancelled; the event must still be queued
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	return p.Publish(ctx, orders.PartitionKey(orderID), kafkax.MustMarshal(env), kafkax.EventHeaders(eventType, env.EventVersion)...)
}

// RedisGuard holds idem:checkout:{user}:{key} for the duration of an attempt.
type RedisGuard struct {
	RDB redis.Cmdable
	TTL time.Duration
}

func (g *RedisGuard) Acquire(ctx context.Context, userID, key string) (bool, error) {
	ttl := g.TTL
	if ttl <= 0 {
		ttl = redisx.TTLCheckoutInFlight
	}
	return redisx.Acquire(ctx, g.RDB, fmt.Sprintf(redisx.KeyCheckoutInFlight, userID, key), time.Now().UTC().Format(time.RFC3339), ttl)
}

func (g *RedisGuard) Release(ctx context.Context, userID, key string) error {
	return g.RDB.Del(ctx, fmt.Sprintf(redisx.KeyCheckoutInFlight, userID, key)).Err()
}
