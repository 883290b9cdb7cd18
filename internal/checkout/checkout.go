// Package checkout turns a session cart into a persisted order.
//
// An attempt moves Idle -> ValidatingPreconditions -> Persisting ->
// NotifyingBestEffort -> Completed, or ends in Aborted from validation or
// persistence. Persisting is the commit point: once the order is stored the
// attempt completes even if the notification fails. The two remote steps are
// not atomic; a failed notification is handed to the retry topic.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ariefcatur/glam-orders/internal/auth"
	"github.com/ariefcatur/glam-orders/internal/cart"
	"github.com/ariefcatur/glam-orders/internal/notify"
	"github.com/ariefcatur/glam-orders/internal/orders"
	"github.com/google/uuid"
)

type State string

const (
	StateIdle                    State = "idle"
	StateValidatingPreconditions State = "validating_preconditions"
	StatePersisting              State = "persisting"
	StateNotifyingBestEffort     State = "notifying_best_effort"
	StateCompleted               State = "completed"
	StateAborted                 State = "aborted"
)

// DeliveryFee is the flat fee in minor units charged on any non-empty cart.
const DeliveryFee int64 = 1000

func DeliveryFeeFor(items []cart.LineItem) int64 {
	if len(items) == 0 {
		return 0
	}
	return DeliveryFee
}

// OrderWriter persists an order. existed reports that an order with the
// same idempotency key was already stored and is being returned instead.
type OrderWriter interface {
	Create(ctx context.Context, o orders.Order) (saved orders.Order, existed bool, err error)
}

// Events receives the attempt's domain events. Failures are logged only.
type Events interface {
	OrderPlaced(ctx context.Context, o orders.Order) error
	NotificationDeferred(ctx context.Context, o orders.Order, cause error) error
}

// Guard rejects a second attempt of the same user with the same key while
// one is running.
type Guard interface {
	Acquire(ctx context.Context, userID, key string) (bool, error)
	Release(ctx context.Context, userID, key string) error
}

type Request struct {
	User    auth.Identity
	Address string
	Phone   string
	// IdempotencyKey identifies the attempt; one is generated when empty.
	IdempotencyKey string
	// ClientTotal is what the client displayed, if it sent one. It is
	// compared with the recomputed total but never stored.
	ClientTotal *int64
}

type Result struct {
	Order orders.Order
	State State
	// Replayed is set when the idempotency key matched an existing order.
	Replayed bool
	// NotificationErr is non-nil when the order was placed but the
	// notification could not be delivered.
	NotificationErr     error
	ClientTotalMismatch bool
}

// Degraded reports a placed order whose notification failed.
func (r Result) Degraded() bool { return r.NotificationErr != nil }

type Coordinator struct {
	Orders   OrderWriter
	Notifier notify.Sender
	Events   Events // optional
	Guard    Guard  // optional

	PersistTimeout time.Duration
	NotifyTimeout  time.Duration

	Log *slog.Logger
}

// PlaceOrder runs one checkout attempt against c. The returned error is a
// *PreconditionError or *PersistenceError; in both cases c is unchanged.
func (co *Coordinator) PlaceOrder(ctx context.Context, c *cart.Cart, req Request) (Result, error) {
	a := &attempt{co: co, log: co.logger(), state: StateIdle}
	return a.run(ctx, c, req)
}

func (co *Coordinator) logger() *slog.Logger {
	if co.Log != nil {
		return co.Log
	}
	return slog.Default()
}

type attempt struct {
	co    *Coordinator
	log   *slog.Logger
	state State
}

func (a *attempt) enter(s State) {
	a.log.Debug("checkout state", "from", a.state, "to", s)
	a.state = s
}

func (a *attempt) abort(err error) (Result, error) {
	a.enter(StateAborted)
	return Result{State: a.state}, err
}

func (a *attempt) run(ctx context.Context, c *cart.Cart, req Request) (Result, error) {
	a.enter(StateValidatingPreconditions)
	if err := validate(c, req); err != nil {
		return a.abort(err)
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	a.log = a.log.With("user_id", req.User.ID, "idempotency_key", key)

	if g := a.co.Guard; g != nil {
		ok, err := g.Acquire(ctx, req.User.ID, key)
		switch {
		case err != nil:
			// the store's unique key still dedups
			a.log.Warn("checkout guard unavailable", "error", err)
		case !ok:
			return a.abort(&PreconditionError{Reason: ReasonInFlight})
		default:
			defer func() {
				if err := g.Release(context.WithoutCancel(ctx), req.User.ID, key); err != nil {
					a.log.Warn("release checkout guard", "error", err)
				}
			}()
		}
	}

	items := c.Items()
	fee := DeliveryFeeFor(items)
	o := orders.Order{
		UserID:          req.User.ID,
		Items:           items,
		DeliveryFee:     fee,
		Status:          orders.StatusPending,
		ShippingAddress: strings.TrimSpace(req.Address),
		PhoneNumber:     strings.TrimSpace(req.Phone),
		IdempotencyKey:  key,
	}
	o.Total = o.Subtotal() + fee

	var res Result
	if req.ClientTotal != nil && *req.ClientTotal != o.Total {
		res.ClientTotalMismatch = true
		a.log.Warn("client total differs from recomputed total", "client_total", *req.ClientTotal, "total", o.Total)
	}

	a.enter(StatePersisting)
	saved, existed, err := a.persist(ctx, o)
	if err != nil {
		a.log.Error("order not saved", "error", err)
		return a.abort(&PersistenceError{Err: err})
	}
	if existed && !orders.SameRequest(saved, o) {
		// the key was used for a different cart or address; leave this cart alone
		a.log.Warn("idempotency key reused for a different order", "order_id", saved.ID)
		return a.abort(&PreconditionError{Reason: ReasonKeyReused})
	}
	res.Order = saved
	res.Replayed = existed

	if existed {
		a.log.Info("checkout replayed", "order_id", saved.ID)
	} else {
		a.log.Info("order placed", "order_id", saved.ID, "total", saved.Total, "items", len(saved.Items))
		a.publish(ctx, func(e Events) error { return e.OrderPlaced(ctx, saved) })

		a.enter(StateNotifyingBestEffort)
		if err := a.notify(ctx, saved); err != nil {
			res.NotificationErr = &NotificationError{Err: err}
			a.log.Warn("order notification failed", "order_id", saved.ID, "error", err)
			a.publish(ctx, func(e Events) error { return e.NotificationDeferred(ctx, saved, err) })
		}
	}

	if err := c.Clear(ctx); err != nil {
		a.log.Error("clear cart after checkout", "order_id", saved.ID, "error", err)
	}
	a.enter(StateCompleted)
	res.State = a.state
	return res, nil
}

func validate(c *cart.Cart, req Request) error {
	switch {
	case !req.User.Authenticated():
		return &PreconditionError{Reason: ReasonUnauthenticated}
	case c.IsEmpty():
		return &PreconditionError{Reason: ReasonEmptyCart}
	case strings.TrimSpace(req.Address) == "":
		return &PreconditionError{Reason: ReasonMissingAddress}
	case strings.TrimSpace(req.Phone) == "":
		return &PreconditionError{Reason: ReasonMissingPhone}
	}
	return nil
}

func (a *attempt) persist(ctx context.Context, o orders.Order) (orders.Order, bool, error) {
	ctx, cancel := withTimeout(ctx, a.co.PersistTimeout)
	defer cancel()
	return a.co.Orders.Create(ctx, o)
}

func (a *attempt) notify(ctx context.Context, o orders.Order) error {
	ctx, cancel := withTimeout(ctx, a.co.NotifyTimeout)
	defer cancel()
	_, err := a.co.Notifier.Send(ctx, notify.Payload{
		Address: o.ShippingAddress,
		Phone:   o.PhoneNumber,
		Cart:    o.Items,
		Total:   o.Total,
	})
	if errors.Is(err, context.DeadlineExceeded) {
		a.log.Warn("order notification timed out", "timeout", a.co.NotifyTimeout)
	}
	return err
}

func (a *attempt) publish(ctx context.Context, fn func(Events) error) {
	if a.co.Events == nil {
		return
	}
	if err := fn(a.co.Events); err != nil {
		a.log.Warn("publish checkout event", "error", err)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
