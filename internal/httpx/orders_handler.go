package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ariefcatur/glam-orders/internal/auth"
	"github.com/ariefcatur/glam-orders/internal/orders"
	"github.com/go-chi/chi/v5"
)

// OrderStore is implemented by orders.Repo and orders.SQLiteRepo.
type OrderStore interface {
	Get(ctx context.Context, id string) (orders.Order, error)
	ListByUser(ctx context.Context, userID string) ([]orders.Order, error)
	UpdateStatus(ctx context.Context, id string, to orders.Status) (orders.Order, error)
}

// OrdersHandler serves the caller's order history. Every route requires
// an authenticated identity and only ever shows that identity's orders.
type OrdersHandler struct {
	Orders OrderStore
	Log    *slog.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	user := auth.FromContext(r.Context())
	if !user.Authenticated() {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Orders.ListByUser(ctx, user.ID)
	if err != nil {
		h.Log.Error("list orders", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load orders")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.ownedOrder(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.ownedOrder(w, r)
	if !ok {
		return
	}
	if o.Status.Terminal() {
		writeError(w, http.StatusConflict, "order is already "+string(o.Status))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	updated, err := h.Orders.UpdateStatus(ctx, o.ID, orders.StatusCancelled)
	switch {
	case errors.Is(err, orders.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "order can no longer be cancelled")
		return
	case err != nil:
		h.Log.Error("cancel order", "order_id", o.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not cancel order")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ownedOrder loads {id} and hides orders of other users behind a 404.
func (h *OrdersHandler) ownedOrder(w http.ResponseWriter, r *http.Request) (orders.Order, bool) {
	user := auth.FromContext(r.Context())
	if !user.Authenticated() {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return orders.Order{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.Get(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, orders.ErrNotFound) || (err == nil && o.UserID != user.ID) {
		writeError(w, http.StatusNotFound, "not found")
		return orders.Order{}, false
	}
	if err != nil {
		h.Log.Error("get order", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load order")
		return orders.Order{}, false
	}
	return o, true
}
