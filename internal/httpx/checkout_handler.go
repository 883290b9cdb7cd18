package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ariefcatur/glam-orders/internal/auth"
	"github.com/ariefcatur/glam-orders/internal/cart"
	"github.com/ariefcatur/glam-orders/internal/checkout"
	"github.com/ariefcatur/glam-orders/internal/money"
	"github.com/ariefcatur/glam-orders/internal/orders"
	"github.com/ariefcatur/glam-orders/internal/redisx"
	"github.com/go-chi/chi/v5"
)

const HeaderIdempotencyKey = "Idempotency-Key"

const warnNotification = "Order placed, but the store could not be notified yet. It will be retried."

type CheckoutHandler struct {
	Coordinator *checkout.Coordinator
	Sessions    cart.Store
	Limiter     *RateLimiter // optional
	Log         *slog.Logger
}

func (h *CheckoutHandler) Register(r chi.Router) {
	if h.Limiter != nil {
		r = r.With(h.Limiter.Middleware)
	}
	r.Post("/checkout", h.checkout)
}

type CheckoutReq struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
	// Total is the amount the client displayed. Informational only.
	Total *int64 `json:"total,omitempty"`
}

type CheckoutResp struct {
	Order         orders.Order `json:"order"`
	TotalDisplay  string       `json:"total_display"`
	Replayed      bool         `json:"replayed,omitempty"`
	Warning       string       `json:"warning,omitempty"`
	TotalMismatch bool         `json:"total_mismatch,omitempty"`
}

func (h *CheckoutHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	sid, ok := sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing "+HeaderSession)
		return
	}

	ctx := r.Context()
	c, err := cart.Load(ctx, h.Sessions, fmt.Sprintf(redisx.KeyCart, sid), h.Log)
	if err != nil {
		h.Log.Error("load cart", "session", sid, "error", err)
		writeError(w, http.StatusServiceUnavailable, "cart unavailable")
		return
	}

	res, err := h.Coordinator.PlaceOrder(ctx, c, checkout.Request{
		User:           auth.FromContext(ctx),
		Address:        req.Address,
		Phone:          req.Phone,
		IdempotencyKey: r.Header.Get(HeaderIdempotencyKey),
		ClientTotal:    req.Total,
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	resp := CheckoutResp{
		Order:         res.Order,
		TotalDisplay:  money.Format(res.Order.Total),
		Replayed:      res.Replayed,
		TotalMismatch: res.ClientTotalMismatch,
	}
	if res.Degraded() {
		resp.Warning = warnNotification
	}
	code := http.StatusCreated
	if res.Replayed {
		code = http.StatusOK
	}
	writeJSON(w, code, resp)
}

func (h *CheckoutHandler) fail(w http.ResponseWriter, err error) {
	var pre *checkout.PreconditionError
	var per *checkout.PersistenceError
	switch {
	case errors.As(err, &pre):
		code := http.StatusUnprocessableEntity
		switch pre.Reason {
		case checkout.ReasonUnauthenticated:
			code = http.StatusUnauthorized
		case checkout.ReasonInFlight, checkout.ReasonKeyReused:
			code = http.StatusConflict
		}
		writeError(w, code, string(pre.Reason))
	case errors.As(err, &per):
		writeError(w, http.StatusBadGateway, "could not save order: "+per.Err.Error())
	default:
		h.Log.Error("checkout", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
