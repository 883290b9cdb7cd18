package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ariefcatur/glam-orders/internal/cart"
	"github.com/ariefcatur/glam-orders/internal/catalog"
	"github.com/ariefcatur/glam-orders/internal/money"
	"github.com/ariefcatur/glam-orders/internal/redisx"
	"github.com/go-chi/chi/v5"
)

// HeaderSession names the browsing session a cart and wishlist belong to.
const HeaderSession = "X-Session-Id"

// CartHandler serves the session cart and wishlist. Each request loads the
// aggregate from Sessions, mutates it and lets it write itself back.
type CartHandler struct {
	Catalog  *catalog.Catalog
	Sessions cart.Store
	Log      *slog.Logger
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addItem)
	r.Put("/cart/items/{id}", h.setQuantity)
	r.Delete("/cart/items/{id}", h.removeItem)
	r.Delete("/cart", h.clearCart)

	r.Get("/wishlist", h.getWishlist)
	r.Post("/wishlist/{id}", h.addToWishlist)
	r.Delete("/wishlist/{id}", h.removeFromWishlist)
	r.Delete("/wishlist", h.clearWishlist)
}

type CartResp struct {
	Items        []cart.LineItem `json:"items"`
	ItemCount    int             `json:"item_count"`
	Total        int64           `json:"total"`
	TotalDisplay string          `json:"total_display"`
}

func cartResp(c *cart.Cart) CartResp {
	total := c.Total()
	return CartResp{Items: c.Items(), ItemCount: c.ItemCount(), Total: total, TotalDisplay: money.Format(total)}
}

type AddItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity,omitempty"`
}

type SetQuantityReq struct {
	Quantity int `json:"quantity"`
}

func sessionID(r *http.Request) (string, bool) {
	sid := r.Header.Get(HeaderSession)
	return sid, sid != ""
}

// loadCart writes the error response itself and returns nil on failure.
func (h *CartHandler) loadCart(w http.ResponseWriter, r *http.Request) *cart.Cart {
	sid, ok := sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing "+HeaderSession)
		return nil
	}
	c, err := cart.Load(r.Context(), h.Sessions, fmt.Sprintf(redisx.KeyCart, sid), h.Log)
	if err != nil {
		h.Log.Error("load cart", "session", sid, "error", err)
		writeError(w, http.StatusServiceUnavailable, "cart unavailable")
		return nil
	}
	return c
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	c := h.loadCart(w, r)
	if c == nil {
		return
	}
	writeJSON(w, http.StatusOK, cartResp(c))
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, ok := h.Catalog.ByID(req.ProductID)
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	c := h.loadCart(w, r)
	if c == nil {
		return
	}
	if err := c.AddItem(r.Context(), p, qty); err != nil {
		h.mutationFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResp(c))
}

func (h *CartHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req SetQuantityReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c := h.loadCart(w, r)
	if c == nil {
		return
	}
	if err := c.SetQuantity(r.Context(), chi.URLParam(r, "id"), req.Quantity); err != nil {
		h.mutationFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResp(c))
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	c := h.loadCart(w, r)
	if c == nil {
		return
	}
	if err := c.RemoveItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.mutationFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResp(c))
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	c := h.loadCart(w, r)
	if c == nil {
		return
	}
	if err := c.Clear(r.Context()); err != nil {
		h.mutationFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResp(c))
}

func (h *CartHandler) mutationFailed(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.Log.Error("save session state", "error", err)
		writeError(w, http.StatusServiceUnavailable, "could not save")
	}
}

func (h *CartHandler) loadWishlist(w http.ResponseWriter, r *http.Request) *cart.Wishlist {
	sid, ok := sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing "+HeaderSession)
		return nil
	}
	wl, err := cart.LoadWishlist(r.Context(), h.Sessions, fmt.Sprintf(redisx.KeyWishlist, sid), h.Log)
	if err != nil {
		h.Log.Error("load wishlist", "session", sid, "error", err)
		writeError(w, http.StatusServiceUnavailable, "wishlist unavailable")
		return nil
	}
	return wl
}

func (h *CartHandler) getWishlist(w http.ResponseWriter, r *http.Request) {
	wl := h.loadWishlist(w, r)
	if wl == nil {
		return
	}
	writeJSON(w, http.StatusOK, wl.Items())
}

func (h *CartHandler) addToWishlist(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Catalog.ByID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	wl := h.loadWishlist(w, r)
	if wl == nil {
		return
	}
	added, err := wl.Add(r.Context(), p)
	if err != nil {
		h.mutationFailed(w, err)
		return
	}
	code := http.StatusOK
	if added {
		code = http.StatusCreated
	}
	writeJSON(w, code, wl.Items())
}

func (h *CartHandler) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	wl := h.loadWishlist(w, r)
	if wl == nil {
		return
	}
	if err := wl.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.mutationFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wl.Items())
}

func (h *CartHandler) clearWishlist(w http.ResponseWriter, r *http.Request) {
	wl := h.loadWishlist(w, r)
	if wl == nil {
		return
	}
	if err := wl.Clear(r.Context()); err != nil {
		h.mutationFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wl.Items())
}
