package httpx

import (
	"net/http"

	"github.com/ariefcatur/glam-orders/internal/catalog"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	Catalog *catalog.Catalog
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
}

// listProducts filters by ?category=, ?featured=true or ?new=true.
func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var ps []catalog.Product
	switch {
	case q.Get("featured") == "true":
		ps = h.Catalog.Featured()
	case q.Get("new") == "true":
		ps = h.Catalog.NewArrivals()
	default:
		ps = h.Catalog.ByCategory(catalog.Category(q.Get("category")))
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Catalog.ByID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
