package notify

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ariefcatur/glam-orders/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/xeipuuv/gojsonschema"
)

const schemaOrderEmail = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["cart", "total"],
  "properties": {
    "address": { "type": "string" },
    "phone": { "type": "string" },
    "cart": { "type": ["array", "string"] },
    "total": { "type": "integer", "minimum": 0 }
  }
}`

var orderEmailSchema = gojsonschema.NewStringLoader(schemaOrderEmail)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
}

// Handler is the order notification function.
type Handler struct {
	Dispatcher *Dispatcher
	Log        *slog.Logger
}

func (h *Handler) Register(r chi.Router) {
	r.Options("/send-order-email", h.preflight)
	r.Post("/send-order-email", h.sendOrderEmail)
}

func (h *Handler) preflight(w http.ResponseWriter, _ *http.Request) {
	setCORS(w)
	w.WriteHeader(http.StatusOK)
}

// request mirrors Payload but accepts cart as an array or as a JSON string.
type request struct {
	Address string          `json:"address"`
	Phone   string          `json:"phone"`
	Cart    json.RawMessage `json:"cart"`
	Total   int64           `json:"total"`
}

func (h *Handler) sendOrderEmail(w http.ResponseWriter, r *http.Request) {
	setCORS(w)

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.fail(w, http.StatusBadRequest, err)
		return
	}
	if err := validateJSONSchema(orderEmailSchema, body); err != nil {
		h.fail(w, http.StatusBadRequest, err)
		return
	}

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		h.fail(w, http.StatusBadRequest, err)
		return
	}
	items, err := orders.DecodeItems(req.Cart)
	if err != nil {
		h.fail(w, http.StatusBadRequest, err)
		return
	}
	p := Payload{Address: req.Address, Phone: req.Phone, Cart: items, Total: req.Total}

	h.Log.Info("sending order email", "address", p.Address, "phone", p.Phone, "total", p.Total, "items", len(items))
	res, err := h.Dispatcher.Deliver(r.Context(), p)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// fail answers 400 for payloads that can never succeed, so HTTPSender does
// not retry them, and 500 when the mailer failed.
func (h *Handler) fail(w http.ResponseWriter, code int, err error) {
	if code < http.StatusInternalServerError {
		h.Log.Warn("order email rejected", "status", code, "error", err)
	} else {
		h.Log.Error("order email failed", "status", code, "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func setCORS(w http.ResponseWriter) {
	for k, v := range corsHeaders {
		w.Header().Set(k, v)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func validateJSONSchema(schema gojsonschema.JSONLoader, body []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("request does not conform to schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}
