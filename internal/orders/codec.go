package orders

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/glam-orders/internal/cart"
)

// EncodeItems produces the canonical items column: a JSON array of
// {product, quantity}.
func EncodeItems(items []cart.LineItem) ([]byte, error) {
	if items == nil {
		items = []cart.LineItem{}
	}
	return json.Marshal(items)
}

// DecodeItems is the single place stored items are normalized. Older rows
// (and some clients) carry the array JSON-encoded inside a string; both
// shapes decode to the same slice.
func DecodeItems(raw []byte) ([]cart.LineItem, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []cart.LineItem{}, nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		return DecodeItems([]byte(inner))
	}
	var items []cart.LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if items == nil {
		items = []cart.LineItem{}
	}
	return items, nil
}
