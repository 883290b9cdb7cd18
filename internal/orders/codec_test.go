package orders

import (
	"encoding/json"
	"testing"

	"github.com/ariefcatur/glam-orders/internal/cart"
	"github.com/ariefcatur/glam-orders/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []cart.LineItem {
	return []cart.LineItem{
		{Product: catalog.Product{ID: "perf-1", Name: "Midnight Bloom", Price: 8500, Category: catalog.CategoryPerfumes, Images: []string{"a"}, InStock: true}, Quantity: 2},
		{Product: catalog.Product{ID: "bag-1", Name: "Elegance Tote", Price: 12000, Category: catalog.CategoryBags, Images: []string{"b"}, InStock: true}, Quantity: 1},
	}
}

func TestDecodeItemsNormalizesStringEncoding(t *testing.T) {
	canonical, err := EncodeItems(sampleItems())
	require.NoError(t, err)
	legacy, err := json.Marshal(string(canonical))
	require.NoError(t, err)

	fromArray, err := DecodeItems(canonical)
	require.NoError(t, err)
	fromString, err := DecodeItems(legacy)
	require.NoError(t, err)

	assert.Equal(t, sampleItems(), fromArray)
	assert.Equal(t, fromArray, fromString)
}

func TestDecodeItemsEmptyAndInvalid(t *testing.T) {
	for _, raw := range []string{"", "null", "  []  "} {
		items, err := DecodeItems([]byte(raw))
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.NotNil(t, items)
	}

	_, err := DecodeItems([]byte(`{"product":1}`))
	assert.Error(t, err)
	_, err = DecodeItems([]byte(`"not json"`))
	assert.Error(t, err)
}

func TestPlacedPayload(t *testing.T) {
	o := Order{ID: "o1", UserID: "u1", Items: sampleItems(), Total: 30000}
	p := PlacedPayload(o)
	assert.Equal(t, "o1", p.OrderID)
	require.Len(t, p.Items, 2)
	assert.Equal(t, ItemQty{ProductID: "perf-1", Qty: 2, Price: 8500}, p.Items[0])
}

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(EventOrderPlaced, "storefront-api", "o1", "req-1", OrderPlacedPayload{OrderID: "o1", Total: 10})
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "o1", env.CorrelationID)
	assert.JSONEq(t, `{"order_id":"o1","user_id":"","items":null,"total":10}`, string(env.Payload))
}
