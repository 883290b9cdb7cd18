package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlist(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	w, err := LoadWishlist(ctx, store, "wishlist:test", nil)
	require.NoError(t, err)

	added, err := w.Add(ctx, product("a", 100))
	require.NoError(t, err)
	assert.True(t, added)

	added, err = w.Add(ctx, product("a", 100))
	require.NoError(t, err)
	assert.False(t, added)

	_, err = w.Add(ctx, product("b", 200))
	require.NoError(t, err)
	assert.True(t, w.Contains("a"))
	assert.Len(t, w.Items(), 2)

	reloaded, err := LoadWishlist(ctx, store, "wishlist:test", nil)
	require.NoError(t, err)
	assert.Equal(t, w.Items(), reloaded.Items())

	require.NoError(t, w.Remove(ctx, "a"))
	require.NoError(t, w.Remove(ctx, "a"))
	assert.False(t, w.Contains("a"))

	require.NoError(t, w.Clear(ctx))
	assert.Empty(t, w.Items())
}

func TestWishlistMalformedFallsBackToEmpty(t *testing.T) {
	store := newMemStore()
	store.data["wishlist:test"] = []byte(`[{"id":""}]`)
	w, err := LoadWishlist(context.Background(), store, "wishlist:test", nil)
	require.NoError(t, err)
	assert.Empty(t, w.Items())
}
