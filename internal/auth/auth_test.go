package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = Identity{ID: "user-1", Email: "alice@example.com", Name: "Alice"}

func TestVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("secret")
	tok, err := v.Issue(alice, time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, alice, got)
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier("secret")

	other, err := NewVerifier("other").Issue(alice, time.Hour)
	require.NoError(t, err)
	expired, err := v.Issue(alice, -time.Minute)
	require.NoError(t, err)
	noSubject, err := v.Issue(Identity{Email: "x@example.com"}, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"wrong secret": other,
		"expired":      expired,
		"no subject":   noSubject,
		"alg none":     none,
		"garbage":      "not.a.jwt",
	} {
		_, err := v.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier("secret")
	tok, err := v.Issue(alice, time.Hour)
	require.NoError(t, err)

	var seen Identity
	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	for _, tc := range []struct {
		header string
		want   Identity
	}{
		{"Bearer " + tok, alice},
		{"bearer " + tok, alice},
		{"", Identity{}},
		{"Bearer broken", Identity{}},
		{"Basic " + tok, Identity{}},
	} {
		seen = Identity{ID: "stale"}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, tc.want, seen, tc.header)
		assert.Equal(t, tc.want.ID != "", seen.Authenticated())
	}
}
