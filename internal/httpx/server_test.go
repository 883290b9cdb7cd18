package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/glam-orders/internal/auth"
	"github.com/ariefcatur/glam-orders/internal/catalog"
	"github.com/ariefcatur/glam-orders/internal/checkout"
	"github.com/ariefcatur/glam-orders/internal/notify"
	"github.com/ariefcatur/glam-orders/internal/orders"
	"github.com/ariefcatur/glam-orders/internal/sessionstore"
	"github.com/ariefcatur/glam-orders/internal/sqlitedb"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (s *fakeSender) Send(context.Context, notify.Payload) (notify.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return notify.Result{}, s.err
	}
	return notify.Result{Body: json.RawMessage(`{}`)}, nil
}

type failingWriter struct{}

func (failingWriter) Create(context.Context, orders.Order) (orders.Order, bool, error) {
	return orders.Order{}, false, errors.New("too many connections")
}

type testAPI struct {
	router   *chi.Mux
	verifier *auth.Verifier
	sender   *fakeSender
	co       *checkout.Coordinator
	repo     *orders.SQLiteRepo
}

func newTestAPI(t *testing.T, rps float64, burst int) *testAPI {
	t.Helper()
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlitedb.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store, err := sessionstore.NewSQLiteStore(ctx, db)
	require.NoError(t, err)
	repo, err := orders.NewSQLiteRepo(ctx, db)
	require.NoError(t, err)
	limiter, err := NewRateLimiter(rps, burst, 0)
	require.NoError(t, err)

	a := &testAPI{verifier: auth.NewVerifier("test-secret"), sender: &fakeSender{}, repo: repo}
	a.co = &checkout.Coordinator{Orders: repo, Notifier: a.sender, PersistTimeout: time.Second, NotifyTimeout: time.Second, Log: log}

	a.router = NewRouter(a.verifier.Middleware)
	cat := catalog.Default()
	(&CatalogHandler{Catalog: cat}).Register(a.router)
	(&CartHandler{Catalog: cat, Sessions: store, Log: log}).Register(a.router)
	(&CheckoutHandler{Coordinator: a.co, Sessions: store, Limiter: limiter, Log: log}).Register(a.router)
	(&OrdersHandler{Orders: repo, Log: log}).Register(a.router)
	return a
}

type call struct {
	method, path string
	body         any
	session      string
	user         *auth.Identity
	headers      map[string]string
}

func (a *testAPI) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if c.body != nil {
		b, err := json.Marshal(c.body)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.session != "" {
		req.Header.Set(HeaderSession, c.session)
	}
	if c.user != nil {
		tok, err := a.verifier.Issue(*c.user, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

var (
	alice = auth.Identity{ID: "user-alice", Email: "alice@example.com", Name: "Alice"}
	bob   = auth.Identity{ID: "user-bob", Email: "bob@example.com", Name: "Bob"}
)

func validCheckout() CheckoutReq {
	return CheckoutReq{Address: "3,Olu-Ajilo, Isolo", Phone: "+234 903 463 3896"}
}

func (a *testAPI) fillCart(t *testing.T, session string) {
	t.Helper()
	rec := a.do(t, call{method: http.MethodPost, path: "/cart/items", session: session, body: map[string]any{"product_id": "perf-1", "quantity": 2}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t, 100, 100)
	rec := a.do(t, call{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCatalogRoutes(t *testing.T) {
	a := newTestAPI(t, 100, 100)

	all := decode[[]catalog.Product](t, a.do(t, call{method: http.MethodGet, path: "/products"}))
	assert.Len(t, all, 9)
	bags := decode[[]catalog.Product](t, a.do(t, call{method: http.MethodGet, path: "/products?category=bags"}))
	assert.Len(t, bags, 3)
	featured := decode[[]catalog.Product](t, a.do(t, call{method: http.MethodGet, path: "/products?featured=true"}))
	assert.Len(t, featured, 3)

	p := decode[catalog.Product](t, a.do(t, call{method: http.MethodGet, path: "/products/acc-1"}))
	assert.Equal(t, "Pearl Hairpin Set", p.Name)
	assert.Equal(t, http.StatusNotFound, a.do(t, call{method: http.MethodGet, path: "/products/nope"}).Code)
}

func TestCartRoutes(t *testing.T) {
	a := newTestAPI(t, 100, 100)
	const s = "sess-1"

	assert.Equal(t, http.StatusBadRequest, a.do(t, call{method: http.MethodGet, path: "/cart"}).Code)

	rec := a.do(t, call{method: http.MethodPost, path: "/cart/items", session: s, body: map[string]any{"product_id": "perf-1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, call{method: http.MethodPost, path: "/cart/items", session: s, body: map[string]any{"product_id": "perf-1", "quantity": 2}})
	got := decode[CartResp](t, rec)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.Equal(t, int64(25500), got.Total)
	assert.Equal(t, "₦255", got.TotalDisplay)

	assert.Equal(t, http.StatusNotFound, a.do(t, call{method: http.MethodPost, path: "/cart/items", session: s, body: map[string]any{"product_id": "nope"}}).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, call{method: http.MethodPost, path: "/cart/items", session: s, body: map[string]any{"product_id": "bag-1", "quantity": 0}}).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, call{method: http.MethodPost, path: "/cart/items", session: s, body: map[string]any{"product_id": "perf-1", "quantity": math.MaxInt}}).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, call{method: http.MethodPut, path: "/cart/items/perf-1", session: s, body: SetQuantityReq{Quantity: math.MaxInt}}).Code)

	got = decode[CartResp](t, a.do(t, call{method: http.MethodPut, path: "/cart/items/perf-1", session: s, body: SetQuantityReq{Quantity: 1}}))
	assert.Equal(t, 1, got.ItemCount)
	assert.Equal(t, http.StatusNotFound, a.do(t, call{method: http.MethodPut, path: "/cart/items/bag-1", session: s, body: SetQuantityReq{Quantity: 1}}).Code)

	other := decode[CartResp](t, a.do(t, call{method: http.MethodGet, path: "/cart", session: "sess-2"}))
	assert.Empty(t, other.Items)

	got = decode[CartResp](t, a.do(t, call{method: http.MethodDelete, path: "/cart/items/perf-1", session: s}))
	assert.Empty(t, got.Items)
	got = decode[CartResp](t, a.do(t, call{method: http.MethodDelete, path: "/cart", session: s}))
	assert.Zero(t, got.Total)
}

func TestWishlistRoutes(t *testing.T) {
	a := newTestAPI(t, 100, 100)
	const s = "sess-1"

	assert.Equal(t, http.StatusCreated, a.do(t, call{method: http.MethodPost, path: "/wishlist/bag-2", session: s}).Code)
	assert.Equal(t, http.StatusOK, a.do(t, call{method: http.MethodPost, path: "/wishlist/bag-2", session: s}).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, call{method: http.MethodPost, path: "/wishlist/nope", session: s}).Code)

	list := decode[[]catalog.Product](t, a.do(t, call{method: http.MethodGet, path: "/wishlist", session: s}))
	require.Len(t, list, 1)
	assert.Equal(t, "bag-2", list[0].ID)

	list = decode[[]catalog.Product](t, a.do(t, call{method: http.MethodDelete, path: "/wishlist/bag-2", session: s}))
	assert.Empty(t, list)
}

func TestCheckoutRoutes(t *testing.T) {
	a := newTestAPI(t, 100, 100)
	const s = "sess-1"

	rec := a.do(t, call{method: http.MethodPost, path: "/checkout", session: s, body: validCheckout()})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, call{method: http.MethodPost, path: "/checkout", session: s, user: &alice, body: validCheckout()})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(checkout.ReasonEmptyCart), decode[map[string]string](t, rec)["error"])

	a.fillCart(t, s)
	bad := validCheckout()
	bad.Phone = " "
	rec = a.do(t, call{method: http.MethodPost, path: "/checkout", session: s, user: &alice, body: bad})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	headers := map[string]string{HeaderIdempotencyKey: "attempt-1"}
	rec = a.do(t, call{method: http.MethodPost, path: "/checkout", session: s, user: &alice, body: validCheckout(), headers: headers})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decode[CheckoutResp](t, rec)
	assert.Equal(t, orders.StatusPending, placed.Order.Status)
	assert.Equal(t, int64(17000)+checkout.DeliveryFee, placed.Order.Total)
	assert.Equal(t, "₦180", placed.TotalDisplay)
	assert.Empty(t, placed.Warning)

	cartNow := decode[CartResp](t, a.do(t, call{method: http.MethodGet, path: "/cart", session: s}))
	assert.Empty(t, cartNow.Items)

	a.fillCart(t, s)
	rec = a.do(t, call{method: http.MethodPost, path: "/checkout", session: s, user: &alice, body: validCheckout(), headers: headers})
	require.Equal(t, http.StatusOK, rec.Code)
	replay := decode[CheckoutResp](t, rec)
	assert.True(t, replay.Replayed)
	assert.Equal(t, placed.Order.ID, replay.Order.ID)
	assert.Equal(t, 1, a.sender.calls)

	rec = a.do(t, call{method: http.MethodPost, path: "/cart/items", session: s, body: map[string]any{"product_id": "bag-1", "quantity": 3}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, call{method: http.MethodPost, path: "/checkout", session: s, user: &alice, body: validCheckout(), headers: headers})
	assert.Equal(t, http.StatusConflict, rec.Code)
	kept := decode[CartResp](t, a.do(t, call{method: http.MethodGet, path: "/cart", session: s}))
	require.Len(t, kept.Items, 1)
	assert.Equal(t, 3, kept.Items[0].Quantity)

	a.fillCart(t, "bob-session")
	rec = a.do(t, call{method: http.MethodPost, path: "/checkout", session: "bob-session", user: &bob, body: validCheckout(), headers: headers})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bobs := decode[CheckoutResp](t, rec)
	assert.False(t, bobs.Replayed)
	assert.Equal(t, bob.ID, bobs.Order.UserID)
	assert.NotEqual(t, placed.Order.ID, bobs.Order.ID)
}

func TestCheckoutDegradedAndFailed(t *testing.T) {
	a := newTestAPI(t, 100, 100)
	const s = "sess-1"

	a.sender.err = errors.New("notify: 502 Bad Gateway")
	a.fillCart(t, s)
	lie := validCheckout()
	lie.Total = new(int64)
	rec := a.do(t, call{method: http.MethodPost, path: "/checkout", session: s, user: &alice, body: lie})
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[CheckoutResp](t, rec)
	assert.Equal(t, warnNotification, resp.Warning)
	assert.True(t, resp.TotalMismatch)

	a.co.Orders = failingWriter{}
	a.fillCart(t, s)
	rec = a.do(t, call{method: http.MethodPost, path: "/checkout", session: s, user: &alice, body: validCheckout()})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "too many connections")

	cartNow := decode[CartResp](t, a.do(t, call{method: http.MethodGet, path: "/cart", session: s}))
	assert.Len(t, cartNow.Items, 1)
}

func TestCheckoutRateLimited(t *testing.T) {
	a := newTestAPI(t, 0.001, 2)
	for i := 0; i < 2; i++ {
		rec := a.do(t, call{method: http.MethodPost, path: "/checkout", session: "s", body: validCheckout()})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := a.do(t, call{method: http.MethodPost, path: "/checkout", session: "s", body: validCheckout()})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	assert.Equal(t, http.StatusOK, a.do(t, call{method: http.MethodGet, path: "/cart", session: "s"}).Code)
}

func TestOrdersRoutes(t *testing.T) {
	a := newTestAPI(t, 100, 100)

	var aliceIDs []string
	for _, who := range []auth.Identity{alice, bob, alice} {
		a.fillCart(t, who.ID)
		rec := a.do(t, call{method: http.MethodPost, path: "/checkout", session: who.ID, user: &who, body: validCheckout()})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		if who == alice {
			aliceIDs = append(aliceIDs, decode[CheckoutResp](t, rec).Order.ID)
		}
	}

	assert.Equal(t, http.StatusUnauthorized, a.do(t, call{method: http.MethodGet, path: "/orders"}).Code)

	list := decode[[]orders.Order](t, a.do(t, call{method: http.MethodGet, path: "/orders", user: &alice}))
	require.Len(t, list, 2)
	assert.Equal(t, aliceIDs[1], list[0].ID)
	assert.Equal(t, aliceIDs[0], list[1].ID)
	for _, o := range list {
		assert.Equal(t, alice.ID, o.UserID)
	}

	path := "/orders/" + aliceIDs[0]
	assert.Equal(t, http.StatusNotFound, a.do(t, call{method: http.MethodGet, path: path, user: &bob}).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, call{method: http.MethodPost, path: path + "/cancel", user: &bob}).Code)

	rec := a.do(t, call{method: http.MethodPost, path: path + "/cancel", user: &alice})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orders.StatusCancelled, decode[orders.Order](t, rec).Status)
	rec = a.do(t, call{method: http.MethodPost, path: path + "/cancel", user: &alice})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "order is already cancelled", decode[map[string]string](t, rec)["error"])
}
