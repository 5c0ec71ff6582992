package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anugrahsy/monolog-food-orders-app/internal/cart"
	"github.com/anugrahsy/monolog-food-orders-app/internal/catalog"
	"github.com/anugrahsy/monolog-food-orders-app/internal/distance"
	"github.com/anugrahsy/monolog-food-orders-app/internal/middleware"
	"github.com/anugrahsy/monolog-food-orders-app/internal/order"
	"github.com/anugrahsy/monolog-food-orders-app/internal/pricing"
	"github.com/anugrahsy/monolog-food-orders-app/internal/session"
)

var plazaSenayan = distance.Coordinate{Lat: -6.2260056, Lng: 106.7991222}

type memoryBlobs struct {
	mu        sync.Mutex
	data      map[string]string
	fail      bool
	failReads bool
}

func (m *memoryBlobs) GetBlob(_ context.Context, owner, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads {
		return "", false, errors.New("storage unavailable")
	}
	v, ok := m.data[owner+"/"+key]
	return v, ok, nil
}

func (m *memoryBlobs) PutBlob(_ context.Context, owner, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("storage unavailable")
	}
	m.data[owner+"/"+key] = value
	return nil
}

func (m *memoryBlobs) setFailReads(fail bool) {
	m.mu.Lock()
	m.failReads = fail
	m.mu.Unlock()
}

func (m *memoryBlobs) setFail(fail bool) {
	m.mu.Lock()
	m.fail = fail
	m.mu.Unlock()
}

func (m *memoryBlobs) get(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

type memorySnapshots struct {
	mu    sync.Mutex
	snaps map[string][]order.Snapshot
}

func (m *memorySnapshots) Record(_ context.Context, owner string, s order.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[owner] = append(m.snaps[owner], s)
	return nil
}

func (m *memorySnapshots) Last(_ context.Context, owner string) (order.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.snaps[owner]
	if len(list) == 0 {
		return order.Snapshot{}, false, nil
	}
	return list[len(list)-1], true, nil
}

type fixture struct {
	server   *httptest.Server
	blobs    *memoryBlobs
	sessions *session.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cat := catalog.New()
	require.NoError(t, cat.LoadFromFile("../catalog/testdata/produk.json"))

	blobs := &memoryBlobs{data: map[string]string{}}
	sessions := session.NewManager(time.Hour)
	svc := NewService(cat, sessions, cart.NewStore(blobs), &memorySnapshots{snaps: map[string][]order.Snapshot{}}, Config{
		Shop:              plazaSenayan,
		WhatsAppRecipient: "6281234567890",
		Promotion:         pricing.DefaultPromotion,
	})

	mux := http.NewServeMux()
	NewHandler(svc, middleware.NewRateLimiter(0, 0)).Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &fixture{server: server, blobs: blobs, sessions: sessions}
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Details   string          `json:"details"`
	RequestID string          `json:"request_id"`
}

func (f *fixture) call(t *testing.T, method, path, sessionID string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(middleware.SessionHeader, sessionID)
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (f *fixture) newSession(t *testing.T) string {
	t.Helper()
	status, env := f.call(t, http.MethodPost, "/api/session", "", nil)
	require.Equal(t, http.StatusOK, status)

	var view SessionView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.NotEmpty(t, view.SessionID)
	return view.SessionID
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func (f *fixture) addProduct(t *testing.T, id string, category catalog.Category, index int, edit map[string]interface{}) CartView {
	t.Helper()
	status, _ := f.call(t, http.MethodPost, "/api/selector/open", id, map[string]interface{}{"category": category, "index": index})
	require.Equal(t, http.StatusOK, status)
	if edit != nil {
		status, env := f.call(t, http.MethodPost, "/api/selector", id, edit)
		require.Equal(t, http.StatusOK, status, env.Details)
	}
	status, env := f.call(t, http.MethodPost, "/api/selector/confirm", id, nil)
	require.Equal(t, http.StatusOK, status)
	return decode[CartView](t, env)
}

func TestCatalogEndpoint(t *testing.T) {
	f := newFixture(t)
	status, env := f.call(t, http.MethodGet, "/api/catalog", "", nil)
	require.Equal(t, http.StatusOK, status)

	view := decode[CatalogView](t, env)
	require.Len(t, view.Recommended, 1)
	assert.Equal(t, "Kopi Susu Monolog", view.Recommended[0].Name)

	require.Len(t, view.Sections, 3)
	for _, s := range view.Sections {
		assert.NotEqual(t, catalog.Recommended, s.Category)
	}
	assert.Equal(t, catalog.MonologSignature, view.Sections[0].Category)
	assert.True(t, view.Sections[0].Traits.Shots)

	require.Len(t, view.Categories, 4)
	assert.Equal(t, "monolog signature", view.Categories[1].Label)
}

func TestSessionRequired(t *testing.T) {
	f := newFixture(t)
	status, env := f.call(t, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "missing_session", env.Code)

	status, env = f.call(t, http.MethodGet, "/api/cart", "not-a-uuid", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_session", env.Code)
}

func TestSelectorToCart(t *testing.T) {
	f := newFixture(t)
	id := f.newSession(t)

	status, env := f.call(t, http.MethodPost, "/api/selector/open", id, map[string]interface{}{"category": "MONOLOG_SIGNATURE", "index": 0})
	require.Equal(t, http.StatusOK, status)
	st := decode[map[string]interface{}](t, env)
	assert.Equal(t, "Ice", st["temperature"])
	assert.Equal(t, float64(1), st["quantity"])

	status, env = f.call(t, http.MethodPost, "/api/selector", id, map[string]interface{}{"temperature": "Warm"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", env.Code)

	view := f.addProduct(t, id, catalog.MonologSignature, 0, map[string]interface{}{
		"temperature": "Hot", "quantity": 2, "notes": "no ice please",
	})
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.TotalItems)
	assert.Equal(t, int64(56000), view.TotalPrice)
	assert.Equal(t, "Rp 56.000", view.TotalPriceText)

	// confirming again without reopening is rejected
	status, env = f.call(t, http.MethodPost, "/api/selector/confirm", id, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "selector_closed", env.Code)

	// persisted in the browser's layout
	var stored []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(f.blobs.get(id+"/"+cart.StorageKey)), &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, "Kopi Susu Monolog", stored[0]["name"])
	custom := stored[0]["customizations"].(map[string]interface{})
	assert.Equal(t, "Hot", custom["temperature"])
	assert.NotContains(t, custom, "toppings")
}

func TestSnackOmitsCustomizations(t *testing.T) {
	f := newFixture(t)
	id := f.newSession(t)

	status, _ := f.call(t, http.MethodPost, "/api/selector/open", id, map[string]interface{}{"category": "SNACK", "index": 1})
	require.Equal(t, http.StatusOK, status)
	status, env := f.call(t, http.MethodPost, "/api/selector", id, map[string]interface{}{"shots": "Double"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "option_not_applicable", env.Code)

	view := f.addProduct(t, id, catalog.Snack, 1, nil)
	assert.Equal(t, cart.Customizations{}, view.Lines[0].Customizations)

	status, env = f.call(t, http.MethodPost, "/api/selector/open", id, map[string]interface{}{"category": "SNACK", "index": 9})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "product_not_found", env.Code)
}

func TestUpdateQuantityRemovesLine(t *testing.T) {
	f := newFixture(t)
	id := f.newSession(t)
	f.addProduct(t, id, catalog.Snack, 0, nil)
	f.addProduct(t, id, catalog.TeaSeries, 0, map[string]interface{}{"toggleTopping": "Messes"})

	status, env := f.call(t, http.MethodPost, "/api/cart/quantity", id, map[string]int{"index": 0, "delta": 2})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, decode[CartView](t, env).Lines[0].Quantity)

	status, env = f.call(t, http.MethodPost, "/api/cart/quantity", id, map[string]int{"index": 0, "delta": -3})
	require.Equal(t, http.StatusOK, status)
	view := decode[CartView](t, env)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "Lychee Tea", view.Lines[0].Name)
	assert.Equal(t, []cart.Topping{cart.Messes}, view.Lines[0].Customizations.Toppings)

	status, env = f.call(t, http.MethodPost, "/api/cart/quantity", id, map[string]int{"index": 5, "delta": 1})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "line_not_found", env.Code)
}

func TestQuantityIsBounded(t *testing.T) {
	f := newFixture(t)
	id := f.newSession(t)
	f.addProduct(t, id, catalog.Snack, 0, nil)

	status, env := f.call(t, http.MethodPost, "/api/cart/quantity", id, map[string]interface{}{"index": 0, "delta": int64(math.MaxInt64)})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", env.Code)

	status, env = f.call(t, http.MethodPost, "/api/cart/quantity", id, map[string]int{"index": 0, "delta": cart.MaxQuantity - 1})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, cart.MaxQuantity, decode[CartView](t, env).TotalItems)

	status, env = f.call(t, http.MethodPost, "/api/cart/quantity", id, map[string]int{"index": 0, "delta": 1})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_quantity", env.Code)

	status, env = f.call(t, http.MethodGet, "/api/cart", id, nil)
	require.Equal(t, http.StatusOK, status)
	view := decode[CartView](t, env)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, int64(22000*cart.MaxQuantity), view.TotalPrice)

	status, _ = f.call(t, http.MethodPost, "/api/selector/open", id, map[string]interface{}{"category": "SNACK", "index": 0})
	require.Equal(t, http.StatusOK, status)
	status, env = f.call(t, http.MethodPost, "/api/selector", id, map[string]interface{}{"quantity": 1000})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", env.Code)

	status, _ = f.call(t, http.MethodPost, "/api/selector", id, map[string]interface{}{"quantity": cart.MaxQuantity})
	require.Equal(t, http.StatusOK, status)
	status, env = f.call(t, http.MethodPost, "/api/selector", id, map[string]interface{}{"quantityDelta": 1})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_quantity", env.Code)
}

func TestResumeStorageFailureIsServerError(t *testing.T) {
	f := newFixture(t)
	id := f.newSession(t)
	f.sessions.Remove(id)

	f.blobs.setFailReads(true)
	status, env := f.call(t, http.MethodGet, "/api/cart", id, nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", env.Code)
	assert.Equal(t, 0, f.sessions.Len())

	f.blobs.setFailReads(false)
	status, _ = f.call(t, http.MethodGet, "/api/cart", id, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestFailedPersistLeavesCartUnchanged(t *testing.T) {
	f := newFixture(t)
	id := f.newSession(t)
	f.addProduct(t, id, catalog.Snack, 0, nil)

	f.blobs.setFail(true)
	status, _ := f.call(t, http.MethodPost, "/api/cart/quantity", id, map[string]int{"index": 0, "delta": 1})
	assert.Equal(t, http.StatusInternalServerError, status)
	f.blobs.setFail(false)

	status, env := f.call(t, http.MethodGet, "/api/cart", id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decode[CartView](t, env).TotalItems)
}

func TestSessionResumesFromStorage(t *testing.T) {
	f := newFixture(t)
	id := f.newSession(t)
	f.addProduct(t, id, catalog.Snack, 0, nil)

	// the server forgets the session, as after a restart
	f.sessions.Remove(id)

	status, env := f.call(t, http.MethodGet, "/api/cart", id, nil)
	require.Equal(t, http.StatusOK, status)
	view := decode[CartView](t, env)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "French Fries", view.Lines[0].Name)
}

func TestDistanceAndGate(t *testing.T) {
	f := newFixture(t)
	id := f.newSession(t)
	f.addProduct(t, id, catalog.Snack, 0, nil)

	status, env := f.call(t, http.MethodGet, "/api/summary", id, nil)
	require.Equal(t, http.StatusOK, status)
	summary := decode[SummaryView](t, env)
	assert.False(t, summary.Gate.Evaluated)
	assert.Equal(t, int64(0), summary.Breakdown.DeliveryFee)

	status, env = f.call(t, http.MethodPost, "/api/distance/lookup", id, nil)
	require.Equal(t, http.StatusOK, status)
	stale := decode[map[string]string](t, env)["token"]

	status, env = f.call(t, http.MethodPost, "/api/distance/lookup", id, nil)
	require.Equal(t, http.StatusOK, status)
	token := decode[map[string]string](t, env)["token"]

	monas := map[string]float64{"lat": -6.1753924, "lng": 106.8271528}
	status, env = f.call(t, http.MethodPost, "/api/distance/resolve", id, map[string]interface{}{"token": stale, "position": monas})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "stale_lookup", env.Code)

	status, env = f.call(t, http.MethodPost, "/api/distance/resolve", id, map[string]interface{}{"token": token, "position": monas})
	require.Equal(t, http.StatusOK, status)
	summary = decode[SummaryView](t, env)
	assert.Equal(t, distance.Known(6.4), summary.Breakdown.Distance)
	assert.Equal(t, int64(35000), summary.Breakdown.DeliveryFee)
	assert.True(t, summary.Gate.Evaluated)
	assert.False(t, summary.Gate.Admit)
	assert.Equal(t, int64(110000), summary.Gate.Minimum)
	assert.Equal(t, int64(88000), summary.Gate.Shortfall)
	assert.Equal(t, "Minimal Order Belum Sesuai", summary.Gate.Headline)

	// a failed lookup keeps the distance
	_, env = f.call(t, http.MethodPost, "/api/distance/lookup", id, nil)
	token = decode[map[string]string](t, env)["token"]
	status, env = f.call(t, http.MethodPost, "/api/distance/resolve", id, map[string]interface{}{"token": token, "failure": "denied"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Unable to retrieve your location", env.Message)

	_, env = f.call(t, http.MethodGet, "/api/summary", id, nil)
	summary = decode[SummaryView](t, env)
	assert.Equal(t, distance.Known(6.4), summary.Breakdown.Distance)
	assert.False(t, summary.LookupPending)

	// a cancelled lookup ignores the late answer
	_, env = f.call(t, http.MethodPost, "/api/distance/lookup", id, nil)
	token = decode[map[string]string](t, env)["token"]
	status, _ = f.call(t, http.MethodPost, "/api/distance/cancel", id, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = f.call(t, http.MethodPost, "/api/distance/resolve", id, map[string]interface{}{"token": token, "position": map[string]float64{"lat": -6.2, "lng": 106.8}})
	assert.Equal(t, http.StatusConflict, status)
}

func TestPromo(t *testing.T) {
	f := newFixture(t)
	id := f.newSession(t)
	f.addProduct(t, id, catalog.MonologSignature, 1, map[string]interface{}{"quantity": 5})

	status, env := f.call(t, http.MethodPost, "/api/promo", id, map[string]string{"code": " monolog "})
	require.Equal(t, http.StatusOK, status)
	result := decode[PromoResult](t, env)
	assert.True(t, result.Applied)
	assert.Equal(t, PromoAppliedMessage, result.Message)
	assert.Equal(t, int64(16000), result.Summary.Breakdown.Discount)
	assert.Equal(t, int64(144000), result.Summary.Breakdown.Total)

	status, env = f.call(t, http.MethodPost, "/api/promo", id, map[string]string{"code": "FREE"})
	require.Equal(t, http.StatusOK, status)
	result = decode[PromoResult](t, env)
	assert.False(t, result.Applied)
	assert.Equal(t, PromoInvalidMessage, result.Message)
	assert.Equal(t, int64(0), result.Summary.Breakdown.Discount)
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	id := f.newSession(t)

	customer := map[string]string{"name": "Sari", "phone": "0812", "address": "Jl. Senopati 1"}
	status, env := f.call(t, http.MethodPost, "/api/checkout", id, customer)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "empty_cart", env.Code)

	f.addProduct(t, id, catalog.TeaSeries, 0, nil)

	status, env = f.call(t, http.MethodPost, "/api/checkout", id, map[string]string{"name": "Sari", "phone": "", "address": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid_customer", env.Code)
	assert.Equal(t, "Please fill in valid name, phone, and address", env.Message)
	assert.Equal(t, "phone,address", env.Details)

	status, env = f.call(t, http.MethodGet, "/api/orders/last", id, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = f.call(t, http.MethodPost, "/api/checkout", id, customer)
	require.Equal(t, http.StatusOK, status)
	snap := decode[order.Snapshot](t, env)
	assert.Regexp(t, `^M-\d{5}$`, snap.Reference)

	u, err := url.Parse(snap.HandoffURL)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/6281234567890", u.Path)
	assert.Contains(t, u.Query().Get("text"), "- Lychee Tea x1 (Rp 25.000)")

	status, env = f.call(t, http.MethodGet, "/api/orders/last", id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, snap.Reference, decode[order.Snapshot](t, env).Reference)
}
