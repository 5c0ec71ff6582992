package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anugrahsy/monolog-food-orders-app/internal/session"
)

type stubSessions struct {
	valid  map[string]bool
	broken map[string]bool
}

func (s stubSessions) EnsureSession(_ context.Context, id string) error {
	if s.broken[id] {
		return errors.New("failed to load cart: database is locked")
	}
	if !s.valid[id] {
		return session.ErrNotFound
	}
	return nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func TestAPIMiddlewareEnvelope(t *testing.T) {
	h := APIMiddleware(NewRateLimiter(0, 0), func(w http.ResponseWriter, r *http.Request) {
		WriteAPISuccess(w, r, map[string]int{"n": 1})
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	requestID := rec.Header().Get("X-Request-ID")
	assert.Len(t, requestID, 16)

	var resp struct {
		Success   bool           `json:"success"`
		Data      map[string]int `json:"data"`
		RequestID string         `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Data["n"])
	assert.Equal(t, requestID, resp.RequestID)
}

func TestErrorHandlingRecoversPanics(t *testing.T) {
	h := APIMiddleware(nil, func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeError(t, rec).Code)
}

func TestSessionValidation(t *testing.T) {
	sessions := stubSessions{valid: map[string]bool{"abc": true}}
	var seen string
	h := SessionMiddleware(nil, sessions, func(w http.ResponseWriter, r *http.Request) {
		seen = GetSessionID(r.Context())
		WriteAPISuccess(w, r, nil)
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing_session", decodeError(t, rec).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set(SessionHeader, "nope")
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, "invalid_session", decodeError(t, rec).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set(SessionHeader, "abc")
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", seen)
}

func TestSessionValidationStorageFailure(t *testing.T) {
	sessions := stubSessions{broken: map[string]bool{"abc": true}}
	called := false
	h := SessionMiddleware(nil, sessions, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set(SessionHeader, "abc")
	rec := httptest.NewRecorder()
	h(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeError(t, rec).Code)
	assert.False(t, called)
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(1, 2)
	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"), "clients have separate buckets")

	h := l.Limit(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limit_exceeded", decodeError(t, rec).Code)

	assert.Equal(t, 0, l.Forget(time.Hour))
	assert.Equal(t, 2, l.Forget(-time.Second))
}

func TestDisabledRateLimiter(t *testing.T) {
	l := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("x"))
	}
}

func TestCORS(t *testing.T) {
	h := CORS("https://monolog.example", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/cart", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://monolog.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), SessionHeader)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

var quantitySchema = MustSchema(`{
  "type": "object",
  "required": ["index", "delta"],
  "properties": {
    "index": { "type": "integer", "minimum": 0 },
    "delta": { "type": "integer" }
  },
  "additionalProperties": false
}`)

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestParseValidatedJSON(t *testing.T) {
	var in struct {
		Index int `json:"index"`
		Delta int `json:"delta"`
	}
	require.NoError(t, ParseValidatedJSON(jsonRequest(`{"index":1,"delta":-1}`), quantitySchema, &in))
	assert.Equal(t, 1, in.Index)
	assert.Equal(t, -1, in.Delta)

	err := ParseValidatedJSON(jsonRequest(`{"index":-1,"delta":"x"}`), quantitySchema, &in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request does not conform to schema")

	err = ParseValidatedJSON(jsonRequest(`{"index":0}`), quantitySchema, &in)
	assert.Error(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"index":0,"delta":1}`))
	err = ParseValidatedJSON(req, quantitySchema, &in)
	assert.ErrorIs(t, err, ErrBadContentType)

	big := `{"index":0,"delta":1,"pad":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	err = ParseValidatedJSON(jsonRequest(big), quantitySchema, &in)
	assert.EqualError(t, err, "request body too large")
}
