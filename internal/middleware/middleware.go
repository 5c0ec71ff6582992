package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anugrahsy/monolog-food-orders-app/internal/logger"
	"github.com/anugrahsy/monolog-food-orders-app/internal/session"
)

// Request context keys
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	SessionIDKey contextKey = "session_id"
)

// SessionHeader carries the storefront session on every API call.
const SessionHeader = "X-Session-ID"

// Standard API error response
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id"`
}

// Standard API success response
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id"`
}

// SessionValidator makes sure a session exists before a handler runs, restoring
// it from storage if the server restarted.
type SessionValidator interface {
	EnsureSession(ctx context.Context, id string) error
}

// APIMiddleware is the chain for endpoints that need no session.
func APIMiddleware(limiter *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return RequestID(
		Logging(
			limiter.Limit(
				ErrorHandling(next),
			),
		),
	)
}

// SessionMiddleware is APIMiddleware plus session validation.
func SessionMiddleware(limiter *RateLimiter, sessions SessionValidator, next http.HandlerFunc) http.HandlerFunc {
	return APIMiddleware(limiter, SessionValidation(sessions, next))
}

// RequestID middleware adds a unique request ID to each request
func RequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// Logging middleware logs all API requests with consistent format
func Logging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := GetRequestID(r.Context())

		logger.LogInfo("API request started: request_id=%s method=%s path=%s client_ip=%s",
			requestID, r.Method, r.URL.Path, logger.GetClientIP(r))

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		logger.LogInfo("API request completed: request_id=%s status=%d processing_ms=%d",
			requestID, rw.statusCode, duration.Milliseconds())
	}
}

// SessionValidation requires the session header and puts the ID on the context.
func SessionValidation(sessions SessionValidator, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(SessionHeader))
		if id == "" {
			WriteAPIError(w, r, http.StatusUnauthorized, "missing_session", "Session ID required", "")
			return
		}

		if err := sessions.EnsureSession(r.Context(), id); err != nil {
			if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrInvalidID) {
				logger.LogWarn("Rejected session %s: %v", id, err)
				WriteAPIError(w, r, http.StatusUnauthorized, "invalid_session", "Session is invalid or expired", "")
				return
			}
			logger.LogHTTPError(r, http.StatusInternalServerError, err)
			WriteAPIError(w, r, http.StatusInternalServerError, "internal_error", "An internal error occurred", "")
			return
		}

		ctx := context.WithValue(r.Context(), SessionIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// ErrorHandling middleware provides panic recovery and consistent error responses
func ErrorHandling(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.LogError("Panic in API handler: request_id=%s method=%s path=%s error=%v",
					GetRequestID(r.Context()), r.Method, r.URL.Path, err)
				WriteAPIError(w, r, http.StatusInternalServerError, "internal_error",
					"An internal error occurred", "")
			}
		}()
		next.ServeHTTP(w, r)
	}
}

// CORS adds CORS headers and answers preflight requests.
func CORS(allowedOrigin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+SessionHeader)
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Helper functions
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetSessionID returns the session validated by SessionValidation.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionIDKey).(string); ok {
		return id
	}
	return ""
}

// WriteAPIError writes a standardized error response
func WriteAPIError(w http.ResponseWriter, r *http.Request, statusCode int, code, message, details string) {
	response := APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: GetRequestID(r.Context()),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// WriteAPISuccess writes a standardized success response
func WriteAPISuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	response := APIResponse{
		Success:   true,
		Data:      data,
		RequestID: GetRequestID(r.Context()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// ErrBadContentType is returned for bodies not sent as JSON.
var ErrBadContentType = errors.New("content-type must be application/json")

// ParseJSONRequest strictly decodes the request body into v.
func ParseJSONRequest(r *http.Request, v interface{}) error {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return ErrBadContentType
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
