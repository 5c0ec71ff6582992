package storefront

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anugrahsy/monolog-food-orders-app/internal/cart"
	"github.com/anugrahsy/monolog-food-orders-app/internal/catalog"
	"github.com/anugrahsy/monolog-food-orders-app/internal/distance"
	"github.com/anugrahsy/monolog-food-orders-app/internal/logger"
	"github.com/anugrahsy/monolog-food-orders-app/internal/middleware"
	"github.com/anugrahsy/monolog-food-orders-app/internal/order"
	"github.com/anugrahsy/monolog-food-orders-app/internal/selector"
	"github.com/anugrahsy/monolog-food-orders-app/internal/session"
)

type Handler struct {
	service *Service
	limiter *middleware.RateLimiter
}

func NewHandler(service *Service, limiter *middleware.RateLimiter) *Handler {
	return &Handler{service: service, limiter: limiter}
}

// Register mounts the storefront API on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	api := func(next http.HandlerFunc) http.HandlerFunc {
		return middleware.APIMiddleware(h.limiter, next)
	}
	sess := func(next http.HandlerFunc) http.HandlerFunc {
		return middleware.SessionMiddleware(h.limiter, h.service, next)
	}

	mux.HandleFunc("POST /api/session", api(h.CreateSession))
	mux.HandleFunc("GET /api/catalog", api(h.Catalog))

	mux.HandleFunc("POST /api/selector/open", sess(h.OpenSelector))
	mux.HandleFunc("POST /api/selector", sess(h.EditSelector))
	mux.HandleFunc("POST /api/selector/cancel", sess(h.CancelSelector))
	mux.HandleFunc("POST /api/selector/confirm", sess(h.ConfirmSelector))

	mux.HandleFunc("GET /api/cart", sess(h.Cart))
	mux.HandleFunc("POST /api/cart/quantity", sess(h.UpdateQuantity))

	mux.HandleFunc("POST /api/distance/lookup", sess(h.BeginLookup))
	mux.HandleFunc("POST /api/distance/resolve", sess(h.ResolveLookup))
	mux.HandleFunc("POST /api/distance/cancel", sess(h.CancelLookup))

	mux.HandleFunc("POST /api/promo", sess(h.ApplyPromo))
	mux.HandleFunc("GET /api/summary", sess(h.Summary))
	mux.HandleFunc("POST /api/checkout", sess(h.Checkout))
	mux.HandleFunc("GET /api/orders/last", sess(h.LastOrder))
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.CreateSession(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, view)
}

func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	middleware.WriteAPISuccess(w, r, h.service.Catalog())
}

func (h *Handler) OpenSelector(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category catalog.Category `json:"category"`
		Index    int              `json:"index"`
	}
	if !parseBody(w, r, openSelectorSchema, &req) {
		return
	}

	st, err := h.service.OpenSelector(r.Context(), middleware.GetSessionID(r.Context()), req.Category, req.Index)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, st)
}

func (h *Handler) EditSelector(w http.ResponseWriter, r *http.Request) {
	var edit SelectorEdit
	if !parseBody(w, r, selectorEditSchema, &edit) {
		return
	}

	st, err := h.service.EditSelector(r.Context(), middleware.GetSessionID(r.Context()), edit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, st)
}

func (h *Handler) CancelSelector(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.CancelSelector(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, st)
}

func (h *Handler) ConfirmSelector(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.ConfirmSelector(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, view)
}

func (h *Handler) Cart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Cart(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, view)
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
		Delta int `json:"delta"`
	}
	if !parseBody(w, r, quantitySchema, &req) {
		return
	}

	view, err := h.service.UpdateQuantity(r.Context(), middleware.GetSessionID(r.Context()), req.Index, req.Delta)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, view)
}

func (h *Handler) BeginLookup(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.BeginLookup(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, map[string]string{"token": token})
}

func (h *Handler) ResolveLookup(w http.ResponseWriter, r *http.Request) {
	var answer LookupAnswer
	if !parseBody(w, r, lookupAnswerSchema, &answer) {
		return
	}

	view, err := h.service.ResolveLookup(r.Context(), middleware.GetSessionID(r.Context()), answer)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, view)
}

func (h *Handler) CancelLookup(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelLookup(r.Context(), middleware.GetSessionID(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, nil)
}

func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !parseBody(w, r, promoSchema, &req) {
		return
	}

	result, err := h.service.ApplyPromo(r.Context(), middleware.GetSessionID(r.Context()), req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, result)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Summary(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, view)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var customer order.CustomerDetails
	if !parseBody(w, r, checkoutSchema, &customer) {
		return
	}

	snap, err := h.service.Checkout(r.Context(), middleware.GetSessionID(r.Context()), customer)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, snap)
}

func (h *Handler) LastOrder(w http.ResponseWriter, r *http.Request) {
	snap, found, err := h.service.LastOrder(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !found {
		middleware.WriteAPIError(w, r, http.StatusNotFound, "no_orders", "No order has been placed in this session", "")
		return
	}
	middleware.WriteAPISuccess(w, r, snap)
}

func parseBody(w http.ResponseWriter, r *http.Request, schema *middleware.Schema, v interface{}) bool {
	if err := middleware.ParseValidatedJSON(r, schema, v); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request", "Invalid request body", err.Error())
		return false
	}
	return true
}

// writeServiceError maps domain errors onto API error responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var lookupErr *distance.LookupError
	var validationErr *order.ValidationError

	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrInvalidID):
		middleware.WriteAPIError(w, r, http.StatusUnauthorized, "invalid_session", "Session is invalid or expired", "")
	case errors.Is(err, catalog.ErrProductNotFound):
		middleware.WriteAPIError(w, r, http.StatusNotFound, "product_not_found", "Product not found", err.Error())
	case errors.Is(err, cart.ErrIndexOutOfRange):
		middleware.WriteAPIError(w, r, http.StatusNotFound, "line_not_found", "Cart line not found", err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_quantity", "Quantity must be between 1 and 999", "")
	case errors.Is(err, selector.ErrClosed):
		middleware.WriteAPIError(w, r, http.StatusConflict, "selector_closed", "No product is being customized", "")
	case errors.Is(err, selector.ErrNotApplicable):
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "option_not_applicable", "Option does not apply to this product", err.Error())
	case errors.Is(err, distance.ErrStaleLookup):
		middleware.WriteAPIError(w, r, http.StatusConflict, "stale_lookup", "Location request is no longer pending", "")
	case errors.As(err, &lookupErr):
		middleware.WriteAPIError(w, r, http.StatusUnprocessableEntity, "geolocation_failed", lookupErr.Error(), string(lookupErr.Reason))
	case errors.As(err, &validationErr):
		middleware.WriteAPIError(w, r, http.StatusUnprocessableEntity, "invalid_customer", validationErr.Error(), strings.Join(validationErr.Missing, ","))
	case errors.Is(err, order.ErrEmptyCart):
		middleware.WriteAPIError(w, r, http.StatusUnprocessableEntity, "empty_cart", "Your cart is empty", "")
	default:
		logger.LogHTTPError(r, http.StatusInternalServerError, err)
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "internal_error", "An internal error occurred", "")
	}
}
