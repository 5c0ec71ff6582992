// Package storefront drives the cart, selector, pricing and checkout for one
// session at a time. Every successful cart change is persisted before it is
// acknowledged.
package storefront

import (
	"context"
	"errors"
	"fmt"

	"github.com/anugrahsy/monolog-food-orders-app/internal/cart"
	"github.com/anugrahsy/monolog-food-orders-app/internal/catalog"
	"github.com/anugrahsy/monolog-food-orders-app/internal/distance"
	"github.com/anugrahsy/monolog-food-orders-app/internal/gate"
	"github.com/anugrahsy/monolog-food-orders-app/internal/logger"
	"github.com/anugrahsy/monolog-food-orders-app/internal/order"
	"github.com/anugrahsy/monolog-food-orders-app/internal/pricing"
	"github.com/anugrahsy/monolog-food-orders-app/internal/selector"
	"github.com/anugrahsy/monolog-food-orders-app/internal/session"
)

const (
	PromoAppliedMessage = "Promo applied! 10% discount."
	PromoInvalidMessage = "Invalid promo code"
)

type Config struct {
	Shop              distance.Coordinate
	WhatsAppRecipient string
	Promotion         pricing.Promotion
}

type Service struct {
	catalog   *catalog.Catalog
	sessions  *session.Manager
	carts     cart.Store
	snapshots order.SnapshotLog
	config    Config
}

func NewService(cat *catalog.Catalog, sessions *session.Manager, carts cart.Store, snapshots order.SnapshotLog, cfg Config) *Service {
	if cfg.Promotion.Code == "" {
		cfg.Promotion = pricing.DefaultPromotion
	}
	return &Service{
		catalog:   cat,
		sessions:  sessions,
		carts:     carts,
		snapshots: snapshots,
		config:    cfg,
	}
}

// =============================================================================
// VIEWS
// =============================================================================

// CatalogView splits RECOMMENDED out as its own strip; Sections is the menu proper.
type CatalogView struct {
	Recommended []catalog.Product         `json:"recommended"`
	Sections    []catalog.Section         `json:"sections"`
	Categories  []catalog.CategorySummary `json:"categories"`
}

type CartView struct {
	Lines          cart.Cart `json:"lines"`
	TotalItems     int       `json:"totalItems"`
	TotalPrice     int64     `json:"totalPrice"`
	TotalPriceText string    `json:"totalPriceText"`
}

type GateView struct {
	gate.Decision
	Headline string   `json:"headline,omitempty"`
	Detail   []string `json:"detail,omitempty"`
}

type SummaryView struct {
	Cart          CartView              `json:"cart"`
	Breakdown     pricing.Breakdown     `json:"breakdown"`
	Gate          GateView              `json:"gate"`
	LookupPending bool                  `json:"lookupPending"`
	Customer      order.CustomerDetails `json:"customer"`
}

type PromoResult struct {
	Applied bool        `json:"applied"`
	Message string      `json:"message"`
	Summary SummaryView `json:"summary"`
}

type SessionView struct {
	SessionID string   `json:"sessionId"`
	Cart      CartView `json:"cart"`
}

func newCartView(c cart.Cart) CartView {
	if c == nil {
		c = cart.Cart{}
	}
	total := cart.TotalPrice(c)
	return CartView{
		Lines:          c,
		TotalItems:     cart.TotalItems(c),
		TotalPrice:     total,
		TotalPriceText: pricing.FormatRupiah(total),
	}
}

func newSummaryView(st *session.State) SummaryView {
	b := pricing.Summarize(st.Cart, st.Distance, st.Promo)
	d := gate.Evaluate(st.Distance, b.Subtotal)
	return SummaryView{
		Cart:          newCartView(st.Cart),
		Breakdown:     b,
		Gate:          GateView{Decision: d, Headline: d.Headline(), Detail: d.Detail()},
		LookupPending: st.Lookup.Pending(),
		Customer:      st.Customer,
	}
}

// =============================================================================
// SESSIONS
// =============================================================================

func (s *Service) CreateSession(ctx context.Context) (SessionView, error) {
	id := s.sessions.Create()
	if err := s.restoreCart(ctx, id); err != nil {
		s.sessions.Remove(id)
		return SessionView{}, err
	}
	view, err := s.Cart(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	logger.LogSession(id, "Session created")
	return SessionView{SessionID: id, Cart: view}, nil
}

// EnsureSession makes id usable, reloading its persisted cart when the session
// was not in memory.
func (s *Service) EnsureSession(ctx context.Context, id string) error {
	created, err := s.sessions.Resume(id, func(st *session.State) error {
		c, err := s.carts.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		st.Cart = c
		return nil
	})
	if err != nil {
		return err
	}
	if created {
		logger.LogSession(id, "Session resumed from storage")
	}
	return nil
}

func (s *Service) restoreCart(ctx context.Context, id string) error {
	c, err := s.carts.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	return s.sessions.With(id, func(st *session.State) error {
		st.Cart = c
		return nil
	})
}

// persist writes c and only then lets it become the session's cart.
func (s *Service) persist(ctx context.Context, id string, st *session.State, c cart.Cart) error {
	if err := s.carts.Save(ctx, id, c); err != nil {
		return err
	}
	st.Cart = c
	return nil
}

// =============================================================================
// CATALOG AND SELECTOR
// =============================================================================

func (s *Service) Catalog() CatalogView {
	view := CatalogView{
		Recommended: []catalog.Product{},
		Sections:    s.catalog.MenuSections(),
		Categories:  s.catalog.Categories(),
	}
	for _, sec := range s.catalog.Sections() {
		if sec.Category == catalog.Recommended {
			view.Recommended = sec.Products
		}
	}
	return view
}

func (s *Service) OpenSelector(ctx context.Context, id string, category catalog.Category, index int) (selector.State, error) {
	p, err := s.catalog.Product(category, index)
	if err != nil {
		return selector.State{}, err
	}

	var out selector.State
	err = s.sessions.With(id, func(st *session.State) error {
		sel, err := selector.Open(p, category)
		if err != nil {
			return err
		}
		st.Selector = sel
		out = sel.State()
		return nil
	})
	return out, err
}

// SelectorEdit carries any subset of the drawer's controls. Fields are applied in
// declaration order.
type SelectorEdit struct {
	Quantity      *int              `json:"quantity,omitempty"`
	QuantityDelta *int              `json:"quantityDelta,omitempty"`
	Notes         *string           `json:"notes,omitempty"`
	Temperature   *cart.Temperature `json:"temperature,omitempty"`
	SugarLevel    *cart.SugarLevel  `json:"sugarLevel,omitempty"`
	Shots         *cart.Shots       `json:"shots,omitempty"`
	ToggleTopping *cart.Topping     `json:"toggleTopping,omitempty"`
}

func (e SelectorEdit) apply(sel selector.Selector) (selector.Selector, error) {
	var err error
	step := func(f func() (selector.Selector, error)) {
		if err == nil {
			sel, err = f()
		}
	}

	if e.Quantity != nil {
		step(func() (selector.Selector, error) { return sel.SetQuantity(*e.Quantity) })
	}
	if e.QuantityDelta != nil {
		step(func() (selector.Selector, error) {
			d := *e.QuantityDelta
			if d > cart.MaxQuantity || d < -cart.MaxQuantity {
				return sel, fmt.Errorf("quantity delta %d: %w", d, cart.ErrInvalidQuantity)
			}
			return sel.SetQuantity(sel.State().Quantity + d)
		})
	}
	if e.Notes != nil {
		step(func() (selector.Selector, error) { return sel.SetNotes(*e.Notes) })
	}
	if e.Temperature != nil {
		step(func() (selector.Selector, error) { return sel.SetTemperature(*e.Temperature) })
	}
	if e.SugarLevel != nil {
		step(func() (selector.Selector, error) { return sel.SetSugarLevel(*e.SugarLevel) })
	}
	if e.Shots != nil {
		step(func() (selector.Selector, error) { return sel.SetShots(*e.Shots) })
	}
	if e.ToggleTopping != nil {
		step(func() (selector.Selector, error) { return sel.ToggleTopping(*e.ToggleTopping) })
	}
	return sel, err
}

// EditSelector applies every field of edit or none of them.
func (s *Service) EditSelector(ctx context.Context, id string, edit SelectorEdit) (selector.State, error) {
	var out selector.State
	err := s.sessions.With(id, func(st *session.State) error {
		sel, err := edit.apply(st.Selector)
		if err != nil {
			return err
		}
		st.Selector = sel
		out = sel.State()
		return nil
	})
	return out, err
}

func (s *Service) CancelSelector(ctx context.Context, id string) (selector.State, error) {
	err := s.sessions.With(id, func(st *session.State) error {
		st.Selector = st.Selector.Cancel()
		return nil
	})
	return selector.State{}, err
}

// ConfirmSelector adds the customized product as a new cart line and closes the drawer.
func (s *Service) ConfirmSelector(ctx context.Context, id string) (CartView, error) {
	var out CartView
	err := s.sessions.With(id, func(st *session.State) error {
		c, closed, err := st.Selector.Confirm(st.Cart)
		if err != nil {
			return err
		}
		if err := s.persist(ctx, id, st, c); err != nil {
			return err
		}
		st.Selector = closed
		out = newCartView(st.Cart)
		return nil
	})
	if err == nil {
		logger.LogSession(id, "Added line %d to cart (%d items)", len(out.Lines), out.TotalItems)
	}
	return out, err
}

// =============================================================================
// CART
// =============================================================================

func (s *Service) Cart(ctx context.Context, id string) (CartView, error) {
	st, err := s.sessions.View(id)
	if err != nil {
		return CartView{}, err
	}
	return newCartView(st.Cart), nil
}

func (s *Service) UpdateQuantity(ctx context.Context, id string, index, delta int) (CartView, error) {
	var out CartView
	err := s.sessions.With(id, func(st *session.State) error {
		c, err := cart.UpdateQuantity(st.Cart, index, delta)
		if err != nil {
			return err
		}
		if err := s.persist(ctx, id, st, c); err != nil {
			return err
		}
		out = newCartView(st.Cart)
		return nil
	})
	return out, err
}

// =============================================================================
// DISTANCE
// =============================================================================

// BeginLookup starts a geolocation request. Answers carrying an older token are ignored.
func (s *Service) BeginLookup(ctx context.Context, id string) (string, error) {
	var token string
	err := s.sessions.With(id, func(st *session.State) error {
		st.Lookup, token = st.Lookup.Begin()
		return nil
	})
	return token, err
}

// LookupAnswer is what the browser reported: a position or a failure reason.
type LookupAnswer struct {
	Token    string               `json:"token"`
	Position *distance.Coordinate `json:"position,omitempty"`
	Failure  distance.Failure     `json:"failure,omitempty"`
}

// ResolveLookup applies a geolocation answer. Failures and stale answers leave the
// distance unchanged.
func (s *Service) ResolveLookup(ctx context.Context, id string, answer LookupAnswer) (SummaryView, error) {
	var out SummaryView
	var lookupErr error

	err := s.sessions.With(id, func(st *session.State) error {
		var err error
		if answer.Position != nil {
			st.Lookup, st.Distance, err = st.Lookup.Resolve(answer.Token, s.config.Shop, *answer.Position, st.Distance)
		} else {
			failure := answer.Failure
			if failure == "" {
				failure = distance.FailureUnavailable
			}
			st.Lookup, err = st.Lookup.Fail(answer.Token, failure)
		}
		if errors.Is(err, distance.ErrStaleLookup) {
			return err
		}
		// the lookup is closed either way; keep that and report the failure
		lookupErr = err
		out = newSummaryView(st)
		return nil
	})
	if err != nil {
		return SummaryView{}, err
	}
	if lookupErr != nil {
		logger.LogSession(id, "Geolocation failed: %v", lookupErr)
		return out, lookupErr
	}
	logger.LogSession(id, "Distance resolved: %s", out.Breakdown.Distance)
	return out, nil
}

func (s *Service) CancelLookup(ctx context.Context, id string) error {
	return s.sessions.With(id, func(st *session.State) error {
		st.Lookup = st.Lookup.Cancel()
		return nil
	})
}

// =============================================================================
// PROMO, SUMMARY AND CHECKOUT
// =============================================================================

// ApplyPromo validates code against the current subtotal. A miss clears any
// earlier discount.
func (s *Service) ApplyPromo(ctx context.Context, id, code string) (PromoResult, error) {
	var out PromoResult
	err := s.sessions.With(id, func(st *session.State) error {
		promo, ok := s.config.Promotion.Apply(code, cart.TotalPrice(st.Cart))
		st.Promo = promo
		out.Applied = ok
		if ok {
			out.Message = PromoAppliedMessage
		} else {
			out.Message = PromoInvalidMessage
		}
		out.Summary = newSummaryView(st)
		return nil
	})
	return out, err
}

func (s *Service) Summary(ctx context.Context, id string) (SummaryView, error) {
	st, err := s.sessions.View(id)
	if err != nil {
		return SummaryView{}, err
	}
	return newSummaryView(&st), nil
}

// Checkout formats the order and returns the WhatsApp link. The cart is kept: the
// handoff is not confirmed, so the buyer may need to send it again.
func (s *Service) Checkout(ctx context.Context, id string, customer order.CustomerDetails) (order.Snapshot, error) {
	var snap order.Snapshot
	err := s.sessions.With(id, func(st *session.State) error {
		st.Customer = customer
		summary := order.Summary{
			Customer:  customer,
			Cart:      st.Cart,
			Breakdown: pricing.Summarize(st.Cart, st.Distance, st.Promo),
		}
		var err error
		snap, err = order.Checkout(ctx, s.snapshots, id, s.config.WhatsAppRecipient, summary)
		return err
	})
	return snap, err
}

func (s *Service) LastOrder(ctx context.Context, id string) (order.Snapshot, bool, error) {
	if _, err := s.sessions.View(id); err != nil {
		return order.Snapshot{}, false, err
	}
	if s.snapshots == nil {
		return order.Snapshot{}, false, nil
	}
	return s.snapshots.Last(ctx, id)
}
