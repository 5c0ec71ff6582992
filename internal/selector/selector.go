// Package selector models the product detail drawer: the transient choices a buyer
// makes before an item lands in the cart.
package selector

import (
	"errors"
	"fmt"

	"github.com/anugrahsy/monolog-food-orders-app/internal/cart"
	"github.com/anugrahsy/monolog-food-orders-app/internal/catalog"
)

var (
	ErrClosed        = errors.New("no product is being customized")
	ErrNotApplicable = errors.New("option does not apply to this category")
)

// Selector is either Closed (zero value) or Open on one product.
type Selector struct {
	open     bool
	product  catalog.Product
	category catalog.Category

	quantity    int
	notes       string
	temperature cart.Temperature
	sugarLevel  cart.SugarLevel
	shots       cart.Shots
	toppings    []cart.Topping
}

// State is the read-only view sent to clients.
type State struct {
	Open        bool             `json:"open"`
	Product     *catalog.Product `json:"product,omitempty"`
	Category    catalog.Category `json:"category,omitempty"`
	Traits      catalog.Traits   `json:"traits"`
	Quantity    int              `json:"quantity,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	Temperature cart.Temperature `json:"temperature,omitempty"`
	SugarLevel  cart.SugarLevel  `json:"sugarLevel,omitempty"`
	Shots       cart.Shots       `json:"shots,omitempty"`
	Toppings    []cart.Topping   `json:"toppings,omitempty"`
	LinePrice   int64            `json:"linePrice,omitempty"`
}

// Open starts customizing p and always resets every choice to its default.
func Open(p catalog.Product, category catalog.Category) (Selector, error) {
	if !category.Valid() {
		return Selector{}, fmt.Errorf("open %q: unknown category %q", p.Name, category)
	}
	return Selector{
		open:        true,
		product:     p,
		category:    category,
		quantity:    1,
		temperature: cart.Ice,
		sugarLevel:  cart.SugarNormal,
		shots:       cart.NoExtraShot,
		toppings:    []cart.Topping{},
	}, nil
}

func (s Selector) IsOpen() bool { return s.open }

// Cancel discards the choices.
func (s Selector) Cancel() Selector { return Selector{} }

func (s Selector) SetQuantity(q int) (Selector, error) {
	if !s.open {
		return s, ErrClosed
	}
	if q > cart.MaxQuantity {
		return s, fmt.Errorf("quantity %d: %w", q, cart.ErrInvalidQuantity)
	}
	if q < 1 {
		q = 1
	}
	s.quantity = q
	return s, nil
}

func (s Selector) IncrementQuantity() (Selector, error) { return s.SetQuantity(s.quantity + 1) }

// DecrementQuantity never goes below one.
func (s Selector) DecrementQuantity() (Selector, error) { return s.SetQuantity(s.quantity - 1) }

func (s Selector) SetNotes(notes string) (Selector, error) {
	if !s.open {
		return s, ErrClosed
	}
	s.notes = notes
	return s, nil
}

func (s Selector) SetTemperature(t cart.Temperature) (Selector, error) {
	if err := s.check(s.category.Traits().Temperature, "temperature"); err != nil {
		return s, err
	}
	s.temperature = t
	return s, nil
}

func (s Selector) SetSugarLevel(l cart.SugarLevel) (Selector, error) {
	if err := s.check(s.category.Traits().Sugar, "sugar level"); err != nil {
		return s, err
	}
	s.sugarLevel = l
	return s, nil
}

func (s Selector) SetShots(v cart.Shots) (Selector, error) {
	if err := s.check(s.category.Traits().Shots, "shots"); err != nil {
		return s, err
	}
	s.shots = v
	return s, nil
}

// ToggleTopping adds t if absent and removes it if present.
func (s Selector) ToggleTopping(t cart.Topping) (Selector, error) {
	if err := s.check(s.category.Traits().Toppings, "toppings"); err != nil {
		return s, err
	}

	next := make([]cart.Topping, 0, len(s.toppings)+1)
	found := false
	for _, have := range s.toppings {
		if have == t {
			found = true
			continue
		}
		next = append(next, have)
	}
	if !found {
		next = append(next, t)
	}
	s.toppings = next
	return s, nil
}

func (s Selector) check(applies bool, option string) error {
	if !s.open {
		return ErrClosed
	}
	if !applies {
		return fmt.Errorf("%s on %s: %w", option, s.category, ErrNotApplicable)
	}
	return nil
}

// LinePrice is the amount shown on the add button.
func (s Selector) LinePrice() int64 {
	if !s.open {
		return 0
	}
	return s.product.Price * int64(s.quantity)
}

// Confirm adds the customized product to c and closes the selector.
func (s Selector) Confirm(c cart.Cart) (cart.Cart, Selector, error) {
	if !s.open {
		return c, s, ErrClosed
	}

	custom := cart.Customizations{
		Temperature: &s.temperature,
		SugarLevel:  &s.sugarLevel,
		Shots:       &s.shots,
		Toppings:    s.toppings,
	}
	out, err := cart.Add(c, s.product, s.category, s.quantity, s.notes, custom)
	if err != nil {
		return c, s, err
	}
	return out, Selector{}, nil
}

func (s Selector) State() State {
	if !s.open {
		return State{}
	}
	p := s.product
	traits := s.category.Traits()
	st := State{
		Open:      true,
		Product:   &p,
		Category:  s.category,
		Traits:    traits,
		Quantity:  s.quantity,
		Notes:     s.notes,
		LinePrice: s.LinePrice(),
	}
	if traits.Temperature {
		st.Temperature = s.temperature
	}
	if traits.Sugar {
		st.SugarLevel = s.sugarLevel
	}
	if traits.Shots {
		st.Shots = s.shots
	}
	if traits.Toppings {
		st.Toppings = append([]cart.Topping{}, s.toppings...)
	}
	return st
}
