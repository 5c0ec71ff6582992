// Package cart holds the storefront cart as a plain value. Every operation returns a
// new Cart and leaves its input untouched; callers persist the result.
package cart

import (
	"errors"
	"fmt"

	"github.com/anugrahsy/monolog-food-orders-app/internal/catalog"
)

// MaxQuantity caps a single line so price × quantity stays far from overflow.
const MaxQuantity = 999

var (
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 999")
	ErrIndexOutOfRange = errors.New("cart line index out of range")
)

// LineItem is one add-to-cart event: a product snapshot plus the buyer's choices.
type LineItem struct {
	catalog.Product
	Quantity       int            `json:"quantity"`
	Notes          string         `json:"notes"`
	Customizations Customizations `json:"customizations"`
}

func (l LineItem) LinePrice() int64 {
	return l.Price * int64(l.Quantity)
}

// Cart is the ordered list of line items. The JSON form is a bare array.
type Cart []LineItem

// Add appends a new line. Identical products are never merged.
func Add(c Cart, p catalog.Product, category catalog.Category, quantity int, notes string, custom Customizations) (Cart, error) {
	if !category.Valid() {
		return c, fmt.Errorf("add %q: unknown category %q", p.Name, category)
	}
	if quantity < 1 || quantity > MaxQuantity {
		return c, fmt.Errorf("add %q: %w", p.Name, ErrInvalidQuantity)
	}

	p.Category = category
	if p.Rating != nil {
		r := *p.Rating
		p.Rating = &r
	}

	out := make(Cart, len(c), len(c)+1)
	copy(out, c)
	return append(out, LineItem{
		Product:        p,
		Quantity:       quantity,
		Notes:          notes,
		Customizations: custom.ForCategory(category),
	}), nil
}

// UpdateQuantity applies delta to line index; a result of zero or less removes the line.
// A result above MaxQuantity is rejected and the cart is returned unchanged.
func UpdateQuantity(c Cart, index, delta int) (Cart, error) {
	if index < 0 || index >= len(c) {
		return c, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(c))
	}

	current := c[index].Quantity
	if delta > MaxQuantity-current {
		return c, fmt.Errorf("line %d: %d%+d: %w", index, current, delta, ErrInvalidQuantity)
	}
	if delta <= -current {
		return Remove(c, index)
	}

	out := Clone(c)
	out[index].Quantity = current + delta
	return out, nil
}

func Remove(c Cart, index int) (Cart, error) {
	if index < 0 || index >= len(c) {
		return c, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(c))
	}
	out := make(Cart, 0, len(c)-1)
	out = append(out, c[:index]...)
	return append(out, c[index+1:]...), nil
}

func TotalItems(c Cart) int {
	n := 0
	for _, l := range c {
		n += l.Quantity
	}
	return n
}

// TotalPrice is the sum of unit price times quantity in whole Rupiah.
func TotalPrice(c Cart) int64 {
	var sum int64
	for _, l := range c {
		sum += l.LinePrice()
	}
	return sum
}

// Clone copies the lines so the result can be edited independently. Toppings
// slices are shared, which is safe because no operation mutates them in place.
func Clone(c Cart) Cart {
	if c == nil {
		return nil
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
