// Package gate decides whether an order is large enough for its delivery distance.
package gate

import (
	"fmt"

	"github.com/anugrahsy/monolog-food-orders-app/internal/distance"
	"github.com/anugrahsy/monolog-food-orders-app/internal/pricing"
)

// Decision is the outcome shown under the distance on the summary page.
// Evaluated is false until the distance is known; nothing is shown then.
type Decision struct {
	Evaluated bool        `json:"evaluated"`
	Admit     bool        `json:"admit"`
	Distance  distance.Km `json:"distanceKm"`
	Minimum   int64       `json:"minimum"`
	Shortfall int64       `json:"shortfall"`
}

// Evaluate compares the subtotal with the minimum order for km.
func Evaluate(km distance.Km, subtotal int64) Decision {
	v, ok := km.Value()
	if !ok {
		return Decision{Distance: km}
	}

	minimum := pricing.MinimumOrder(v)
	d := Decision{
		Evaluated: true,
		Distance:  km,
		Minimum:   minimum,
		Admit:     subtotal >= minimum,
	}
	if !d.Admit {
		d.Shortfall = minimum - subtotal
	}
	return d
}

// Headline is the one-line verdict, empty when not evaluated.
func (d Decision) Headline() string {
	switch {
	case !d.Evaluated:
		return ""
	case d.Admit:
		return "Jarak dan Minimal Order Sesuai!"
	default:
		return "Minimal Order Belum Sesuai"
	}
}

// Detail explains a rejection: the tier that applied and what is still missing.
func (d Decision) Detail() []string {
	if !d.Evaluated || d.Admit {
		return nil
	}
	km, _ := d.Distance.Value()
	return []string{
		fmt.Sprintf("Jarak %g km minimal order %s", km, pricing.FormatRupiah(d.Minimum)),
		fmt.Sprintf("Kurang %s", pricing.FormatRupiah(d.Shortfall)),
	}
}
