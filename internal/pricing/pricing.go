// Package pricing computes the order summary figures. Amounts are whole Rupiah.
package pricing

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/anugrahsy/monolog-food-orders-app/internal/cart"
	"github.com/anugrahsy/monolog-food-orders-app/internal/distance"
)

// FeePerKm is charged for every started kilometre.
const FeePerKm int64 = 5000

// minimumOrderTiers are inclusive upper bounds in km.
var minimumOrderTiers = []struct {
	upToKm  float64
	minimum int64
}{
	{1, 50000},
	{2, 60000},
	{3, 70000},
	{4, 90000},
}

const farMinimumOrder int64 = 110000

func Subtotal(c cart.Cart) int64 {
	return cart.TotalPrice(c)
}

// DeliveryFee is zero until the distance is known.
func DeliveryFee(d distance.Km) int64 {
	km, ok := d.Value()
	if !ok {
		return 0
	}
	return int64(math.Ceil(km)) * FeePerKm
}

// MinimumOrder is the smallest subtotal accepted for delivery at km.
func MinimumOrder(km float64) int64 {
	for _, tier := range minimumOrderTiers {
		if km <= tier.upToKm {
			return tier.minimum
		}
	}
	return farMinimumOrder
}

// GrandTotal never goes below zero.
func GrandTotal(subtotal, deliveryFee, discount int64) int64 {
	total := subtotal + deliveryFee - discount
	if total < 0 {
		return 0
	}
	return total
}

// Promo is the discount currently applied to a session.
type Promo struct {
	Code     string `json:"code,omitempty"`
	Discount int64  `json:"discount"`
}

// Promotion is a single code worth a fixed share of the subtotal.
type Promotion struct {
	Code string
	Rate decimal.Decimal
}

func NewPromotion(code string) Promotion {
	return Promotion{Code: code, Rate: decimal.New(10, -2)}
}

// DefaultPromotion is the storefront's launch code.
var DefaultPromotion = NewPromotion("MONOLOG")

// Apply matches entered case-insensitively. A match yields Rate of the subtotal rounded
// to whole Rupiah; anything else yields a zero Promo, which replaces any earlier one.
func (p Promotion) Apply(entered string, subtotal int64) (Promo, bool) {
	code := strings.ToUpper(strings.TrimSpace(entered))
	if code == "" || code != strings.ToUpper(strings.TrimSpace(p.Code)) {
		return Promo{}, false
	}
	discount := decimal.NewFromInt(subtotal).Mul(p.Rate).Round(0).IntPart()
	return Promo{Code: code, Discount: discount}, true
}

func ApplyPromo(entered string, subtotal int64) (Promo, bool) {
	return DefaultPromotion.Apply(entered, subtotal)
}

// Breakdown is everything the summary drawer shows.
type Breakdown struct {
	TotalItems   int         `json:"totalItems"`
	Subtotal     int64       `json:"subtotal"`
	Distance     distance.Km `json:"distanceKm"`
	DeliveryFee  int64       `json:"deliveryFee"`
	Discount     int64       `json:"discount"`
	Total        int64       `json:"total"`
	SubtotalText string      `json:"subtotalText"`
	DeliveryText string      `json:"deliveryFeeText"`
	DiscountText string      `json:"discountText,omitempty"`
	TotalText    string      `json:"totalText"`
	PromoCode    string      `json:"promoCode,omitempty"`
}

func Summarize(c cart.Cart, d distance.Km, promo Promo) Breakdown {
	subtotal := Subtotal(c)
	fee := DeliveryFee(d)
	b := Breakdown{
		TotalItems:   cart.TotalItems(c),
		Subtotal:     subtotal,
		Distance:     d,
		DeliveryFee:  fee,
		Discount:     promo.Discount,
		Total:        GrandTotal(subtotal, fee, promo.Discount),
		SubtotalText: FormatRupiah(subtotal),
		DeliveryText: FormatRupiah(fee),
		PromoCode:    promo.Code,
	}
	if promo.Discount > 0 {
		b.DiscountText = FormatRupiah(promo.Discount)
	}
	b.TotalText = FormatRupiah(b.Total)
	return b
}

// FormatRupiah renders n with Indonesian digit grouping, e.g. "Rp 50.000".
func FormatRupiah(n int64) string {
	return "Rp " + humanize.FormatInteger("#.###,", int(n))
}
