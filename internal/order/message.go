package order

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/anugrahsy/monolog-food-orders-app/internal/cart"
	"github.com/anugrahsy/monolog-food-orders-app/internal/pricing"
)

const handoffBase = "https://wa.me/"

// Summary is everything the message needs. Breakdown must have been computed from Cart.
type Summary struct {
	Customer  CustomerDetails
	Cart      cart.Cart
	Breakdown pricing.Breakdown
}

// FormatMessage renders the order text. Optional lines (distance, customer note,
// per-item options, discount) are left out entirely when there is nothing to show.
func FormatMessage(s Summary) string {
	c := s.Customer.Trimmed()
	b := s.Breakdown

	var sb strings.Builder
	sb.WriteString("*New Order from Monolog App!* 🍽️\n\n")

	sb.WriteString("*Customer Details:*\n")
	sb.WriteString("👤 Name: " + c.Name + "\n")
	sb.WriteString("📱 Phone: " + c.Phone + "\n")
	sb.WriteString("📍 Address: " + c.Address + "\n")
	if km, ok := b.Distance.Value(); ok {
		sb.WriteString("📏 Distance: " + strconv.FormatFloat(km, 'f', -1, 64) + " km\n")
	}
	if c.Notes != "" {
		sb.WriteString("📝 Note: " + c.Notes + "\n")
	}

	sb.WriteString("\n*Order Summary:*\n")
	for _, line := range s.Cart {
		sb.WriteString(formatLine(line))
	}

	sb.WriteString("\n--------------------------------\n")
	sb.WriteString("💵 Subtotal: " + pricing.FormatRupiah(b.Subtotal) + "\n")
	sb.WriteString("🚚 Delivery Fee: " + pricing.FormatRupiah(b.DeliveryFee) + "\n")
	if b.Discount > 0 {
		sb.WriteString("🏷️ Discount: -" + pricing.FormatRupiah(b.Discount) + "\n")
	}
	sb.WriteString("*💰 TOTAL: " + pricing.FormatRupiah(b.Total) + "*\n\n")
	sb.WriteString("Please process my order! Thank you.")

	return sb.String()
}

func formatLine(l cart.LineItem) string {
	var sb strings.Builder
	sb.WriteString("- " + l.Name + " x" + strconv.Itoa(l.Quantity) + " (" + pricing.FormatRupiah(l.LinePrice()) + ")\n")

	var extras []string
	if values := l.Customizations.Values(); len(values) > 0 {
		extras = append(extras, strings.Join(values, ", "))
	}
	if notes := strings.TrimSpace(l.Notes); notes != "" {
		extras = append(extras, `"`+notes+`"`)
	}
	if len(extras) > 0 {
		sb.WriteString("  " + strings.Join(extras, " ") + "\n")
	}
	return sb.String()
}

// HandoffURL builds the WhatsApp deep link for recipient carrying message.
func HandoffURL(recipient, message string) string {
	return handoffBase + recipient + "?text=" + EncodeURIComponent(message)
}

// componentUnescaper undoes the escapes QueryEscape applies that a browser's
// encodeURIComponent leaves alone.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent percent-encodes s the way browsers do for a URI component.
func EncodeURIComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
