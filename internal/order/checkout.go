package order

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/anugrahsy/monolog-food-orders-app/internal/cart"
	"github.com/anugrahsy/monolog-food-orders-app/internal/logger"
	"github.com/anugrahsy/monolog-food-orders-app/internal/pricing"
)

var ErrEmptyCart = errors.New("cart is empty")

// Snapshot is the local record of an order handed off to the shop. Nothing
// confirms that the shop received it.
type Snapshot struct {
	Reference  string            `json:"reference"`
	CreatedAt  time.Time         `json:"createdAt"`
	Customer   CustomerDetails   `json:"customer"`
	Lines      cart.Cart         `json:"lines"`
	Breakdown  pricing.Breakdown `json:"breakdown"`
	Message    string            `json:"message"`
	HandoffURL string            `json:"handoffUrl"`
}

// SnapshotLog keeps the most recent orders per session.
type SnapshotLog interface {
	Record(ctx context.Context, owner string, s Snapshot) error
	Last(ctx context.Context, owner string) (Snapshot, bool, error)
}

// GenerateOrderReference returns "M-12345".
func GenerateOrderReference() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000)) // 0-99999
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("M-%05d", n.Int64()), nil
}

// Checkout validates the customer, formats the message and builds the handoff link.
// The snapshot is recorded when log is non-nil; a failed write is logged and does not
// block the handoff.
func Checkout(ctx context.Context, log SnapshotLog, owner, recipient string, s Summary) (Snapshot, error) {
	if err := ValidateCustomer(s.Customer); err != nil {
		return Snapshot{}, err
	}
	if len(s.Cart) == 0 {
		return Snapshot{}, ErrEmptyCart
	}

	ref, err := GenerateOrderReference()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to generate order reference: %w", err)
	}

	msg := FormatMessage(s)
	snap := Snapshot{
		Reference:  ref,
		CreatedAt:  time.Now().UTC(),
		Customer:   s.Customer.Trimmed(),
		Lines:      cart.Clone(s.Cart),
		Breakdown:  s.Breakdown,
		Message:    msg,
		HandoffURL: HandoffURL(recipient, msg),
	}

	if log != nil {
		if err := log.Record(ctx, owner, snap); err != nil {
			logger.LogWarn("Failed to record order %s: %v", ref, err)
		}
	}
	logger.LogSession(owner, "Order %s handed off: %d items, total %s", ref, s.Breakdown.TotalItems, pricing.FormatRupiah(s.Breakdown.Total))
	return snap, nil
}
