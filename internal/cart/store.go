package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anugrahsy/monolog-food-orders-app/internal/logger"
)

// StorageKey is the blob key the storefront has always used for the cart.
const StorageKey = "monolog-cart"

// BlobStore is a string-keyed blob store partitioned by owner (a session).
type BlobStore interface {
	GetBlob(ctx context.Context, owner, key string) (value string, found bool, err error)
	PutBlob(ctx context.Context, owner, key, value string) error
}

type Store interface {
	Load(ctx context.Context, owner string) (Cart, error)
	Save(ctx context.Context, owner string, c Cart) error
}

// BlobCartStore serializes the whole cart under StorageKey on every save.
type BlobCartStore struct {
	blobs BlobStore
}

func NewStore(blobs BlobStore) *BlobCartStore {
	return &BlobCartStore{blobs: blobs}
}

// Load returns the persisted cart. A blob that does not parse is logged and
// replaced by an empty cart; only storage failures are returned as errors.
func (s *BlobCartStore) Load(ctx context.Context, owner string) (Cart, error) {
	raw, found, err := s.blobs.GetBlob(ctx, owner, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart blob: %w", err)
	}
	if !found || raw == "" {
		return Cart{}, nil
	}

	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		logger.LogWarn("Failed to parse cart for %s, starting empty: %v", owner, err)
		return Cart{}, nil
	}

	kept := c[:0]
	for _, l := range c {
		if l.Quantity < 1 || l.Quantity > MaxQuantity {
			logger.LogWarn("Dropping stored cart line %q with quantity %d", l.Name, l.Quantity)
			continue
		}
		l.Customizations = l.Customizations.ForCategory(l.Category)
		kept = append(kept, l)
	}
	return kept, nil
}

func (s *BlobCartStore) Save(ctx context.Context, owner string, c Cart) error {
	if c == nil {
		c = Cart{}
	}
	for i, l := range c {
		if l.Quantity < 1 || l.Quantity > MaxQuantity {
			return fmt.Errorf("refusing to save line %d with quantity %d: %w", i, l.Quantity, ErrInvalidQuantity)
		}
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	if err := s.blobs.PutBlob(ctx, owner, StorageKey, string(raw)); err != nil {
		return fmt.Errorf("failed to write cart blob: %w", err)
	}
	return nil
}
