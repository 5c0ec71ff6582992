package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/anugrahsy/monolog-food-orders-app/internal/logger"
)

var ErrProductNotFound = errors.New("product not found")

// fileProduct mirrors one produk.json entry; the category comes from the enclosing key.
type fileProduct struct {
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	BestSeller  bool     `json:"bestSeller"`
	Rating      *float64 `json:"rating"`
}

// Catalog is the read-only menu. Section order follows the source file.
type Catalog struct {
	sections   []Section
	index      map[Category]int
	lastLoaded time.Time
	mutex      sync.RWMutex
}

func New() *Catalog {
	return &Catalog{index: make(map[Category]int)}
}

// LoadFromFile replaces the menu with the contents of a produk.json file.
func (c *Catalog) LoadFromFile(path string) error {
	logger.LogInfo("Loading catalog from %s", path)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	return c.Load(f)
}

// Load parses {"CATEGORY": [product, ...], ...} keeping key order.
func (c *Catalog) Load(r io.Reader) error {
	sections, err := decodeSections(r)
	if err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	index := make(map[Category]int, len(sections))
	total := 0
	for i, s := range sections {
		index[s.Category] = i
		total += len(s.Products)
	}

	c.mutex.Lock()
	c.sections = sections
	c.index = index
	c.lastLoaded = time.Now()
	c.mutex.Unlock()

	logger.LogInfo("Catalog loaded: %d categories, %d products", len(sections), total)
	return nil
}

func decodeSections(r io.Reader) ([]Section, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("catalog must be a JSON object, got %v", tok)
	}

	var sections []Section
	seen := make(map[Category]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		category, err := ParseCategory(key)
		if err != nil {
			return nil, err
		}
		if seen[category] {
			return nil, fmt.Errorf("duplicate category %s", category)
		}
		seen[category] = true

		var raw []fileProduct
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("category %s: %w", category, err)
		}

		products := make([]Product, 0, len(raw))
		for i, p := range raw {
			if p.Price < 0 {
				return nil, fmt.Errorf("category %s item %d (%s): negative price", category, i, p.Name)
			}
			products = append(products, Product{
				Name:        p.Name,
				Price:       p.Price,
				Description: p.Description,
				Image:       p.Image,
				BestSeller:  p.BestSeller,
				Rating:      p.Rating,
				Category:    category,
			})
		}

		sections = append(sections, Section{
			Category: category,
			Label:    category.Label(),
			Traits:   category.Traits(),
			Products: products,
		})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return sections, nil
}

// Sections returns every category, RECOMMENDED included.
func (c *Catalog) Sections() []Section {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	out := make([]Section, len(c.sections))
	for i, s := range c.sections {
		s.Products = append([]Product(nil), s.Products...)
		out[i] = s
	}
	return out
}

// MenuSections omits RECOMMENDED, which is shown as its own strip.
func (c *Catalog) MenuSections() []Section {
	all := c.Sections()
	out := all[:0]
	for _, s := range all {
		if s.Category != Recommended {
			out = append(out, s)
		}
	}
	return out
}

// Categories returns the drawer entries with item counts.
func (c *Catalog) Categories() []CategorySummary {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	out := make([]CategorySummary, 0, len(c.sections))
	for _, s := range c.sections {
		out = append(out, CategorySummary{Category: s.Category, Label: s.Label, Count: len(s.Products)})
	}
	return out
}

// Product looks up an item by category and position. The result is a copy.
func (c *Catalog) Product(category Category, position int) (Product, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	i, ok := c.index[category]
	if !ok {
		return Product{}, fmt.Errorf("%w: category %s", ErrProductNotFound, category)
	}
	products := c.sections[i].Products
	if position < 0 || position >= len(products) {
		return Product{}, fmt.Errorf("%w: %s[%d]", ErrProductNotFound, category, position)
	}
	p := products[position]
	if p.Rating != nil {
		r := *p.Rating
		p.Rating = &r
	}
	return p, nil
}

func (c *Catalog) CacheAge() time.Duration {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return time.Since(c.lastLoaded)
}
