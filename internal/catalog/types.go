package catalog

// Product is one menu entry. Its identifier is its position inside its category.
type Product struct {
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	Description string   `json:"description,omitempty"`
	Image       string   `json:"image,omitempty"`
	BestSeller  bool     `json:"bestSeller,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Category    Category `json:"category"`
}

// Section is a category with its products in file order.
type Section struct {
	Category Category  `json:"category"`
	Label    string    `json:"label"`
	Traits   Traits    `json:"traits"`
	Products []Product `json:"products"`
}

// CategorySummary backs the category drawer.
type CategorySummary struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Count    int      `json:"count"`
}
