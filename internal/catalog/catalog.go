// Package catalog holds the static product list and its lookups.
package catalog

type Category string

const (
	CategoryPerfumes    Category = "perfumes"
	CategoryBags        Category = "bags"
	CategoryAccessories Category = "accessories"
	// CategoryAll is a filter value, never a product's category.
	CategoryAll Category = "all"
)

// Product is immutable reference data. Price is in minor currency units.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Category    Category `json:"category"`
	Images      []string `json:"images"`
	InStock     bool     `json:"inStock"`
	Featured    bool     `json:"featured,omitempty"`
	NewArrival  bool     `json:"newArrival,omitempty"`
}

// Clone returns a copy that shares no slices with p.
func (p Product) Clone() Product {
	p.Images = append([]string(nil), p.Images...)
	return p
}

type Catalog struct {
	products []Product
}

func New(products []Product) *Catalog {
	return &Catalog{products: products}
}

// Default returns the storefront's built-in product list.
func Default() *Catalog { return New(defaultProducts) }

func (c *Catalog) All() []Product {
	return cloneAll(c.products)
}

func (c *Catalog) ByID(id string) (Product, bool) {
	for _, p := range c.products {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return Product{}, false
}

func (c *Catalog) ByCategory(cat Category) []Product {
	if cat == CategoryAll || cat == "" {
		return c.All()
	}
	return c.filter(func(p Product) bool { return p.Category == cat })
}

func (c *Catalog) Featured() []Product {
	return c.filter(func(p Product) bool { return p.Featured })
}

func (c *Catalog) NewArrivals() []Product {
	return c.filter(func(p Product) bool { return p.NewArrival })
}

func (c *Catalog) filter(keep func(Product) bool) []Product {
	out := []Product{}
	for _, p := range c.products {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}

func cloneAll(ps []Product) []Product {
	out := make([]Product, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Clone())
	}
	return out
}
