package product

import (
	"github.com/shopspring/decimal"
)

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Category    string
	Subcategory string
	Unit        string
	Image       string
}

// Catalog provides price and metadata lookups for products referenced by the
// cart. Implementations are read-only snapshots; a lookup miss means the
// product is unknown to the client, not that it does not exist remotely.
type Catalog interface {
	Lookup(id string) (Product, bool)
}

// MapCatalog is an in-memory Catalog backed by a plain map.
type MapCatalog map[string]Product

// Lookup implements Catalog.
func (m MapCatalog) Lookup(id string) (Product, bool) {
	p, ok := m[id]
	return p, ok
}

// NewMapCatalog builds a MapCatalog from a product list, keyed by ID.
func NewMapCatalog(products []Product) MapCatalog {
	m := make(MapCatalog, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}
