// Package cart defines the client-side cart mapping and the merge rules used
// when a locally built cart meets the remote authoritative one.
package cart

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/RiyaSaju106/QuickIT/internal/domain/product"
)

// Items maps a product ID to its desired quantity. A well-formed cart never
// holds an entry with quantity <= 0; removing the last unit deletes the entry.
type Items map[string]int

// Line is the wire form of a single cart entry, used both for remote cart
// responses and order submission.
type Line struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Clone returns a deep copy of the cart mapping.
func (c Items) Clone() Items {
	out := make(Items, len(c))
	for id, qty := range c {
		out[id] = qty
	}
	return out
}

// Add increments the quantity for the given product by one.
func (c Items) Add(productID string) {
	c[productID]++
}

// Remove decrements the quantity for the given product, deleting the entry
// when removeAll is set or only a single unit remains. It returns the
// remaining quantity (zero when the entry was deleted) and whether the cart
// held the product at all.
func (c Items) Remove(productID string, removeAll bool) (remaining int, ok bool) {
	qty, ok := c[productID]
	if !ok {
		return 0, false
	}
	if removeAll || qty <= 1 {
		delete(c, productID)
		return 0, true
	}
	c[productID] = qty - 1
	return qty - 1, true
}

// Normalize drops entries with non-positive quantities. Persisted state and
// remote responses pass through here so the in-memory invariant holds no
// matter what the source contained.
func (c Items) Normalize() {
	for id, qty := range c {
		if qty <= 0 {
			delete(c, id)
		}
	}
}

// Lines converts the mapping to wire lines, sorted by product ID so callers
// that push them sequentially do so in a stable order.
func (c Items) Lines() []Line {
	lines := make([]Line, 0, len(c))
	for id, qty := range c {
		lines = append(lines, Line{ProductID: id, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines
}

// FromLines builds a cart mapping from wire lines, dropping non-positive
// quantities. Duplicate product IDs keep the last occurrence.
func FromLines(lines []Line) Items {
	items := make(Items, len(lines))
	for _, l := range lines {
		if l.Quantity > 0 {
			items[l.ProductID] = l.Quantity
		}
	}
	return items
}

// Merge combines a local and a remote cart under a local-wins policy: for any
// product present in both, the local quantity is kept; products present only
// remotely are carried over. Neither input is modified. Merging the result
// with the same remote cart again yields the same mapping.
func Merge(local, remote Items) Items {
	merged := remote.Clone()
	for id, qty := range local {
		merged[id] = qty
	}
	merged.Normalize()
	return merged
}

// TotalItems returns the sum of all quantities.
func (c Items) TotalItems() int {
	total := 0
	for _, qty := range c {
		total += qty
	}
	return total
}

// TotalAmount sums quantity * price over all entries, skipping products the
// catalog does not know about.
func (c Items) TotalAmount(catalog product.Catalog) decimal.Decimal {
	total := decimal.Zero
	for id, qty := range c {
		p, ok := catalog.Lookup(id)
		if !ok {
			continue
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}
