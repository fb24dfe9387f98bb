package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RiyaSaju106/QuickIT/internal/domain/product"
)

func newCatalog(prices map[string]int64) product.MapCatalog {
	m := make(product.MapCatalog, len(prices))
	for id, price := range prices {
		m[id] = product.Product{ID: id, Name: id, Price: decimal.NewFromInt(price)}
	}
	return m
}

func TestAddRemove_NeverNonPositive(t *testing.T) {
	c := Items{}

	c.Add("p1")
	c.Add("p1")
	c.Add("p2")
	assert.Equal(t, Items{"p1": 2, "p2": 1}, c)

	// Removing the last unit deletes the entry rather than leaving zero.
	_, ok := c.Remove("p2", false)
	require.True(t, ok)
	_, present := c["p2"]
	assert.False(t, present)

	// Removing from an absent entry is a no-op.
	_, ok = c.Remove("p2", false)
	assert.False(t, ok)

	remaining, ok := c.Remove("p1", false)
	require.True(t, ok)
	assert.Equal(t, 1, remaining)

	c.Add("p1")
	_, ok = c.Remove("p1", true)
	require.True(t, ok)
	assert.Empty(t, c)

	for _, qty := range c {
		assert.Positive(t, qty)
	}
}

func TestRemove_RemoveAllDeletesEntry(t *testing.T) {
	c := Items{"p1": 5}
	remaining, ok := c.Remove("p1", true)
	require.True(t, ok)
	assert.Zero(t, remaining)
	assert.Empty(t, c)
}

func TestMerge_LocalWins(t *testing.T) {
	local := Items{"A": 2, "B": 1}
	remote := Items{"B": 5, "C": 3}

	merged := Merge(local, remote)

	assert.Equal(t, Items{"A": 2, "B": 1, "C": 3}, merged)
	// Inputs untouched.
	assert.Equal(t, Items{"A": 2, "B": 1}, local)
	assert.Equal(t, Items{"B": 5, "C": 3}, remote)
}

func TestMerge_Idempotent(t *testing.T) {
	local := Items{"A": 2, "B": 1}
	remote := Items{"B": 5, "C": 3}

	once := Merge(local, remote)
	twice := Merge(once, remote)

	assert.Equal(t, once, twice)
}

func TestMerge_DropsNonPositiveRemote(t *testing.T) {
	merged := Merge(Items{}, Items{"A": 0, "B": -2, "C": 1})
	assert.Equal(t, Items{"C": 1}, merged)
}

func TestFromLines(t *testing.T) {
	items := FromLines([]Line{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 0},
		{ProductID: "p3", Quantity: 1},
	})
	assert.Equal(t, Items{"p1": 2, "p3": 1}, items)
}

func TestLines_SortedByProductID(t *testing.T) {
	c := Items{"b": 2, "a": 1, "c": 3}
	lines := c.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, []Line{{"a", 1}, {"b", 2}, {"c", 3}}, lines)
}

func TestTotals(t *testing.T) {
	catalog := newCatalog(map[string]int64{"p1": 100, "p2": 50})
	c := Items{"p1": 2, "p2": 1, "ghost": 4}

	assert.Equal(t, 7, c.TotalItems())
	// Unknown products are skipped, not priced at zero implicitly counted.
	assert.True(t, c.TotalAmount(catalog).Equal(decimal.NewFromInt(250)))
}

func TestTotalAmount_EmptyCart(t *testing.T) {
	assert.True(t, Items{}.TotalAmount(newCatalog(nil)).IsZero())
}
