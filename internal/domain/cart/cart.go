// Package cart implements the per-session shopping cart: an insertion-ordered
// list of line items with quantities, persisted as a snapshot after every
// mutation.
package cart

import (
	"github.com/shopspring/decimal"
)

// Item is a single cart line. A cart never holds two items with the same ID
// and never retains an item with Quantity < 1.
type Item struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	ImageURL  string
	Category  string
	Quantity  int
}

// LineTotal returns UnitPrice × Quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Input carries the display fields of a product being added to the cart.
type Input struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	ImageURL  string
	Category  string
}

// View is a consistent read of a cart taken under a single lock.
type View struct {
	Items     []Item
	ItemCount int
	Total     decimal.Decimal
}

func itemCount(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func total(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}
