package product

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrInUse is returned when deleting a product that existing orders reference.
var ErrInUse = errors.New("product is referenced by orders")

// LowStockThreshold is the highest stock level still reported as low.
const LowStockThreshold = 5

// Category groups the catalog. The zero value matches every category.
type Category string

const (
	CategoryAll       Category = ""
	CategoryMen       Category = "men"
	CategoryWomen     Category = "women"
	CategoryCosmetics Category = "cosmetics"
)

// ErrUnknownCategory is returned by ParseCategory for values outside the catalog.
var ErrUnknownCategory = errors.New("unknown category")

// ParseCategory normalizes s (case and surrounding space) into a Category.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryAll, CategoryMen, CategoryWomen, CategoryCosmetics:
		return c, nil
	default:
		return "", errors.Wrapf(ErrUnknownCategory, "%q", s)
	}
}

// Product represents a catalog item available for purchase.
type Product struct {
	ID            string
	Name          string
	Description   string
	Price         decimal.Decimal
	ImageURL      string
	Category      Category
	StockQuantity int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool { return p.StockQuantity > 0 }

// LowStock reports whether stock is positive but at most LowStockThreshold.
func (p Product) LowStock() bool {
	return p.StockQuantity > 0 && p.StockQuantity <= LowStockThreshold
}

// Filter narrows a catalog listing.
type Filter struct {
	Category Category
	// Query is matched case-insensitively as a substring of the name.
	Query string
	// Limit returns only the first N products when positive.
	Limit int
}

// Repository defines catalog persistence.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	ListIDs(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
