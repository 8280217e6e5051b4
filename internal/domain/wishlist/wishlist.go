// Package wishlist manages each user's set of saved products.
package wishlist

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/product"
)

// ErrAlreadyInWishlist is returned when a product is added twice. It is a
// normal outcome, not a failure of the store.
var ErrAlreadyInWishlist = errors.New("already in wishlist")

// Entry is one saved product.
type Entry struct {
	ID        string
	UserID    string
	ProductID string
	Product   product.Product
	CreatedAt time.Time
}

// Repository persists wishlist entries. Add must return ErrAlreadyInWishlist
// when (userID, productID) already exists.
type Repository interface {
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
	List(ctx context.Context, userID string) ([]Entry, error)
}
