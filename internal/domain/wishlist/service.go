package wishlist

import (
	"context"
	"slices"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/product"
)

// Service exposes wishlist operations for an authenticated user.
type Service struct {
	entries  Repository
	products product.Repository
}

// NewService creates a wishlist Service.
func NewService(entries Repository, products product.Repository) *Service {
	return &Service{entries: entries, products: products}
}

// Add saves productID for userID. Adding a product that is already saved
// returns ErrAlreadyInWishlist and leaves the wishlist unchanged.
func (s *Service) Add(ctx context.Context, userID, productID string) error {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return product.ErrNotFound
		}
		return errors.Wrap(err, "get product")
	}

	if err := s.entries.Add(ctx, userID, productID); err != nil {
		if errors.Is(err, ErrAlreadyInWishlist) {
			return ErrAlreadyInWishlist
		}
		return errors.Wrap(err, "add wishlist entry")
	}
	return nil
}

// Remove deletes productID from the wishlist. Removing an absent product is
// not an error.
func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	if err := s.entries.Remove(ctx, userID, productID); err != nil {
		return errors.Wrap(err, "remove wishlist entry")
	}
	return nil
}

// List returns the saved products of userID.
func (s *Service) List(ctx context.Context, userID string) ([]Entry, error) {
	entries, err := s.entries.List(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list wishlist")
	}
	return entries, nil
}

// Contains reports whether productID is saved by userID.
func (s *Service) Contains(ctx context.Context, userID, productID string) (bool, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(entries, func(e Entry) bool {
		return e.ProductID == productID
	}), nil
}
