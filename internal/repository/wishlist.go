package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/wishlist"
)

const (
	addWishlistSQL = `INSERT INTO wishlist (id, user_id, product_id) VALUES ($1, $2, $3)`

	removeWishlistSQL = `DELETE FROM wishlist WHERE user_id = $1 AND product_id = $2`

	listWishlistSQL = `SELECT w.id, w.user_id, w.created_at,
		p.id, p.name, p.description, p.price, p.image_url, p.category, p.stock_quantity, p.created_at, p.updated_at
		FROM wishlist w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC, w.id`
)

var _ wishlist.Repository = (*WishlistRepository)(nil)

// WishlistRepository implements wishlist.Repository backed by PostgreSQL.
type WishlistRepository struct {
	pool *pgxpool.Pool
}

// NewWishlistRepository returns a WishlistRepository that uses the given pool.
func NewWishlistRepository(pool *pgxpool.Pool) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

// Add inserts an entry, relying on the (user_id, product_id) unique key to
// reject duplicates.
func (r *WishlistRepository) Add(ctx context.Context, userID, productID string) error {
	_, err := r.pool.Exec(ctx, addWishlistSQL, uuid.New().String(), userID, productID)
	switch pgCode(err) {
	case "":
	case codeUniqueViolation:
		return wishlist.ErrAlreadyInWishlist
	case codeForeignKeyViolation:
		return product.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("adding wishlist entry: %w", err)
	}
	return nil
}

// Remove deletes an entry if it exists.
func (r *WishlistRepository) Remove(ctx context.Context, userID, productID string) error {
	if _, err := r.pool.Exec(ctx, removeWishlistSQL, userID, productID); err != nil {
		return fmt.Errorf("removing wishlist entry: %w", err)
	}
	return nil
}

// List returns the entries of userID joined with their products.
func (r *WishlistRepository) List(ctx context.Context, userID string) ([]wishlist.Entry, error) {
	rows, err := r.pool.Query(ctx, listWishlistSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing wishlist: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (wishlist.Entry, error) {
		var (
			e        wishlist.Entry
			category string
		)
		err := row.Scan(
			&e.ID, &e.UserID, &e.CreatedAt,
			&e.Product.ID, &e.Product.Name, &e.Product.Description, &e.Product.Price,
			&e.Product.ImageURL, &category, &e.Product.StockQuantity,
			&e.Product.CreatedAt, &e.Product.UpdatedAt,
		)
		e.ProductID = e.Product.ID
		e.Product.Category = product.Category(category)
		return e, err
	})
}
