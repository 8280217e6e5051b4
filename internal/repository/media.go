package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/media"
	"github.com/xenking/storefront/internal/domain/product"
)

const mediaColumns = `id, product_id, url, object_key, media_type, display_order, alt_text, created_at, updated_at`

const (
	createMediaSQL = `INSERT INTO product_media (` + mediaColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	getMediaSQL = `SELECT ` + mediaColumns + ` FROM product_media WHERE id = $1`

	listMediaSQL = `SELECT ` + mediaColumns + ` FROM product_media
		WHERE product_id = $1
		ORDER BY display_order, created_at`

	deleteMediaSQL = `DELETE FROM product_media WHERE id = $1`

	nextDisplayOrderSQL = `SELECT COALESCE(MAX(display_order) + 1, 0)
		FROM product_media WHERE product_id = $1`
)

var _ media.Repository = (*MediaRepository)(nil)

// MediaRepository implements media.Repository backed by PostgreSQL.
type MediaRepository struct {
	pool *pgxpool.Pool
}

// NewMediaRepository returns a MediaRepository that uses the given pool.
func NewMediaRepository(pool *pgxpool.Pool) *MediaRepository {
	return &MediaRepository{pool: pool}
}

// Create inserts m.
func (r *MediaRepository) Create(ctx context.Context, m *media.Media) error {
	_, err := r.pool.Exec(ctx, createMediaSQL,
		m.ID, m.ProductID, m.URL, m.ObjectKey, string(m.Type), m.DisplayOrder,
		m.AltText, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return product.ErrNotFound
		}
		return fmt.Errorf("creating media %q: %w", m.ID, err)
	}
	return nil
}

// Get returns a media row by id.
func (r *MediaRepository) Get(ctx context.Context, id string) (*media.Media, error) {
	rows, err := r.pool.Query(ctx, getMediaSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting media %q: %w", id, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, scanMedia)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, media.ErrNotFound
		}
		return nil, fmt.Errorf("getting media %q: %w", id, err)
	}
	return &m, nil
}

// ListByProduct returns the media of productID in display order.
func (r *MediaRepository) ListByProduct(ctx context.Context, productID string) ([]media.Media, error) {
	rows, err := r.pool.Query(ctx, listMediaSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing media: %w", err)
	}
	return pgx.CollectRows(rows, scanMedia)
}

// Delete removes a media row.
func (r *MediaRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteMediaSQL, id)
	if err != nil {
		return fmt.Errorf("deleting media %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return media.ErrNotFound
	}
	return nil
}

// NextDisplayOrder returns the display order for a new media item of productID.
func (r *MediaRepository) NextDisplayOrder(ctx context.Context, productID string) (int, error) {
	var next int
	if err := r.pool.QueryRow(ctx, nextDisplayOrderSQL, productID).Scan(&next); err != nil {
		return 0, fmt.Errorf("next display order: %w", err)
	}
	return next, nil
}

func scanMedia(row pgx.CollectableRow) (media.Media, error) {
	var (
		m   media.Media
		typ string
	)
	err := row.Scan(
		&m.ID, &m.ProductID, &m.URL, &m.ObjectKey, &typ, &m.DisplayOrder,
		&m.AltText, &m.CreatedAt, &m.UpdatedAt,
	)
	m.Type = media.Type(typ)
	return m, err
}
