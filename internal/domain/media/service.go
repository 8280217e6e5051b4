package media

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/product"
)

// Upload describes a new media file for a product.
type Upload struct {
	ProductID   string
	FileName    string
	ContentType string
	Size        int64
	AltText     string
	Body        io.Reader
}

// Service manages product media.
type Service struct {
	objects  ObjectStore
	rows     Repository
	products product.Repository
	now      func() time.Time
}

// NewService creates a media Service. A nil objects store keeps media
// readable but rejects uploads with ErrUploadsDisabled.
func NewService(objects ObjectStore, rows Repository, products product.Repository) *Service {
	return &Service{
		objects:  objects,
		rows:     rows,
		products: products,
		now:      time.Now,
	}
}

// Upload writes the file to the object store and records it. The object is
// removed again if the row cannot be inserted.
func (s *Service) Upload(ctx context.Context, u Upload) (*Media, error) {
	if s.objects == nil {
		return nil, ErrUploadsDisabled
	}
	typ, err := TypeFromContentType(u.ContentType)
	if err != nil {
		return nil, err
	}
	if _, err := s.products.GetByID(ctx, u.ProductID); err != nil {
		return nil, err
	}

	order, err := s.rows.NextDisplayOrder(ctx, u.ProductID)
	if err != nil {
		return nil, errors.Wrap(err, "next display order")
	}

	id := uuid.New().String()
	key := objectKey(u.ProductID, id, u.FileName)
	if err := s.objects.Put(ctx, Object{
		Key:         key,
		ContentType: u.ContentType,
		Size:        u.Size,
		Body:        u.Body,
	}); err != nil {
		return nil, errors.Wrap(err, "store object")
	}

	now := s.now().UTC()
	m := &Media{
		ID:           id,
		ProductID:    u.ProductID,
		URL:          s.objects.URL(key),
		ObjectKey:    key,
		Type:         typ,
		DisplayOrder: order,
		AltText:      strings.TrimSpace(u.AltText),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.rows.Create(ctx, m); err != nil {
		if derr := s.objects.Delete(context.WithoutCancel(ctx), key); derr != nil {
			zctx.From(ctx).Warn("Failed to remove orphaned media object",
				zap.String("key", key), zap.Error(derr))
		}
		return nil, errors.Wrap(err, "create media")
	}
	return m, nil
}

// List returns the media of a product in display order.
func (s *Service) List(ctx context.Context, productID string) ([]Media, error) {
	items, err := s.rows.ListByProduct(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "list media")
	}
	return items, nil
}

// Delete removes the media row, then the stored object. A failure to remove
// the object is logged only.
func (s *Service) Delete(ctx context.Context, id string) error {
	m, err := s.rows.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.rows.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete media")
	}
	if m.ObjectKey == "" || s.objects == nil {
		return nil
	}
	if err := s.objects.Delete(ctx, m.ObjectKey); err != nil {
		zctx.From(ctx).Warn("Failed to remove media object",
			zap.String("media_id", id), zap.String("key", m.ObjectKey), zap.Error(err))
	}
	return nil
}

func objectKey(productID, id, fileName string) string {
	ext := strings.ToLower(path.Ext(path.Base(fileName)))
	return path.Join("products", productID, id+ext)
}
