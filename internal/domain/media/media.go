package media

import (
	"context"
	"io"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a media row does not exist.
var ErrNotFound = errors.New("media not found")

// ErrUnsupportedType is returned for uploads that are neither image nor video.
var ErrUnsupportedType = errors.New("unsupported media type")

// ErrUploadsDisabled is returned by Upload when no object store is configured.
var ErrUploadsDisabled = errors.New("media uploads are not configured")

// Type distinguishes images from videos.
type Type string

const (
	TypeImage Type = "image"
	TypeVideo Type = "video"
)

// TypeFromContentType maps a MIME type onto a media Type.
func TypeFromContentType(ct string) (Type, error) {
	switch {
	case len(ct) >= 6 && ct[:6] == "image/":
		return TypeImage, nil
	case len(ct) >= 6 && ct[:6] == "video/":
		return TypeVideo, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedType, "%q", ct)
	}
}

// Media is an image or video attached to a product.
type Media struct {
	ID        string
	ProductID string
	URL       string
	// ObjectKey locates the file in the object store.
	ObjectKey    string
	Type         Type
	DisplayOrder int
	AltText      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Object is a file to be written to the object store.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ObjectStore keeps media files.
type ObjectStore interface {
	Put(ctx context.Context, obj Object) error
	Delete(ctx context.Context, key string) error
	// URL returns the public address of key.
	URL(key string) string
}

// Repository stores media rows.
type Repository interface {
	Create(ctx context.Context, m *Media) error
	Get(ctx context.Context, id string) (*Media, error)
	// ListByProduct returns media ordered by display order.
	ListByProduct(ctx context.Context, productID string) ([]Media, error)
	Delete(ctx context.Context, id string) error
	// NextDisplayOrder returns one past the highest display order of productID.
	NextDisplayOrder(ctx context.Context, productID string) (int, error)
}
