package media

import (
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/product"
)

type memObjects struct {
	data   map[string][]byte
	putErr error
	delErr error
}

func newMemObjects() *memObjects {
	return &memObjects{data: make(map[string][]byte)}
}

func (m *memObjects) Put(_ context.Context, obj Object) error {
	if m.putErr != nil {
		return m.putErr
	}
	b, err := io.ReadAll(obj.Body)
	if err != nil {
		return err
	}
	m.data[obj.Key] = b
	return nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, key)
	return nil
}

func (m *memObjects) URL(key string) string { return "https://cdn.example.com/" + key }

type memRows struct {
	rows      map[string]Media
	createErr error
}

func newMemRows() *memRows { return &memRows{rows: make(map[string]Media)} }

func (m *memRows) Create(_ context.Context, md *Media) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.rows[md.ID] = *md
	return nil
}

func (m *memRows) Get(_ context.Context, id string) (*Media, error) {
	md, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &md, nil
}

func (m *memRows) ListByProduct(_ context.Context, productID string) ([]Media, error) {
	var out []Media
	for _, md := range m.rows {
		if md.ProductID == productID {
			out = append(out, md)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (m *memRows) Delete(_ context.Context, id string) error {
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memRows) NextDisplayOrder(_ context.Context, productID string) (int, error) {
	next := 0
	for _, md := range m.rows {
		if md.ProductID == productID && md.DisplayOrder >= next {
			next = md.DisplayOrder + 1
		}
	}
	return next, nil
}

type stubProducts struct {
	product.Repository
	ids map[string]bool
}

func (s stubProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	if !s.ids[id] {
		return nil, product.ErrNotFound
	}
	return &product.Product{ID: id}, nil
}

func upload(productID, name, ct string) Upload {
	return Upload{
		ProductID:   productID,
		FileName:    name,
		ContentType: ct,
		Size:        5,
		AltText:     " front ",
		Body:        strings.NewReader("bytes"),
	}
}

func TestTypeFromContentType(t *testing.T) {
	typ, err := TypeFromContentType("image/png")
	require.NoError(t, err)
	assert.Equal(t, TypeImage, typ)

	typ, err = TypeFromContentType("video/mp4")
	require.NoError(t, err)
	assert.Equal(t, TypeVideo, typ)

	_, err = TypeFromContentType("application/pdf")
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestUpload(t *testing.T) {
	objects, rows := newMemObjects(), newMemRows()
	svc := NewService(objects, rows, stubProducts{ids: map[string]bool{"p1": true}})
	ctx := context.Background()

	first, err := svc.Upload(ctx, upload("p1", "Front.JPG", "image/jpeg"))
	require.NoError(t, err)
	second, err := svc.Upload(ctx, upload("p1", "clip.mp4", "video/mp4"))
	require.NoError(t, err)

	assert.Equal(t, TypeImage, first.Type)
	assert.Equal(t, TypeVideo, second.Type)
	assert.Equal(t, 0, first.DisplayOrder)
	assert.Equal(t, 1, second.DisplayOrder)
	assert.Equal(t, "front", first.AltText)
	assert.Equal(t, "products/p1/"+first.ID+".jpg", first.ObjectKey)
	assert.Equal(t, "https://cdn.example.com/"+first.ObjectKey, first.URL)
	assert.Equal(t, []byte("bytes"), objects.data[first.ObjectKey])

	list, err := svc.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
}

func TestUpload_Rejects(t *testing.T) {
	svc := NewService(newMemObjects(), newMemRows(), stubProducts{ids: map[string]bool{"p1": true}})
	ctx := context.Background()

	_, err := svc.Upload(ctx, upload("p1", "doc.pdf", "application/pdf"))
	require.ErrorIs(t, err, ErrUnsupportedType)

	_, err = svc.Upload(ctx, upload("missing", "a.png", "image/png"))
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestUpload_RowFailureRemovesObject(t *testing.T) {
	objects, rows := newMemObjects(), newMemRows()
	rows.createErr = errors.New("insert failed")
	svc := NewService(objects, rows, stubProducts{ids: map[string]bool{"p1": true}})

	_, err := svc.Upload(context.Background(), upload("p1", "a.png", "image/png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create media")
	assert.Empty(t, objects.data)
}

func TestUpload_ObjectFailure(t *testing.T) {
	objects, rows := newMemObjects(), newMemRows()
	objects.putErr = errors.New("s3 unavailable")
	svc := NewService(objects, rows, stubProducts{ids: map[string]bool{"p1": true}})

	_, err := svc.Upload(context.Background(), upload("p1", "a.png", "image/png"))
	require.Error(t, err)
	assert.Empty(t, rows.rows)
}

func TestDelete(t *testing.T) {
	objects, rows := newMemObjects(), newMemRows()
	svc := NewService(objects, rows, stubProducts{ids: map[string]bool{"p1": true}})
	ctx := context.Background()

	m, err := svc.Upload(ctx, upload("p1", "a.png", "image/png"))
	require.NoError(t, err)

	objects.delErr = errors.New("s3 unavailable")
	require.NoError(t, svc.Delete(ctx, m.ID))
	assert.Empty(t, rows.rows)

	require.ErrorIs(t, svc.Delete(ctx, m.ID), ErrNotFound)
}

func TestUpload_Disabled(t *testing.T) {
	rows := newMemRows()
	rows.rows["m1"] = Media{ID: "m1", ProductID: "p1", ObjectKey: "products/p1/m1.png"}
	svc := NewService(nil, rows, stubProducts{ids: map[string]bool{"p1": true}})
	ctx := context.Background()

	_, err := svc.Upload(ctx, upload("p1", "a.png", "image/png"))
	require.ErrorIs(t, err, ErrUploadsDisabled)

	require.NoError(t, svc.Delete(ctx, "m1"))
	assert.Empty(t, rows.rows)
}
