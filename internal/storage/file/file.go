// Package file stores cart snapshots as files in a directory.
package file

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/cart"
)

var _ cart.Persister = (*CartStore)(nil)

// CartStore implements cart.Persister with one file per key.
type CartStore struct {
	dir string
}

// NewCartStore creates dir if needed and returns a CartStore rooted there.
func NewCartStore(dir string) (*CartStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrap(err, "create snapshot dir")
	}
	return &CartStore{dir: dir}, nil
}

func (s *CartStore) path(key string) string {
	return filepath.Join(s.dir, base64.RawURLEncoding.EncodeToString([]byte(key))+".json")
}

// Load reads the snapshot stored under key.
func (s *CartStore) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, cart.ErrNoSnapshot
		}
		return nil, errors.Wrap(err, "read snapshot")
	}
	return data, nil
}

// Save replaces the snapshot under key. The file is written to a temporary
// name first and renamed, so readers never see a partial snapshot.
func (s *CartStore) Save(_ context.Context, key string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close snapshot")
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return errors.Wrap(err, "rename snapshot")
	}
	return nil
}
