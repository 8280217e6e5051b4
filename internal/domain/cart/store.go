package cart

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrNoSnapshot is returned by a Persister when nothing is stored under a key.
var ErrNoSnapshot = errors.New("no cart snapshot")

// Persister is the durable storage for cart snapshots.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Discard is a Persister that stores nothing.
type Discard struct{}

// Load always reports ErrNoSnapshot.
func (Discard) Load(context.Context, string) ([]byte, error) { return nil, ErrNoSnapshot }

// Save drops the snapshot.
func (Discard) Save(context.Context, string, []byte) error { return nil }

// Store holds one session's cart. Mutations update memory first and then
// write the full snapshot through the Persister. A failed write is logged and
// marks the store dirty until a later write succeeds: the in-memory cart
// stays authoritative.
type Store struct {
	key       string
	persister Persister
	lg        *zap.Logger
	metrics   *Metrics

	mu    sync.Mutex
	items []Item
	dirty bool
}

// NewStore returns an empty cart persisted under key.
func NewStore(key string, persister Persister, lg *zap.Logger, m *Metrics) *Store {
	if persister == nil {
		persister = Discard{}
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Store{
		key:       key,
		persister: persister,
		lg:        lg,
		metrics:   m,
	}
}

// Open returns the cart persisted under key. A missing or unreadable
// snapshot yields an empty cart.
func Open(ctx context.Context, key string, persister Persister, lg *zap.Logger, m *Metrics) *Store {
	s := NewStore(key, persister, lg, m)

	data, err := s.persister.Load(ctx, key)
	switch {
	case errors.Is(err, ErrNoSnapshot):
		return s
	case err != nil:
		s.lg.Warn("Load cart snapshot", zap.String("key", key), zap.Error(err))
		return s
	}

	items, err := Decode(data)
	if err != nil {
		s.lg.Warn("Decode cart snapshot", zap.String("key", key), zap.Error(err))
		return s
	}
	s.items = items
	return s
}

// Key returns the storage key of the cart.
func (s *Store) Key() string { return s.key }

// AddItem increments the quantity of an existing line by one, or appends a new
// line with quantity 1. Display fields of an existing line are kept as first
// written.
func (s *Store) AddItem(ctx context.Context, in Input) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(in.ID); i >= 0 {
		s.items[i].Quantity++
	} else {
		s.items = append(s.items, Item{
			ID:        in.ID,
			Name:      in.Name,
			UnitPrice: in.UnitPrice,
			ImageURL:  in.ImageURL,
			Category:  in.Category,
			Quantity:  1,
		})
	}
	s.metrics.mutation(ctx, "add")
	s.persist(ctx)
}

// UpdateQuantity sets the quantity of a line to exactly quantity. A quantity
// below 1 removes the line. Unknown ids are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) {
	if quantity < 1 {
		s.RemoveItem(ctx, id)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 || s.items[i].Quantity == quantity {
		return
	}
	s.items[i].Quantity = quantity
	s.metrics.mutation(ctx, "update")
	s.persist(ctx)
}

// RemoveItem deletes the line with the given id, if any.
func (s *Store) RemoveItem(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return
	}
	s.items = slices.Delete(s.items, i, i+1)
	s.metrics.mutation(ctx, "remove")
	s.persist(ctx)
}

// Clear empties the cart. The empty snapshot is always written so storage
// left stale by an earlier failed write is repaired.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.metrics.mutation(ctx, "clear")
	s.persist(ctx)
}

// Subtract removes the given quantities from the matching lines and drops
// lines that reach zero. Lines added or raised since the quantities were read
// keep the difference.
func (s *Store) Subtract(ctx context.Context, lines []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, line := range lines {
		i := s.index(line.ID)
		if i < 0 || line.Quantity < 1 {
			continue
		}
		changed = true
		if s.items[i].Quantity > line.Quantity {
			s.items[i].Quantity -= line.Quantity
			continue
		}
		s.items = slices.Delete(s.items, i, i+1)
	}
	if !changed {
		return
	}
	s.metrics.mutation(ctx, "subtract")
	s.persist(ctx)
}

// Dirty reports whether the last snapshot write failed.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush retries the snapshot write of a dirty store and reports whether
// storage now matches memory.
func (s *Store) Flush(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty {
		s.persist(ctx)
	}
	return !s.dirty
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// ItemCount returns the sum of all quantities.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return itemCount(s.items)
}

// Total returns the sum of UnitPrice × Quantity over all lines.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return total(s.items)
}

// IsInCart reports whether a line with the given id exists.
func (s *Store) IsInCart(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index(id) >= 0
}

// View returns the lines together with their derived totals.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Items:     slices.Clone(s.items),
		ItemCount: itemCount(s.items),
		Total:     total(s.items),
	}
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.items, func(it Item) bool { return it.ID == id })
}

// persist writes the snapshot. Must be called with s.mu held so snapshots
// reach storage in mutation order.
func (s *Store) persist(ctx context.Context) {
	// The write outlives a cancelled request: the mutation already happened.
	ctx = context.WithoutCancel(ctx)
	if err := s.persister.Save(ctx, s.key, Encode(s.items)); err != nil {
		s.dirty = true
		s.metrics.persistFailure(ctx)
		s.lg.Warn("Persist cart snapshot", zap.String("key", s.key), zap.Error(err))
		return
	}
	s.dirty = false
}
