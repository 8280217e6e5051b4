package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type memPersister struct {
	mu      sync.Mutex
	data    map[string][]byte
	saves   int
	saveErr error
	loadErr error
}

func newMemPersister() *memPersister {
	return &memPersister{data: make(map[string][]byte)}
}

func (m *memPersister) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	b, ok := m.data[key]
	if !ok {
		return nil, ErrNoSnapshot
	}
	return b, nil
}

func (m *memPersister) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = data
	return nil
}

// --- Helpers ---

func input(id string, price int64) Input {
	return Input{
		ID:        id,
		Name:      "Product " + id,
		UnitPrice: decimal.NewFromInt(price),
		ImageURL:  id + ".jpg",
		Category:  "men",
	}
}

// --- Tests ---

func TestStore_AddSameIDIncrements(t *testing.T) {
	ctx := context.Background()
	s := NewStore("cart", newMemPersister(), nil, nil)

	for range 7 {
		s.AddItem(ctx, input("a", 10))
	}

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
	assert.Equal(t, 7, s.ItemCount())
}

func TestStore_AddKeepsFirstDisplayFields(t *testing.T) {
	ctx := context.Background()
	s := NewStore("cart", nil, nil, nil)

	s.AddItem(ctx, input("a", 10))
	s.AddItem(ctx, Input{ID: "a", Name: "Renamed", UnitPrice: decimal.NewFromInt(99)})

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Product a", items[0].Name)
	assert.True(t, decimal.NewFromInt(10).Equal(items[0].UnitPrice))
	assert.Equal(t, 2, items[0].Quantity)
}

func TestStore_PreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore("cart", nil, nil, nil)

	s.AddItem(ctx, input("c", 1))
	s.AddItem(ctx, input("a", 1))
	s.AddItem(ctx, input("b", 1))
	s.AddItem(ctx, input("c", 1))

	var ids []string
	for _, it := range s.Items() {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestStore_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		wantLines int
		wantQty   int
	}{
		{name: "sets exact quantity", quantity: 5, wantLines: 1, wantQty: 5},
		{name: "one is kept", quantity: 1, wantLines: 1, wantQty: 1},
		{name: "zero removes", quantity: 0, wantLines: 0},
		{name: "negative removes", quantity: -3, wantLines: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := NewStore("cart", nil, nil, nil)
			s.AddItem(ctx, input("a", 10))
			s.AddItem(ctx, input("a", 10))

			s.UpdateQuantity(ctx, "a", tt.quantity)

			items := s.Items()
			require.Len(t, items, tt.wantLines)
			if tt.wantLines > 0 {
				assert.Equal(t, tt.wantQty, items[0].Quantity)
			}
		})
	}
}

func TestStore_UpdateQuantityUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	s := NewStore("cart", p, nil, nil)
	s.AddItem(ctx, input("a", 10))
	saves := p.saves

	s.UpdateQuantity(ctx, "missing", 4)

	assert.Equal(t, saves, p.saves, "no write expected for a no-op")
	assert.Equal(t, 1, s.ItemCount())
}

func TestStore_RemoveItemTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	s := NewStore("cart", p, nil, nil)
	s.AddItem(ctx, input("a", 10))
	s.AddItem(ctx, input("b", 20))

	s.RemoveItem(ctx, "a")
	afterFirst := s.View()
	saves := p.saves

	s.RemoveItem(ctx, "a")

	assert.Equal(t, afterFirst, s.View())
	assert.Equal(t, saves, p.saves)
	assert.False(t, s.IsInCart("a"))
	assert.True(t, s.IsInCart("b"))
}

func TestStore_TotalTracksMutations(t *testing.T) {
	ctx := context.Background()
	s := NewStore("cart", nil, nil, nil)

	s.AddItem(ctx, Input{ID: "a", UnitPrice: decimal.RequireFromString("19.99")})
	s.AddItem(ctx, Input{ID: "b", UnitPrice: decimal.RequireFromString("5.01")})
	s.UpdateQuantity(ctx, "a", 3)

	assert.True(t, decimal.RequireFromString("64.98").Equal(s.Total()), "got %s", s.Total())

	s.RemoveItem(ctx, "b")
	assert.True(t, decimal.RequireFromString("59.97").Equal(s.Total()), "got %s", s.Total())
}

func TestStore_ClearResetsDerivedValues(t *testing.T) {
	ctx := context.Background()
	s := NewStore("cart", nil, nil, nil)
	s.AddItem(ctx, input("a", 10))
	s.AddItem(ctx, input("b", 20))

	s.Clear(ctx)

	v := s.View()
	assert.Empty(t, v.Items)
	assert.Equal(t, 0, v.ItemCount)
	assert.True(t, decimal.Zero.Equal(v.Total))
}

func TestStore_Scenario(t *testing.T) {
	ctx := context.Background()
	s := NewStore("cart", nil, nil, nil)

	s.AddItem(ctx, input("A", 500))
	s.AddItem(ctx, input("A", 500))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, decimal.NewFromInt(1000).Equal(s.Total()))

	s.UpdateQuantity(ctx, "A", 1)
	assert.True(t, decimal.NewFromInt(500).Equal(s.Total()))

	s.RemoveItem(ctx, "A")
	assert.Empty(t, s.Items())
	assert.Equal(t, 0, s.ItemCount())
}

func TestStore_PersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	s := NewStore("cart:s1", p, nil, nil)

	s.AddItem(ctx, input("a", 10))
	s.AddItem(ctx, input("a", 10))
	s.UpdateQuantity(ctx, "a", 5)
	s.RemoveItem(ctx, "a")
	s.Clear(ctx)

	assert.Equal(t, 5, p.saves)
	assert.JSONEq(t, `[]`, string(p.data["cart:s1"]))
}

func TestStore_PersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	p.saveErr = errors.New("quota exceeded")
	s := NewStore("cart", p, nil, nil)

	s.AddItem(ctx, input("a", 10))
	s.AddItem(ctx, input("b", 20))

	assert.Equal(t, 2, s.ItemCount())
	assert.True(t, decimal.NewFromInt(30).Equal(s.Total()))
	assert.Empty(t, p.data)
	assert.True(t, s.Dirty())
}

func TestStore_FlushAfterRecovery(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	p.saveErr = errors.New("quota exceeded")
	s := NewStore("cart", p, nil, nil)

	s.AddItem(ctx, input("a", 10))
	require.True(t, s.Dirty())
	assert.False(t, s.Flush(ctx))

	p.saveErr = nil
	assert.True(t, s.Flush(ctx))
	assert.False(t, s.Dirty())

	restored := Open(ctx, "cart", p, nil, nil)
	assert.Equal(t, 1, restored.ItemCount())

	saves := p.saves
	assert.True(t, s.Flush(ctx))
	assert.Equal(t, saves, p.saves, "clean store is not rewritten")
}

func TestStore_Subtract(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	s := NewStore("cart", p, nil, nil)

	s.AddItem(ctx, input("a", 10))
	s.AddItem(ctx, input("a", 10))
	s.AddItem(ctx, input("b", 20))
	ordered := s.Items()

	// Changed elsewhere while the order was being placed.
	s.AddItem(ctx, input("a", 10))
	s.AddItem(ctx, input("c", 5))

	s.Subtract(ctx, ordered)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, "c", items[1].ID)
	assert.Equal(t, 1, items[1].Quantity)

	restored := Open(ctx, "cart", p, nil, nil)
	assert.Equal(t, 2, restored.ItemCount())
}

func TestStore_SubtractUnchangedEmpties(t *testing.T) {
	ctx := context.Background()
	s := NewStore("cart", nil, nil, nil)
	s.AddItem(ctx, input("a", 10))
	s.UpdateQuantity(ctx, "a", 3)

	s.Subtract(ctx, s.Items())
	assert.Zero(t, s.ItemCount())

	// Lines removed elsewhere are skipped.
	s.Subtract(ctx, []Item{{ID: "a", Quantity: 1}})
	assert.Zero(t, s.ItemCount())
}

func TestOpen_RestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()

	first := NewStore("cart:s1", p, nil, nil)
	first.AddItem(ctx, input("a", 10))
	first.AddItem(ctx, input("b", 20))
	first.UpdateQuantity(ctx, "b", 3)

	restored := Open(ctx, "cart:s1", p, nil, nil)

	assert.Equal(t, first.Items(), restored.Items())
	assert.True(t, decimal.NewFromInt(70).Equal(restored.Total()))
}

func TestOpen_UnreadableSnapshotYieldsEmptyCart(t *testing.T) {
	ctx := context.Background()

	t.Run("corrupt data", func(t *testing.T) {
		p := newMemPersister()
		p.data["cart"] = []byte(`{not json`)
		s := Open(ctx, "cart", p, nil, nil)
		assert.Empty(t, s.Items())
	})

	t.Run("load error", func(t *testing.T) {
		p := newMemPersister()
		p.loadErr = errors.New("connection refused")
		s := Open(ctx, "cart", p, nil, nil)
		assert.Empty(t, s.Items())
	})
}

func TestStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := NewStore("cart", newMemPersister(), nil, nil)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddItem(ctx, input("a", 1))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.ItemCount())
	assert.Len(t, s.Items(), 1)
}
