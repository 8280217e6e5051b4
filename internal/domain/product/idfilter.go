package product

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
)

const (
	idFilterMinCapacity = 10_000
	idFilterFPR         = 0.001
)

// IDFilter tracks the product ids this process has seen. It is advisory:
// products written by another process (a seeding run, another replica) are
// missing until looked up once, so a negative answer never replaces the
// repository lookup. Deleted products stay in the filter.
type IDFilter struct {
	mu sync.RWMutex
	f  *bloom.BloomFilter

	stale atomic.Int64
}

// NewIDFilter sizes a filter for at least capacity ids.
func NewIDFilter(capacity int) *IDFilter {
	capacity = max(capacity, idFilterMinCapacity)
	return &IDFilter{f: bloom.NewWithEstimates(uint(capacity), idFilterFPR)}
}

// LoadIDFilter builds a filter from every id currently in the catalog.
func LoadIDFilter(ctx context.Context, repo Repository) (*IDFilter, error) {
	ids, err := repo.ListIDs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list product ids")
	}
	f := NewIDFilter(len(ids) * 2)
	for _, id := range ids {
		f.Add(id)
	}
	return f, nil
}

// Add records id.
func (f *IDFilter) Add(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.f.AddString(id)
}

// MayContain reports false only for ids that were never added.
func (f *IDFilter) MayContain(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.f.TestString(id)
}

// Learn records an id found in the catalog that the filter did not know.
func (f *IDFilter) Learn(id string) {
	f.Add(id)
	f.stale.Add(1)
}

// Stale returns how many ids were learned after the initial load.
func (f *IDFilter) Stale() int64 { return f.stale.Load() }

// RegisterMetrics exposes the stale count on the given provider.
func (f *IDFilter) RegisterMetrics(mp metric.MeterProvider) error {
	meter := mp.Meter("github.com/xenking/storefront/internal/domain/product")
	_, err := meter.Int64ObservableCounter("storefront.product.id_filter.stale",
		metric.WithDescription("Product ids found in the catalog but missing from the id filter"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(f.Stale())
			return nil
		}),
	)
	if err != nil {
		return errors.Wrap(err, "id filter stale counter")
	}
	return nil
}
