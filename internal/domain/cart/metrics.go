package cart

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cart activity. A nil *Metrics records nothing.
type Metrics struct {
	mutations       metric.Int64Counter
	persistFailures metric.Int64Counter
	sessions        metric.Int64UpDownCounter
}

// NewMetrics registers the cart instruments on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("github.com/xenking/storefront/internal/domain/cart")

	mutations, err := meter.Int64Counter("storefront.cart.mutations",
		metric.WithDescription("Cart mutations by operation"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "mutations counter")
	}
	persistFailures, err := meter.Int64Counter("storefront.cart.persist_failures",
		metric.WithDescription("Cart snapshot writes that failed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "persist failures counter")
	}
	sessions, err := meter.Int64UpDownCounter("storefront.cart.sessions",
		metric.WithDescription("Cart sessions held in memory"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "sessions counter")
	}

	return &Metrics{
		mutations:       mutations,
		persistFailures: persistFailures,
		sessions:        sessions,
	}, nil
}

func (m *Metrics) mutation(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *Metrics) persistFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.persistFailures.Add(ctx, 1)
}

func (m *Metrics) sessionDelta(ctx context.Context, delta int64) {
	if m == nil || delta == 0 {
		return
	}
	m.sessions.Add(ctx, delta)
}
