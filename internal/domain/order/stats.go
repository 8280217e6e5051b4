package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/product"
)

// Stats are the figures shown on the admin dashboard.
type Stats struct {
	Products   int
	OutOfStock int
	LowStock   int
	Orders     int
	ByStatus   map[Status]int
	// Revenue sums the totals of orders that were not cancelled.
	Revenue decimal.Decimal
	// Recent holds up to RecentOrders newest orders.
	Recent []Order
}

// RecentOrders is the number of orders included in Stats.Recent.
const RecentOrders = 10

// Stats gathers catalog and order figures concurrently.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var (
		products []product.Product
		orders   []Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if products, err = s.products.List(gctx, product.Filter{}); err != nil {
			return errors.Wrap(err, "list products")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if orders, err = s.orders.List(gctx, ""); err != nil {
			return errors.Wrap(err, "list orders")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	st := &Stats{
		Products: len(products),
		Orders:   len(orders),
		ByStatus: make(map[Status]int, len(Statuses)),
		Revenue:  decimal.Zero,
	}
	for _, p := range products {
		switch {
		case !p.InStock():
			st.OutOfStock++
		case p.LowStock():
			st.LowStock++
		}
	}
	for _, o := range orders {
		st.ByStatus[o.Status]++
		if o.Status != StatusCancelled {
			st.Revenue = st.Revenue.Add(o.TotalAmount)
		}
	}
	st.Recent = orders[:min(len(orders), RecentOrders)]
	return st, nil
}
