package order

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID    map[string]*product.Product
	getErr  error
	listErr error
	batches int
}

func (m *mockProductRepo) List(_ context.Context, f product.Filter) ([]product.Product, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]product.Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return f.Apply(out), nil
}

func (m *mockProductRepo) ListIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.byID))
	for id := range m.byID {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	m.batches++
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Create(context.Context, *product.Product) error { return nil }
func (m *mockProductRepo) Update(context.Context, *product.Product) error { return nil }
func (m *mockProductRepo) Delete(context.Context, string) error           { return nil }

type mockOrderRepo struct {
	orders    map[string]*Order
	lastOrder *Order
	updates   []StatusUpdate
	err       error
}

func newOrderRepo(orders ...Order) *mockOrderRepo {
	m := &mockOrderRepo{orders: make(map[string]*Order)}
	for i := range orders {
		m.orders[orders[i].ID] = &orders[i]
	}
	return m
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.lastOrder = o
	if m.err != nil {
		return m.err
	}
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) List(_ context.Context, userID string) ([]Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []Order
	for _, o := range m.orders {
		if userID == "" || o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, u StatusUpdate) (*Order, error) {
	m.updates = append(m.updates, u)
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.orders[u.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if o.Status != u.From || o.Version != u.Version {
		return nil, ErrVersionConflict
	}
	o.Status = u.To
	o.Version++
	o.UpdatedAt = u.At
	cp := *o
	return &cp, nil
}

// --- Helpers ---

func newTestProduct(id, name string, price decimal.Decimal) product.Product {
	return product.Product{
		ID:            id,
		Name:          name,
		Price:         price,
		Category:      product.CategoryMen,
		ImageURL:      "/img/" + id + ".jpg",
		StockQuantity: 10,
	}
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &mockProductRepo{byID: byID}
}

func checkout(items ...LineRequest) PlaceOrderRequest {
	return PlaceOrderRequest{
		Items:         items,
		PaymentMethod: PaymentCOD,
		Shipping: ShippingAddress{
			Address: "12 MG Road",
			City:    "Pune",
			State:   "MH",
			Pincode: "411001",
		},
		Contact: ContactInfo{
			FirstName: "Asha",
			LastName:  "Rao",
			Email:     "asha@example.com",
			Phone:     "9876543210",
		},
	}
}

func pendingOrder(id, userID string) Order {
	return Order{
		ID:          id,
		UserID:      userID,
		Status:      StatusPending,
		TotalAmount: decimal.NewFromInt(100),
		Version:     1,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// --- Tests ---

func TestPlaceOrder_EmptyItems(t *testing.T) {
	svc := NewService(newProductRepo(), newOrderRepo(), Config{}, nil)

	_, err := svc.PlaceOrder(context.Background(), "u1", checkout())
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	p1 := newTestProduct("p1", "Shirt", decimal.NewFromInt(10))
	svc := NewService(newProductRepo(p1), newOrderRepo(), Config{}, nil)

	_, err := svc.PlaceOrder(context.Background(), "u1", checkout(LineRequest{ProductID: "p1", Quantity: 0}))

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.ProductID)
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	svc := NewService(newProductRepo(), newOrderRepo(), Config{}, nil)

	_, err := svc.PlaceOrder(context.Background(), "u1", checkout(LineRequest{ProductID: "missing", Quantity: 1}))

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "missing", pnfErr.ProductID)
}

func TestPlaceOrder_Validation(t *testing.T) {
	p1 := newTestProduct("p1", "Shirt", decimal.NewFromInt(10))

	tests := []struct {
		name   string
		mutate func(*PlaceOrderRequest)
		field  string
	}{
		{
			name:   "unknown payment method",
			mutate: func(r *PlaceOrderRequest) { r.PaymentMethod = "cheque" },
			field:  "paymentmethod",
		},
		{
			name:   "bad email",
			mutate: func(r *PlaceOrderRequest) { r.Contact.Email = "not-an-email" },
			field:  "contact.email",
		},
		{
			name:   "missing city",
			mutate: func(r *PlaceOrderRequest) { r.Shipping.City = "" },
			field:  "shipping.city",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := newOrderRepo()
			svc := NewService(newProductRepo(p1), orders, Config{}, nil)

			req := checkout(LineRequest{ProductID: "p1", Quantity: 1})
			tt.mutate(&req)

			_, err := svc.PlaceOrder(context.Background(), "u1", req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Nil(t, orders.lastOrder)
		})
	}
}

func TestPlaceOrder_PricesFromCatalog(t *testing.T) {
	p1 := newTestProduct("p1", "Shirt", decimal.RequireFromString("499.00"))
	p2 := newTestProduct("p2", "Lipstick", decimal.RequireFromString("250.00"))
	products := newProductRepo(p1, p2)
	orders := newOrderRepo()
	svc := NewService(products, orders, Config{}, nil)

	o, err := svc.PlaceOrder(context.Background(), "u1", checkout(
		LineRequest{ProductID: "p1", Quantity: 2},
		LineRequest{ProductID: "p2", Quantity: 1},
	))
	require.NoError(t, err)

	// (2*499 + 250) * 1.18 = 1472.64 -> 1473
	assert.True(t, decimal.RequireFromString("1473").Equal(o.TotalAmount), o.TotalAmount.String())
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 1, o.Version)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, "12 MG Road, Pune, MH - 411001", o.ShippingAddress)
	assert.Equal(t, 1, products.batches)

	require.Len(t, o.Items, 2)
	assert.Equal(t, "Shirt", o.Items[0].ProductName)
	assert.Equal(t, "/img/p1.jpg", o.Items[0].ProductImage)
	assert.True(t, decimal.RequireFromString("499.00").Equal(o.Items[0].Price))
	for _, it := range o.Items {
		assert.Equal(t, o.ID, it.OrderID)
		assert.NotEmpty(t, it.ID)
	}
	assert.Same(t, o, orders.lastOrder)
}

func TestPlaceOrder_CustomTaxRate(t *testing.T) {
	p1 := newTestProduct("p1", "Shirt", decimal.NewFromInt(100))
	svc := NewService(newProductRepo(p1), newOrderRepo(), Config{TaxRate: decimal.RequireFromString("0.05")}, nil)

	o, err := svc.PlaceOrder(context.Background(), "u1", checkout(LineRequest{ProductID: "p1", Quantity: 3}))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(315).Equal(o.TotalAmount))
}

func TestPlaceOrder_CatalogError(t *testing.T) {
	products := newProductRepo()
	products.getErr = errors.New("connection reset")
	svc := NewService(products, newOrderRepo(), Config{}, nil)

	_, err := svc.PlaceOrder(context.Background(), "u1", checkout(LineRequest{ProductID: "p1", Quantity: 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get products")
}

func TestPlaceOrder_OrderCreateError(t *testing.T) {
	p1 := newTestProduct("p1", "Shirt", decimal.NewFromInt(10))
	orders := newOrderRepo()
	orders.err = errors.New("db write failed")
	svc := NewService(newProductRepo(p1), orders, Config{}, nil)

	_, err := svc.PlaceOrder(context.Background(), "u1", checkout(LineRequest{ProductID: "p1", Quantity: 1}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

func TestGet_Visibility(t *testing.T) {
	svc := NewService(newProductRepo(), newOrderRepo(pendingOrder("o1", "u1")), Config{}, nil)
	ctx := context.Background()

	o, err := svc.Get(ctx, Actor{UserID: "u1"}, "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)

	_, err = svc.Get(ctx, Actor{UserID: "u2"}, "o1")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(ctx, Actor{UserID: "admin", Admin: true}, "o1")
	require.NoError(t, err)

	_, err = svc.Get(ctx, Actor{UserID: "u1"}, "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList_ScopedToActor(t *testing.T) {
	svc := NewService(newProductRepo(), newOrderRepo(
		pendingOrder("o1", "u1"),
		pendingOrder("o2", "u2"),
		pendingOrder("o3", "u1"),
	), Config{}, nil)
	ctx := context.Background()

	mine, err := svc.List(ctx, Actor{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := svc.List(ctx, Actor{UserID: "admin", Admin: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateStatus(t *testing.T) {
	admin := Actor{UserID: "admin", Admin: true}
	owner := Actor{UserID: "u1"}

	tests := []struct {
		name    string
		actor   Actor
		from    Status
		to      Status
		version int
		wantErr error
		wantTr  bool
	}{
		{name: "admin processes pending", actor: admin, from: StatusPending, to: StatusProcessing},
		{name: "admin ships processing", actor: admin, from: StatusProcessing, to: StatusShipped},
		{name: "admin delivers shipped", actor: admin, from: StatusShipped, to: StatusDelivered},
		{name: "admin cancels pending", actor: admin, from: StatusPending, to: StatusCancelled},
		{name: "owner cancels pending", actor: owner, from: StatusPending, to: StatusCancelled},
		{name: "owner cannot process", actor: owner, from: StatusPending, to: StatusProcessing, wantErr: ErrForbidden},
		{name: "cancel after processing", actor: admin, from: StatusProcessing, to: StatusCancelled, wantTr: true},
		{name: "owner cancel after processing", actor: owner, from: StatusProcessing, to: StatusCancelled, wantTr: true},
		{name: "skip to delivered", actor: admin, from: StatusPending, to: StatusDelivered, wantTr: true},
		{name: "delivered is final", actor: admin, from: StatusDelivered, to: StatusCancelled, wantTr: true},
		{name: "stale version", actor: admin, from: StatusPending, to: StatusProcessing, version: 7, wantErr: ErrVersionConflict},
		{name: "matching version", actor: admin, from: StatusPending, to: StatusProcessing, version: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := pendingOrder("o1", "u1")
			o.Status = tt.from
			orders := newOrderRepo(o)
			svc := NewService(newProductRepo(), orders, Config{}, nil)

			got, err := svc.UpdateStatus(context.Background(), tt.actor, "o1", tt.to, tt.version)

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, orders.updates)
			case tt.wantTr:
				var trErr *InvalidTransitionError
				require.ErrorAs(t, err, &trErr)
				assert.Equal(t, tt.from, trErr.From)
				assert.Equal(t, tt.to, trErr.To)
				assert.Empty(t, orders.updates)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.to, got.Status)
				assert.Equal(t, 2, got.Version)
				require.Len(t, orders.updates, 1)
				assert.Equal(t, tt.from, orders.updates[0].From)
			}
		})
	}
}

func TestUpdateStatus_OtherUsersOrder(t *testing.T) {
	svc := NewService(newProductRepo(), newOrderRepo(pendingOrder("o1", "u1")), Config{}, nil)

	_, err := svc.UpdateStatus(context.Background(), Actor{UserID: "u2"}, "o1", StatusCancelled, 0)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus_ConcurrentChange(t *testing.T) {
	orders := newOrderRepo(pendingOrder("o1", "u1"))
	orders.err = ErrVersionConflict
	svc := NewService(newProductRepo(), orders, Config{}, nil)

	_, err := svc.UpdateStatus(context.Background(), Actor{Admin: true}, "o1", StatusProcessing, 0)
	require.ErrorIs(t, err, ErrVersionConflict)
}

func TestStats(t *testing.T) {
	p1 := newTestProduct("p1", "Shirt", decimal.NewFromInt(10))
	p2 := newTestProduct("p2", "Kurta", decimal.NewFromInt(10))
	p2.StockQuantity = 0
	p3 := newTestProduct("p3", "Lipstick", decimal.NewFromInt(10))
	p3.StockQuantity = 3

	cancelled := pendingOrder("o2", "u1")
	cancelled.Status = StatusCancelled
	delivered := pendingOrder("o3", "u2")
	delivered.Status = StatusDelivered
	delivered.TotalAmount = decimal.NewFromInt(250)

	svc := NewService(
		newProductRepo(p1, p2, p3),
		newOrderRepo(pendingOrder("o1", "u1"), cancelled, delivered),
		Config{},
		nil,
	)

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, st.Products)
	assert.Equal(t, 1, st.OutOfStock)
	assert.Equal(t, 1, st.LowStock)
	assert.Equal(t, 3, st.Orders)
	assert.Equal(t, 1, st.ByStatus[StatusCancelled])
	assert.Equal(t, 1, st.ByStatus[StatusPending])
	assert.True(t, decimal.NewFromInt(350).Equal(st.Revenue))
	assert.Len(t, st.Recent, 3)
}

func TestStats_Error(t *testing.T) {
	products := newProductRepo()
	products.listErr = errors.New("boom")
	svc := NewService(products, newOrderRepo(), Config{}, nil)

	_, err := svc.Stats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list products")
}
