package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/storefront/internal/domain/product"
)

// DefaultTaxRate is applied to the subtotal when no rate is configured.
var DefaultTaxRate = decimal.RequireFromString("0.18")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Actor is the caller of an order operation.
type Actor struct {
	UserID string
	Admin  bool
}

// LineRequest is one requested order line.
type LineRequest struct {
	ProductID string
	Quantity  int
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	Items         []LineRequest
	PaymentMethod PaymentMethod   `validate:"required,oneof=cod upi card"`
	Shipping      ShippingAddress `validate:"required"`
	Contact       ContactInfo     `validate:"required"`
}

// Config holds pricing settings.
type Config struct {
	TaxRate decimal.Decimal
}

// Service encapsulates order placement and lifecycle logic.
type Service struct {
	products product.Repository
	orders   Repository
	taxRate  decimal.Decimal
	tracer   trace.Tracer
	now      func() time.Time
}

// NewService creates an order Service. A nil tracer provider disables tracing.
func NewService(
	products product.Repository,
	orders Repository,
	cfg Config,
	tp trace.TracerProvider,
) *Service {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	taxRate := cfg.TaxRate
	if taxRate.IsZero() {
		taxRate = DefaultTaxRate
	}
	return &Service{
		products: products,
		orders:   orders,
		taxRate:  taxRate,
		tracer:   tp.Tracer("github.com/xenking/storefront/internal/domain/order"),
		now:      time.Now,
	}
}

// Total returns subtotal plus tax, rounded to whole currency units.
func (s *Service) Total(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(decimal.NewFromInt(1).Add(s.taxRate)).Round(0)
}

// PlaceOrder validates the checkout, prices every line from the catalog in a
// single batch, and persists the order with status pending.
func (s *Service) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder",
		trace.WithAttributes(attribute.Int("order.lines", len(req.Items))),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	orderID := uuid.New().String()
	items := make([]Item, len(req.Items))
	subtotal := decimal.Zero
	for i, line := range req.Items {
		p, ok := byID[line.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: line.ProductID}
		}
		items[i] = Item{
			ID:           uuid.New().String(),
			OrderID:      orderID,
			ProductID:    p.ID,
			Quantity:     line.Quantity,
			Price:        p.Price,
			ProductName:  p.Name,
			ProductImage: p.ImageURL,
		}
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	now := s.now().UTC()
	o := &Order{
		ID:              orderID,
		UserID:          userID,
		TotalAmount:     s.Total(subtotal),
		Status:          StatusPending,
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.Shipping.String(),
		ContactInfo:     req.Contact,
		Items:           items,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	span.SetAttributes(attribute.String("order.id", o.ID))
	return o, nil
}

func validateRequest(req PlaceOrderRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		// Namespace is "PlaceOrderRequest.Contact.Email"; drop the root type.
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		return &ValidationError{
			Field:   strings.ToLower(field),
			Message: "failed " + fe.Tag() + " check",
		}
	}
	return errors.Wrap(err, "validate order")
}

// Get returns an order visible to actor. Orders of other users are reported
// as not found.
func (s *Service) Get(ctx context.Context, actor Actor, id string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get order")
	}
	if !actor.Admin && o.UserID != actor.UserID {
		return nil, ErrNotFound
	}
	return o, nil
}

// List returns the orders visible to actor, newest first.
func (s *Service) List(ctx context.Context, actor Actor) ([]Order, error) {
	userID := actor.UserID
	if actor.Admin {
		userID = ""
	}
	orders, err := s.orders.List(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// UpdateStatus moves an order along its lifecycle. Admins may apply any
// allowed transition; owners may only cancel their own pending order. When
// expectedVersion is positive it must match the stored version.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, id string, to Status, expectedVersion int) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.UpdateStatus",
		trace.WithAttributes(
			attribute.String("order.id", id),
			attribute.String("order.status", string(to)),
		),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	o, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && to != StatusCancelled {
		return nil, ErrForbidden
	}
	if expectedVersion > 0 && expectedVersion != o.Version {
		return nil, ErrVersionConflict
	}
	if !CanTransition(o.Status, to) {
		return nil, &InvalidTransitionError{From: o.Status, To: to}
	}

	updated, err := s.orders.UpdateStatus(ctx, StatusUpdate{
		ID:      o.ID,
		From:    o.Status,
		To:      to,
		Version: o.Version,
		At:      s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return nil, ErrVersionConflict
		}
		return nil, errors.Wrap(err, "update order status")
	}
	return updated, nil
}
