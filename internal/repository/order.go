package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/order"
)

const orderColumns = `id, user_id, total_amount, status, payment_method, shipping_address,
	contact_info, version, created_at, updated_at, processing_date, shipped_date, delivered_date`

const (
	createOrderSQL = `INSERT INTO orders
		(id, user_id, total_amount, status, payment_method, shipping_address,
		 contact_info, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	createOrderItemSQL = `INSERT INTO order_items (id, order_id, product_id, quantity, price, position)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1 = '' OR user_id = $1)
		ORDER BY created_at DESC, id`

	listOrderItemsSQL = `SELECT i.id, i.order_id, i.product_id, i.quantity, i.price,
		COALESCE(p.name, ''), COALESCE(p.image_url, '')
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.order_id, i.position`

	updateOrderStatusSQL = `UPDATE orders SET
		status = $2,
		version = version + 1,
		updated_at = $5,
		processing_date = CASE WHEN $2 = 'processing' THEN $5 ELSE processing_date END,
		shipped_date = CASE WHEN $2 = 'shipped' THEN $5 ELSE shipped_date END,
		delivered_date = CASE WHEN $2 = 'delivered' THEN $5 ELSE delivered_date END
		WHERE id = $1 AND status = $3 AND version = $4
		RETURNING ` + orderColumns

	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order header and its items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, createOrderSQL,
			o.ID, o.UserID, o.TotalAmount, string(o.Status), string(o.PaymentMethod),
			o.ShippingAddress, o.ContactInfo, o.Version, o.CreatedAt, o.UpdatedAt,
		); err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}

		batch := &pgx.Batch{}
		for i, it := range o.Items {
			batch.Queue(createOrderItemSQL, it.ID, o.ID, it.ProductID, it.Quantity, it.Price, i)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	orders := []order.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// List returns orders of userID, or every order when userID is empty.
func (r *OrderRepository) List(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus applies u if the order is still at u.From and u.Version.
func (r *OrderRepository) UpdateStatus(ctx context.Context, u order.StatusUpdate) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, updateOrderStatusSQL,
		u.ID, string(u.To), string(u.From), u.Version, u.At,
	)
	if err != nil {
		return nil, fmt.Errorf("updating order %q: %w", u.ID, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("updating order %q: %w", u.ID, err)
		}
		var exists bool
		if err := r.pool.QueryRow(ctx, orderExistsSQL, u.ID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("checking order %q: %w", u.ID, err)
		}
		if exists {
			return nil, order.ErrVersionConflict
		}
		return nil, order.ErrNotFound
	}

	orders := []order.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *OrderRepository) attachItems(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.pool.Query(ctx, listOrderItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var it order.Item
		err := row.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price,
			&it.ProductName, &it.ProductImage,
		)
		return it, err
	})
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	for _, it := range items {
		i := index[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		status        string
		paymentMethod string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.TotalAmount, &status, &paymentMethod, &o.ShippingAddress,
		&o.ContactInfo, &o.Version, &o.CreatedAt, &o.UpdatedAt,
		&o.ProcessingDate, &o.ShippedDate, &o.DeliveredDate,
	)
	o.Status = order.Status(status)
	o.PaymentMethod = order.PaymentMethod(paymentMethod)
	return o, err
}
