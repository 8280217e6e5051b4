package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
}

// ParseStatus validates s as a Status.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// CanTransition reports whether an order may move from one status to another.
// Cancellation is only possible while pending; delivered and cancelled are
// final.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentMethod is the payment option chosen at checkout.
type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "cod"
	PaymentUPI  PaymentMethod = "upi"
	PaymentCard PaymentMethod = "card"
)

// ContactInfo is the buyer's contact data stored with the order.
type ContactInfo struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,min=7,max=20"`
}

// ShippingAddress is the structured checkout address.
type ShippingAddress struct {
	Address string `validate:"required,max=500"`
	City    string `validate:"required,max=100"`
	State   string `validate:"required,max=100"`
	Pincode string `validate:"required,max=12"`
}

// String formats the address as stored on the order.
func (a ShippingAddress) String() string {
	return fmt.Sprintf("%s, %s, %s - %s", a.Address, a.City, a.State, a.Pincode)
}

// Order represents a placed purchase.
type Order struct {
	ID              string
	UserID          string
	TotalAmount     decimal.Decimal
	Status          Status
	PaymentMethod   PaymentMethod
	ShippingAddress string
	ContactInfo     ContactInfo
	Items           []Item
	// Version increases on every status change and guards concurrent updates.
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ProcessingDate *time.Time
	ShippedDate    *time.Time
	DeliveredDate  *time.Time
}

// Item is an order line with the unit price captured at checkout.
type Item struct {
	ID           string
	OrderID      string
	ProductID    string
	Quantity     int
	Price        decimal.Decimal
	ProductName  string
	ProductImage string
}

// StatusUpdate moves an order from one status to another if it is still at
// the expected version.
type StatusUpdate struct {
	ID      string
	From    Status
	To      Status
	Version int
	At      time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create stores the order header and its items atomically.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// List returns orders newest first; an empty userID lists every order.
	List(ctx context.Context, userID string) ([]Order, error)
	// UpdateStatus applies u and returns the updated order, or
	// ErrVersionConflict if the stored status or version moved on.
	UpdateStatus(ctx context.Context, u StatusUpdate) (*Order, error)
}
