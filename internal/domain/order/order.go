// Package order assembles cart contents into order submissions and owns the
// checkout fee schedule.
package order

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status values an order moves through. Transitions are owned by the backend;
// the client only reads them back.
const (
	StatusPlaced    = "placed"
	StatusConfirmed = "confirmed"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// ErrEmptyCart is returned when an order is requested with no resolvable
// positive-quantity lines.
var ErrEmptyCart = errors.New("cart is empty")

// ValidationError indicates a required submission field is missing. It is
// raised before any network call.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// Item is a single order line with the unit price snapshotted at assembly
// time.
type Item struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Address is the shipping destination for an order.
type Address struct {
	FullName string `json:"fullName"`
	Street   string `json:"street"`
	City     string `json:"city"`
	Pincode  string `json:"pincode"`
	Phone    string `json:"phone"`
}

// Submission is the payload sent to the orders endpoint.
type Submission struct {
	Items           []Item          `json:"items"`
	ShippingAddress Address         `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee"`
	PlatformFee     decimal.Decimal `json:"platformFee"`
	GST             decimal.Decimal `json:"gst"`
	Total           decimal.Decimal `json:"totalAmount"`
	Notes           string          `json:"notes,omitempty"`
}

// Order is a placed order as returned by the backend.
type Order struct {
	ID              string          `json:"_id"`
	Items           []Item          `json:"items"`
	ShippingAddress Address         `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee"`
	PlatformFee     decimal.Decimal `json:"platformFee"`
	GST             decimal.Decimal `json:"gst"`
	Total           decimal.Decimal `json:"totalAmount"`
	Status          string          `json:"orderStatus"`
	CreatedAt       string          `json:"createdAt,omitempty"`
}
