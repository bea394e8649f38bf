package model

import "time"

// Order lifecycle. A provisional order is created as Pending/Pending when the
// customer reaches checkout; only the payment notification flow moves it on.
// Superseded marks a retired payment attempt and never appears on an order.
const (
	OrderStatusPending   = "Pending"
	OrderStatusPaid      = "Paid"
	OrderStatusCancelled = "Cancelled"

	PaymentStatusPending    = "Pending"
	PaymentStatusPaid       = "Paid"
	PaymentStatusFailed     = "Failed"
	PaymentStatusSuperseded = "Superseded"
)

// Order represents a row in the orders table together with its items.
// OrderID is the internal key; OrderNumber is the customer-facing reference
// printed on confirmations and sent to the payment gateway.
type Order struct {
	OrderID         string       `json:"orderId"`
	OrderNumber     string       `json:"orderNumber"`
	UserID          *int64       `json:"userId,omitempty"`
	GuestEmail      *string      `json:"guestEmail,omitempty"`
	OrderStatus     string       `json:"orderStatus"`
	PaymentStatus   string       `json:"paymentStatus"`
	Gateway         string       `json:"gateway,omitempty"`
	CouponCode      *string      `json:"couponCode,omitempty"`
	ShippingOption  string       `json:"shippingOption"`
	Totals          OrderTotals  `json:"totals"`
	Items           []PricedLine `json:"items"`
	ShippingAddress Address      `json:"shippingAddress"`
	BillingAddress  *Address     `json:"billingAddress,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}
