package models

import "gorm.io/gorm"

// Fulfilment statuses an order moves through.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
)

// Payment statuses, tracked separately from fulfilment.
const (
	PaymentPending   = "pending"
	PaymentPaid      = "paid"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"
)

// Payment methods.
const (
	MethodCOD   = "cod"
	MethodMpesa = "mpesa"
)

// ValidOrderStatus reports whether s is a known fulfilment status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered:
		return true
	}
	return false
}

// Order is one checkout: a priced snapshot of the cart at purchase time.
type Order struct {
	gorm.Model
	UserID            uint        `gorm:"not null;index" json:"user_id"`
	User              *User       `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Total             int64       `gorm:"not null" json:"total"`
	Status            string      `gorm:"size:50;not null;default:pending" json:"status"`
	PaymentMethod     string      `gorm:"size:50;not null;default:cod" json:"payment_method"`
	PaymentStatus     string      `gorm:"size:50;not null;default:pending" json:"payment_status"`
	PaymentPhone      string      `gorm:"size:20" json:"payment_phone,omitempty"`
	MpesaReceipt      string      `gorm:"size:100" json:"mpesa_receipt,omitempty"`
	CheckoutRequestID string      `gorm:"size:100;index" json:"-"`
	ShippingAddress   string      `gorm:"type:text" json:"shipping_address"`
	Items             []OrderItem `json:"items,omitempty"`
}

// OrderItem is one line of an order. Price is the per-unit price captured at
// checkout, immune to later catalogue edits.
type OrderItem struct {
	gorm.Model
	OrderID   uint     `gorm:"not null;index" json:"order_id"`
	ProductID uint     `gorm:"not null;index" json:"product_id"`
	Product   *Product `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity  int      `gorm:"not null" json:"quantity"`
	Price     int64    `gorm:"not null" json:"price"`
}

// Subtotal is quantity times the captured unit price.
func (i *OrderItem) Subtotal() int64 { return int64(i.Quantity) * i.Price }
