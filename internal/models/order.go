package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	OrderStatusCreated    = "created"
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusClosed     = "closed"
	OrderStatusCancelled  = "cancelled"
)

// DefaultShippingAddress is stored when checkout does not name an address.
const DefaultShippingAddress = "Not specified"

// IsValidOrderStatus reports whether status is one of the known order statuses.
func IsValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusCreated, OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusClosed, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem represents a single item within an order.
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"index;not null"`
	ProductID uint            `json:"product_id" gorm:"index;not null"`
	Quantity  int             `json:"quantity" gorm:"not null;default:1"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"` // Price at the time of order
}

// Order represents a customer order header.
type Order struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	Number          string          `json:"number" gorm:"uniqueIndex;type:varchar(36)"`
	UserID          uint            `json:"user_id" gorm:"index;not null"`
	ShippingAddress string          `json:"shipping_address" gorm:"type:varchar(255);not null"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	Status          string          `json:"status" gorm:"type:varchar(20);not null"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderSummary is the admin panel's flattened view of an order.
type OrderSummary struct {
	OrderID     uint            `json:"order_id"`
	Number      string          `json:"number"`
	ClientName  string          `json:"client_name"`
	CreatedAt   time.Time       `json:"created_at"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	Products    string          `json:"products"`
}
