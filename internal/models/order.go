package models

import "time"

// Order statuses.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Cart holds the products a user intends to buy. A user owns at most one cart.
type Cart struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string     `json:"user_id" gorm:"uniqueIndex;type:varchar(36);not null"`
	Items      []CartItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	TotalPrice float64    `json:"total_price"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CartItem is a product line in a cart. Price is the product's special price when added.
type CartItem struct {
	ID        string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CartID    string  `json:"-" gorm:"index;type:varchar(36);not null"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36);not null"`
	Product   Product `json:"product" gorm:"foreignKey:ProductID"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Discount  float64 `json:"discount"`
}

// Order represents a placed customer order.
type Order struct {
	ID          string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string      `json:"user_id" gorm:"index;type:varchar(36);not null"`
	Email       string      `json:"email"`
	Items       []OrderItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	TotalAmount float64     `json:"total_amount"`
	Status      string      `json:"status" gorm:"type:varchar(20)"`
	AddressID   string      `json:"address_id" gorm:"type:varchar(36)"`
	Payment     *Payment    `json:"payment,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// OrderItem represents a single item within an order.
type OrderItem struct {
	ID        string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string  `json:"-" gorm:"index;type:varchar(36);not null"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36);not null"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"` // price at the time of order
	Discount  float64 `json:"discount"`
}

// Payment records the payment gateway outcome reported for an order.
type Payment struct {
	ID                string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID           string `json:"-" gorm:"uniqueIndex;type:varchar(36);not null"`
	Method            string `json:"method" gorm:"type:varchar(40)"`
	PGPaymentID       string `json:"pg_payment_id"`
	PGStatus          string `json:"pg_status"`
	PGResponseMessage string `json:"pg_response_message"`
	PGName            string `json:"pg_name"`
}
