package models

import "time"

const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

type OrderItem struct {
	ProductSlug string `json:"product_slug" bson:"product_slug"`
	Name        string `json:"name" bson:"name"`
	Quantity    int    `json:"quantity" bson:"quantity"`
	UnitPrice   int    `json:"unit_price" bson:"unit_price"`
}

// Order is a pharmacy order placed from the public site.
type Order struct {
	ID            string      `json:"id" bson:"_id"`
	Reference     string      `json:"reference" bson:"reference"`
	CustomerName  string      `json:"customer_name" bson:"customer_name"`
	CustomerPhone string      `json:"customer_phone" bson:"customer_phone"`
	CustomerEmail string      `json:"customer_email,omitempty" bson:"customer_email,omitempty"`
	Address       string      `json:"address" bson:"address"`
	Items         []OrderItem `json:"items" bson:"items"`
	Total         int         `json:"total" bson:"total"`
	Status        string      `json:"status" bson:"status"`
	CreatedAt     time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" bson:"updated_at"`
}

func ValidOrderTransition(from, to string) bool {
	switch from {
	case OrderPending:
		return to == OrderProcessing || to == OrderCancelled
	case OrderProcessing:
		return to == OrderDelivered || to == OrderCancelled
	default:
		return false
	}
}
