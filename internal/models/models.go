package models

import "time"

// Product represents a catalog item. Stock is the authoritative available
// quantity and is only ever mutated through the store's AdjustStock.
type Product struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Price     float64   `db:"price" json:"price"`
	Stock     int       `db:"stock" json:"stock"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Order represents a customer order for a single product.
type Order struct {
	ID           string    `db:"id" json:"id"`
	ProductID    string    `db:"product_id" json:"productId"`
	Quantity     int       `db:"quantity" json:"quantity"`
	EmailID      string    `db:"email_id" json:"emailId"`
	DeliveryDate time.Time `db:"delivery_date" json:"deliveryDate"`
	Status       string    `db:"status" json:"status"`
	OrderDate    time.Time `db:"order_date" json:"orderDate"`

	// Product is the resolved reference, populated by the read path when the
	// row is fetched with its product joined. Nil on bare inserts.
	Product *Product `db:"-" json:"product,omitempty"`
}

// Order statuses. Confirmed is the initial state; Canceled is terminal.
const (
	OrderStatusConfirmed = "Confirmed"
	OrderStatusCanceled  = "Canceled"
)

// ProductQueryOptions controls catalog listing.
type ProductQueryOptions struct {
	Category string
	PriceGTE *float64
	PriceLTE *float64
	Sort     string
	Order    string
}

// OrderQueryOptions controls order listing.
type OrderQueryOptions struct {
	Sort  string
	Order string
}
