package models

import "time"

// Product represents a catalog entry with online and per-store stock
type Product struct {
	ID                 string            `json:"id" yaml:"id"`
	SKU                string            `json:"sku,omitempty" yaml:"sku"`
	Title              string            `json:"title" yaml:"title"`
	Description        string            `json:"description,omitempty" yaml:"description"`
	Category           string            `json:"category" yaml:"category"`
	Subcategory        string            `json:"subcategory,omitempty" yaml:"subcategory"`
	Brand              string            `json:"brand,omitempty" yaml:"brand"`
	Price              float64           `json:"price" yaml:"price"`
	OriginalPrice      float64           `json:"original_price,omitempty" yaml:"original_price"`
	DiscountPercentage int               `json:"discount_percentage,omitempty" yaml:"discount_percentage"`
	Images             []string          `json:"images,omitempty" yaml:"images"`
	Rating             float64           `json:"rating" yaml:"rating"`
	RatingCount        int               `json:"rating_count" yaml:"rating_count"`
	StockOnline        int               `json:"stock_online" yaml:"stock_online"`
	StoreStock         map[int]int       `json:"store_stock,omitempty" yaml:"store_stock"`
	Features           []string          `json:"features,omitempty" yaml:"features"`
	Specifications     map[string]string `json:"specifications,omitempty" yaml:"specifications"`
	IsActive           bool              `json:"is_active" yaml:"is_active"`
}

// StockAt returns the quantity held by the given physical store
func (p Product) StockAt(storeID int) int {
	return p.StoreStock[storeID]
}

// Store represents a physical VIKAS outlet
type Store struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"store_name" yaml:"store_name"`
	City     string `json:"city" yaml:"city"`
	Address  string `json:"store_address" yaml:"store_address"`
	Phone    string `json:"phone" yaml:"phone"`
	Pincode  string `json:"pincode" yaml:"pincode"`
	IsActive bool   `json:"is_active" yaml:"is_active"`
}

type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderProcessing     OrderStatus = "processing"
	OrderShipped        OrderStatus = "shipped"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
	OrderReturned       OrderStatus = "returned"
)

// OrderItem is a line of an order, denormalized at purchase time
type OrderItem struct {
	ProductID string  `json:"product_id" yaml:"product_id"`
	Title     string  `json:"title" yaml:"title"`
	Category  string  `json:"category,omitempty" yaml:"category"`
	Brand     string  `json:"brand,omitempty" yaml:"brand"`
	Quantity  int     `json:"quantity" yaml:"quantity"`
	Price     float64 `json:"price" yaml:"price"`
}

type Order struct {
	ID              string      `json:"id" yaml:"id"`
	OrderNumber     string      `json:"order_number" yaml:"order_number"`
	UserID          string      `json:"user_id" yaml:"user_id"`
	Items           []OrderItem `json:"items" yaml:"items"`
	Total           float64     `json:"total" yaml:"total"`
	Status          OrderStatus `json:"status" yaml:"status"`
	ShippingAddress string      `json:"shipping_address,omitempty" yaml:"shipping_address"`
	CreatedAt       time.Time   `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" yaml:"updated_at"`
}

// CartItem joins a user's cart line with the current product record
type CartItem struct {
	UserID   string   `json:"user_id" yaml:"user_id"`
	Quantity int      `json:"quantity" yaml:"quantity"`
	Product  *Product `json:"product,omitempty" yaml:"-"`
	// ProductID is only used when loading fixtures
	ProductID string `json:"product_id" yaml:"product_id"`
}
