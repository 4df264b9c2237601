package storage

import (
	"context"
	"errors"

	"github.com/xaenox/vikas-bot/internal/models"
)

// ErrNotFound is returned by single-record lookups that match nothing
var ErrNotFound = errors.New("storage: record not found")

// ProductCriteria filters product searches. Keywords are OR-ed against
// title, description, category and brand, case-insensitively.
type ProductCriteria struct {
	Keywords   []string
	Category   string
	Brand      string
	MinPrice   float64
	MaxPrice   float64
	InStock    bool
	StoreID    int
	ExcludeIDs []string
	Limit      int
}

type Storage interface {
	ProductStorage
	OrderStorage
	Close() error
}

type ProductStorage interface {
	SearchProducts(ctx context.Context, criteria ProductCriteria) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProducts(ctx context.Context, ids []string) ([]models.Product, error)
	ListStores(ctx context.Context) ([]models.Store, error)
}

type OrderStorage interface {
	GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error)
	ListOrders(ctx context.Context, userID string, limit int) ([]models.Order, error)
	ListCartItems(ctx context.Context, userID string) ([]models.CartItem, error)
}
