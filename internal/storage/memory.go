package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/xaenox/vikas-bot/internal/models"
)

type MemoryStorage struct {
	mu       sync.RWMutex
	products map[string]models.Product
	stores   map[int]models.Store
	orders   map[string]models.Order
	carts    map[string][]models.CartItem
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		products: make(map[string]models.Product),
		stores:   make(map[int]models.Store),
		orders:   make(map[string]models.Order),
		carts:    make(map[string][]models.CartItem),
	}
}

// Seed loads a catalog into the store, replacing records with the same id
func (s *MemoryStorage) Seed(c Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range c.Products {
		s.products[p.ID] = p
	}
	for _, st := range c.Stores {
		s.stores[st.ID] = st
	}
	for _, o := range c.Orders {
		s.orders[o.ID] = o
	}
	for _, item := range c.Cart {
		s.carts[item.UserID] = append(s.carts[item.UserID], item)
	}
}

func (s *MemoryStorage) SearchProducts(ctx context.Context, criteria ProductCriteria) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Product
	for _, p := range s.products {
		if matches(p, criteria) {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if criteria.StoreID != 0 {
			si, sj := out[i].StockAt(criteria.StoreID), out[j].StockAt(criteria.StoreID)
			if si != sj {
				return si > sj
			}
		}
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})

	if criteria.Limit > 0 && len(out) > criteria.Limit {
		out = out[:criteria.Limit]
	}
	return out, nil
}

func matches(p models.Product, c ProductCriteria) bool {
	if !p.IsActive {
		return false
	}
	if c.Category != "" && p.Category != c.Category {
		return false
	}
	if c.Brand != "" && p.Brand != c.Brand {
		return false
	}
	if c.MinPrice > 0 && p.Price < c.MinPrice {
		return false
	}
	if c.MaxPrice > 0 && p.Price > c.MaxPrice {
		return false
	}
	if c.InStock && p.StockOnline <= 0 {
		return false
	}
	if c.StoreID != 0 && p.StockAt(c.StoreID) <= 0 {
		return false
	}
	for _, id := range c.ExcludeIDs {
		if p.ID == id {
			return false
		}
	}
	if len(c.Keywords) == 0 {
		return true
	}

	fields := strings.ToLower(strings.Join([]string{p.Title, p.Description, p.Category, p.Brand}, "\n"))
	for _, k := range c.Keywords {
		if strings.Contains(fields, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func (s *MemoryStorage) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStorage) GetProducts(ctx context.Context, ids []string) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStorage) ListStores(ctx context.Context) ([]models.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Store, 0, len(s.stores))
	for _, st := range s.stores {
		if st.IsActive {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStorage) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.UserID != userID {
			continue
		}
		if o.ID == orderID || o.OrderNumber == orderID {
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) ListOrders(ctx context.Context, userID string, limit int) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStorage) ListCartItems(ctx context.Context, userID string) ([]models.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.carts[userID]
	out := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if p, ok := s.products[item.ProductID]; ok {
			item.Product = &p
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
