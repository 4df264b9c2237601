package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xaenox/vikas-bot/internal/models"
)

func seededStorage(t *testing.T) *MemoryStorage {
	t.Helper()
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.Orders = []models.Order{
		{ID: "o-1", OrderNumber: "1001", UserID: "u-1", Status: models.OrderShipped, Total: 599, CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "o-2", OrderNumber: "1002", UserID: "u-1", Status: models.OrderDelivered, Total: 2499, CreatedAt: now},
		{ID: "o-3", OrderNumber: "1003", UserID: "u-2", Status: models.OrderPending, Total: 4995, CreatedAt: now},
	}
	c.Cart = []models.CartItem{{UserID: "u-1", ProductID: "p-watch-01", Quantity: 1}}

	s := NewMemoryStorage()
	s.Seed(c)
	return s
}

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	if len(c.Stores) != 6 {
		t.Errorf("stores = %d, want 6", len(c.Stores))
	}
	if len(c.Products) == 0 {
		t.Fatal("no products in default catalog")
	}
	if got := c.Products[0].StockAt(1); got != 15 {
		t.Errorf("store 1 stock = %d, want 15", got)
	}
}

func TestLoadCatalogRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("products:\n  - id: x\n    colour: red\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestSearchProducts(t *testing.T) {
	s := seededStorage(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		criteria ProductCriteria
		wantIDs  []string
	}{
		{"keyword in title", ProductCriteria{Keywords: []string{"SNEAKERS"}}, []string{"p-sneaker-01"}},
		{"keyword in category", ProductCriteria{Keywords: []string{"furniture"}}, []string{"p-sofa-01"}},
		{"keywords are or-ed", ProductCriteria{Keywords: []string{"watch", "sofa"}}, []string{"p-watch-01", "p-sofa-01"}},
		{"in stock excludes sofa", ProductCriteria{Keywords: []string{"sofa"}, InStock: true}, nil},
		{"price range", ProductCriteria{MinPrice: 2000, MaxPrice: 6000}, []string{"p-watch-01", "p-sneaker-01"}},
		{"store stock ordering", ProductCriteria{StoreID: 1, Limit: 2}, []string{"p-tshirt-01", "p-sneaker-01"}},
		{"exclude", ProductCriteria{Category: "Watches", ExcludeIDs: []string{"p-watch-01"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.SearchProducts(ctx, tt.criteria)
			if err != nil {
				t.Fatalf("SearchProducts: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d products, want %d (%v)", len(got), len(tt.wantIDs), ids(got))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("product %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestGetProductNotFound(t *testing.T) {
	s := seededStorage(t)
	if _, err := s.GetProduct(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestOrders(t *testing.T) {
	s := seededStorage(t)
	ctx := context.Background()

	orders, err := s.ListOrders(ctx, "u-1", 10)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders) != 2 || orders[0].ID != "o-2" {
		t.Fatalf("orders = %v, want newest first", orders)
	}

	o, err := s.GetOrder(ctx, "u-1", "1001")
	if err != nil {
		t.Fatalf("GetOrder by number: %v", err)
	}
	if o.ID != "o-1" {
		t.Errorf("order = %s, want o-1", o.ID)
	}

	if _, err := s.GetOrder(ctx, "u-1", "o-3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("other user's order should not be visible, err = %v", err)
	}
}

func TestCartItemsJoinProducts(t *testing.T) {
	s := seededStorage(t)
	items, err := s.ListCartItems(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("ListCartItems: %v", err)
	}
	if len(items) != 1 || items[0].Product == nil || items[0].Product.Title != "Classic Analog Watch" {
		t.Fatalf("items = %+v", items)
	}
}

func TestBuildProductSearch(t *testing.T) {
	query, args := buildProductSearch(ProductCriteria{
		Keywords:   []string{"shirt"},
		Category:   "Clothing",
		MaxPrice:   1000,
		InStock:    true,
		StoreID:    2,
		ExcludeIDs: []string{"a"},
		Limit:      5,
	})
	for _, frag := range []string{
		"title ILIKE ANY($1)",
		"category = $2",
		"price <= $3",
		"stock_online > 0",
		"store_2_qty > 0",
		"id::text <> ALL($4)",
		"ORDER BY store_2_qty DESC, rating DESC",
		"LIMIT $5",
	} {
		if !strings.Contains(query, frag) {
			t.Errorf("query missing %q:\n%s", frag, query)
		}
	}
	if len(args) != 5 {
		t.Errorf("args = %d, want 5", len(args))
	}

}

func TestBuildProductSearchUnknownStoreMatchesNothing(t *testing.T) {
	query, _ := buildProductSearch(ProductCriteria{Keywords: []string{"shirt"}, StoreID: 9})
	if !strings.Contains(query, "AND FALSE") {
		t.Errorf("query for a store without a stock column should match nothing:\n%s", query)
	}
	if strings.Contains(query, "store_9_qty") {
		t.Errorf("query references a missing column:\n%s", query)
	}
}

func ids(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestMemorySearchUnknownStoreMatchesNothing(t *testing.T) {
	s := seededStorage(t)
	got, err := s.SearchProducts(context.Background(), ProductCriteria{StoreID: 7})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("store 7 returned %v, want nothing", ids(got))
	}
}
