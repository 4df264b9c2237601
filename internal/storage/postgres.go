package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/xaenox/vikas-bot/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

// storeCount is the number of store_N_qty columns on the product table
const storeCount = 6

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}

	if err := storage.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", config.Host),
		zap.String("dbname", config.DBName))
	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

const productColumns = `id, product_id, title, description, category, subcategory, brand,
	price, original_price, discount_percentage, images, rating, rating_count, stock_online,
	store_1_qty, store_2_qty, store_3_qty, store_4_qty, store_5_qty, store_6_qty,
	features, specifications, is_active`

func storeColumn(storeID int) (string, bool) {
	if storeID < 1 || storeID > storeCount {
		return "", false
	}
	return fmt.Sprintf("store_%d_qty", storeID), true
}

// buildProductSearch renders the criteria as a parameterized query. A store
// without a stock column holds nothing, matching the in-memory store.
func buildProductSearch(c ProductCriteria) (string, []any) {
	var (
		where = []string{"is_active = TRUE"}
		args  []any
		order = "rating DESC"
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(c.Keywords) > 0 {
		patterns := make([]string, 0, len(c.Keywords))
		for _, k := range c.Keywords {
			patterns = append(patterns, "%"+k+"%")
		}
		p := arg(pq.Array(patterns))
		where = append(where, fmt.Sprintf(
			"(title ILIKE ANY(%[1]s) OR description ILIKE ANY(%[1]s) OR category ILIKE ANY(%[1]s) OR brand ILIKE ANY(%[1]s))", p))
	}
	if c.Category != "" {
		where = append(where, "category = "+arg(c.Category))
	}
	if c.Brand != "" {
		where = append(where, "brand = "+arg(c.Brand))
	}
	if c.MinPrice > 0 {
		where = append(where, "price >= "+arg(c.MinPrice))
	}
	if c.MaxPrice > 0 {
		where = append(where, "price <= "+arg(c.MaxPrice))
	}
	if c.InStock {
		where = append(where, "stock_online > 0")
	}
	if c.StoreID != 0 {
		if col, ok := storeColumn(c.StoreID); ok {
			where = append(where, col+" > 0")
			order = col + " DESC, rating DESC"
		} else {
			where = append(where, "FALSE")
		}
	}
	if len(c.ExcludeIDs) > 0 {
		where = append(where, "id::text <> ALL("+arg(pq.Array(c.ExcludeIDs))+")")
	}

	query := fmt.Sprintf(`SELECT %s FROM "VIKAS-dataset" WHERE %s ORDER BY %s`,
		productColumns, strings.Join(where, " AND "), order)
	if c.Limit > 0 {
		query += " LIMIT " + arg(c.Limit)
	}
	return query, args
}

func (s *PostgresStorage) SearchProducts(ctx context.Context, criteria ProductCriteria) ([]models.Product, error) {
	query, args := buildProductSearch(criteria)
	return s.queryProducts(ctx, query, args...)
}

func (s *PostgresStorage) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM "VIKAS-dataset" WHERE id::text = $1`
	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying product: %w", err)
	}
	return p, nil
}

func (s *PostgresStorage) GetProducts(ctx context.Context, ids []string) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM "VIKAS-dataset" WHERE id::text = ANY($1) AND is_active = TRUE`
	return s.queryProducts(ctx, query, pq.Array(ids))
}

func (s *PostgresStorage) queryProducts(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var (
		p                                    models.Product
		sku, description, subcategory, brand sql.NullString
		originalPrice, rating                sql.NullFloat64
		discount, ratingCount                sql.NullInt64
		images, features, specs              []byte
		qty                                  [storeCount]int
	)

	err := row.Scan(
		&p.ID, &sku, &p.Title, &description, &p.Category, &subcategory, &brand,
		&p.Price, &originalPrice, &discount, &images, &rating, &ratingCount, &p.StockOnline,
		&qty[0], &qty[1], &qty[2], &qty[3], &qty[4], &qty[5],
		&features, &specs, &p.IsActive,
	)
	if err != nil {
		return nil, err
	}

	p.SKU = sku.String
	p.Description = description.String
	p.Subcategory = subcategory.String
	p.Brand = brand.String
	p.OriginalPrice = originalPrice.Float64
	p.Rating = rating.Float64
	p.DiscountPercentage = int(discount.Int64)
	p.RatingCount = int(ratingCount.Int64)
	p.StoreStock = make(map[int]int, storeCount)
	for i, q := range qty {
		p.StoreStock[i+1] = q
	}

	if err := decodeJSONColumn(images, &p.Images); err != nil {
		return nil, fmt.Errorf("images: %w", err)
	}
	if err := decodeJSONColumn(features, &p.Features); err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}
	if err := decodeJSONColumn(specs, &p.Specifications); err != nil {
		return nil, fmt.Errorf("specifications: %w", err)
	}
	return &p, nil
}

func decodeJSONColumn(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func (s *PostgresStorage) ListStores(ctx context.Context) ([]models.Store, error) {
	query := `
		SELECT id, store_name, city, store_address, phone, pincode, is_active
		FROM "VIKAS-stores"
		WHERE is_active = TRUE
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying stores: %w", err)
	}
	defer rows.Close()

	var stores []models.Store
	for rows.Next() {
		var st models.Store
		var address, phone, pincode sql.NullString
		if err := rows.Scan(&st.ID, &st.Name, &st.City, &address, &phone, &pincode, &st.IsActive); err != nil {
			return nil, fmt.Errorf("error scanning store: %w", err)
		}
		st.Address = address.String
		st.Phone = phone.String
		st.Pincode = pincode.String
		stores = append(stores, st)
	}
	return stores, rows.Err()
}

const orderColumns = `id, order_number, user_id, items, total, status, shipping_address, created_at, updated_at`

func (s *PostgresStorage) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM "VIKAS-orders"
		WHERE user_id = $1 AND (id::text = $2 OR order_number = $2)`

	o, err := scanOrder(s.db.QueryRowContext(ctx, query, userID, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying order: %w", err)
	}
	return o, nil
}

func (s *PostgresStorage) ListOrders(ctx context.Context, userID string, limit int) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM "VIKAS-orders"
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o       models.Order
		items   []byte
		address sql.NullString
		status  string
	)
	if err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &items, &o.Total, &status, &address, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	o.ShippingAddress = address.String
	if err := decodeJSONColumn(items, &o.Items); err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}
	return &o, nil
}

func (s *PostgresStorage) ListCartItems(ctx context.Context, userID string) ([]models.CartItem, error) {
	query := `
		SELECT c.user_id, c.product_id, c.quantity, ` + prefixed("p", productColumns) + `
		FROM "VIKAS-cart" c
		JOIN "VIKAS-dataset" p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying cart: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var item models.CartItem
		p, err := scanProduct(cartRow{rows: rows, item: &item})
		if err != nil {
			return nil, fmt.Errorf("error scanning cart item: %w", err)
		}
		item.Product = p
		items = append(items, item)
	}
	return items, rows.Err()
}

// cartRow prepends the cart columns to a product scan
type cartRow struct {
	rows *sql.Rows
	item *models.CartItem
}

func (r cartRow) Scan(dest ...any) error {
	all := append([]any{&r.item.UserID, &r.item.ProductID, &r.item.Quantity}, dest...)
	return r.rows.Scan(all...)
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
