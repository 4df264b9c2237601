package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xaenox/vikas-bot/internal/models"
	"github.com/xaenox/vikas-bot/internal/storage"
	"go.uber.org/zap"
)

const productNotFoundMessage = "I couldn't find that product. It may no longer be in our catalog."

// ProductInventory answers search, availability and product questions
type ProductInventory struct {
	store  storage.ProductStorage
	rag    *RAG
	logger *zap.Logger
}

func NewProductInventory(store storage.ProductStorage, rag *RAG, logger *zap.Logger) *ProductInventory {
	return &ProductInventory{store: store, rag: rag, logger: logger}
}

func (a *ProductInventory) Process(ctx context.Context, query string, qc models.QueryContext) (*models.AgentResponse, error) {
	lower := strings.ToLower(query)

	if isStoreQuestion(lower) {
		return a.rag.AnswerStoreQuestion(ctx, query)
	}

	if qc.ProductID != "" {
		switch {
		case containsAny(lower, "price", "cost", "discount", "offer", "deal"):
			return a.CheckPrice(ctx, qc.ProductID)
		case containsAny(lower, "stock", "available", "availability"):
			return a.StoreAvailability(ctx, qc.ProductID)
		default:
			resp, err := a.rag.AnswerProductQuestion(ctx, qc.ProductID, query)
			if errors.Is(err, storage.ErrNotFound) {
				return &models.AgentResponse{Success: true, Response: productNotFoundMessage}, nil
			}
			return resp, err
		}
	}

	return a.rag.Query(ctx, query)
}

// isStoreQuestion reports whether the query is about the stores themselves
// rather than their stock
func isStoreQuestion(lower string) bool {
	if containsAny(lower, "where", "location", "address") {
		return true
	}
	return strings.Contains(lower, "store") && !containsAny(lower, "stock", "available")
}

// StoreAvailability reports online stock and the stock held by every active
// store
func (a *ProductInventory) StoreAvailability(ctx context.Context, productID string) (*models.AgentResponse, error) {
	p, err := a.store.GetProduct(ctx, productID)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.AgentResponse{Success: true, Response: productNotFoundMessage}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading product: %w", err)
	}

	stores, err := a.store.ListStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing stores: %w", err)
	}

	payload := models.AvailabilityPayload{
		Product: productRef(*p),
		Online:  p.StockOnline,
		Stores:  make([]models.StoreStock, 0, len(stores)),
	}
	var inStock []string
	for _, st := range stores {
		qty := p.StockAt(st.ID)
		payload.Stores = append(payload.Stores, models.StoreStock{
			StoreID:   st.ID,
			StoreName: st.Name,
			City:      st.City,
			Stock:     qty,
		})
		if qty > 0 {
			inStock = append(inStock, fmt.Sprintf("%s, %s (%d)", st.Name, st.City, qty))
		}
	}

	var b strings.Builder
	if p.StockOnline > 0 {
		fmt.Fprintf(&b, "%s is available online (%d units).", p.Title, p.StockOnline)
	} else {
		fmt.Fprintf(&b, "%s is out of stock online.", p.Title)
	}
	if len(inStock) > 0 {
		b.WriteString(" In stores: " + strings.Join(inStock, "; ") + ".")
	} else {
		b.WriteString(" It is not in stock at any of our stores right now.")
	}

	return &models.AgentResponse{
		Success:  true,
		Response: b.String(),
		Products: []models.Product{*p},
		Payload:  payload,
	}, nil
}

func (a *ProductInventory) CheckPrice(ctx context.Context, productID string) (*models.AgentResponse, error) {
	p, err := a.store.GetProduct(ctx, productID)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.AgentResponse{Success: true, Response: productNotFoundMessage}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading product: %w", err)
	}

	payload := models.PricePayload{
		Product:       productRef(*p),
		CurrentPrice:  p.Price,
		OriginalPrice: p.OriginalPrice,
		Discount:      p.DiscountPercentage,
	}
	if p.OriginalPrice > p.Price {
		payload.Savings = p.OriginalPrice - p.Price
	}

	text := fmt.Sprintf("%s is priced at %s.", p.Title, FormatPrice(p.Price))
	if payload.Savings > 0 {
		text = fmt.Sprintf("%s is priced at %s, down from %s. You save %s.",
			p.Title, FormatPrice(p.Price), FormatPrice(p.OriginalPrice), FormatPrice(payload.Savings))
	}

	return &models.AgentResponse{
		Success:  true,
		Response: text,
		Products: []models.Product{*p},
		Payload:  payload,
	}, nil
}
