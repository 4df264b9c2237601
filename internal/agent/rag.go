package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xaenox/vikas-bot/internal/llm"
	"github.com/xaenox/vikas-bot/internal/models"
	"github.com/xaenox/vikas-bot/internal/storage"
	"go.uber.org/zap"
)

const (
	maxContextProducts     = 5
	maxRecommendations     = 6
	maxExplainedProducts   = 3
	descriptionContextSize = 150
)

// RAG answers free-text questions by retrieving matching catalog records and
// letting the completion service phrase the answer. Without the completion
// service it falls back to a plain listing of what was retrieved.
type RAG struct {
	store  storage.ProductStorage
	llm    llm.Completer
	logger *zap.Logger
}

func NewRAG(store storage.ProductStorage, completer llm.Completer, logger *zap.Logger) *RAG {
	return &RAG{store: store, llm: completer, logger: logger}
}

// DetectStore returns the first active store whose name or city appears in
// the query
func (r *RAG) DetectStore(ctx context.Context, query string) (*models.Store, error) {
	stores, err := r.store.ListStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing stores: %w", err)
	}

	lower := strings.ToLower(query)
	for i := range stores {
		st := stores[i]
		if strings.Contains(lower, strings.ToLower(st.Name)) || strings.Contains(lower, strings.ToLower(st.City)) {
			return &st, nil
		}
	}
	return nil, nil
}

func (r *RAG) Query(ctx context.Context, query string) (*models.AgentResponse, error) {
	st, err := r.DetectStore(ctx, query)
	if err != nil {
		return nil, err
	}

	criteria := storage.ProductCriteria{Limit: maxContextProducts}
	if st != nil {
		criteria.StoreID = st.ID
		criteria.Keywords = keywords(query, st.Name, st.City)
	} else {
		criteria.Keywords = keywords(query)
	}

	products, err := r.store.SearchProducts(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("error retrieving products: %w", err)
	}

	resp := &models.AgentResponse{Success: true, Products: products}
	if st != nil {
		resp.Payload = models.RetrievalPayload{Store: st.Name}
	}

	if answer, ok := r.complete(ctx, query, buildProductContext(products, st), 0.7, 512); ok {
		resp.Response = answer
	} else {
		resp.Response = listProducts(products, st)
	}
	return resp, nil
}

// AnswerStoreQuestion answers questions about the physical stores themselves
func (r *RAG) AnswerStoreQuestion(ctx context.Context, query string) (*models.AgentResponse, error) {
	stores, err := r.store.ListStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing stores: %w", err)
	}

	lines := make([]string, 0, len(stores))
	for _, s := range stores {
		lines = append(lines, fmt.Sprintf("- %s: %s, %s %s (Phone: %s)", s.Name, s.Address, s.City, s.Pincode, s.Phone))
	}
	listing := strings.Join(lines, "\n")

	resp := &models.AgentResponse{Success: true}
	if answer, ok := r.complete(ctx, query, "We have the following physical stores:\n"+listing, 0.7, 512); ok {
		resp.Response = answer
	} else if len(stores) == 0 {
		resp.Response = "We don't have any physical stores open right now. You can still shop online anytime."
	} else {
		resp.Response = "Here are our stores:\n" + listing
	}
	return resp, nil
}

// CompareProducts compares the active products among ids. Fewer than two
// matches yields guidance instead of a comparison.
func (r *RAG) CompareProducts(ctx context.Context, ids []string) (*models.AgentResponse, error) {
	products, err := r.store.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error loading products: %w", err)
	}
	if len(products) < 2 {
		return &models.AgentResponse{
			Success:  true,
			Response: "Please provide at least 2 products to compare.",
		}, nil
	}

	resp := &models.AgentResponse{Success: true, Products: products}
	const question = "Compare these products and help me decide which one to buy. Consider price, features, and value for money."
	if answer, ok := r.complete(ctx, question, buildProductContext(products, nil), 0.7, 512); ok {
		resp.Response = answer
	} else {
		resp.Response = compareListing(products)
	}
	return resp, nil
}

// Recommendations returns up to six active products from the same category
// priced within half to one and a half times the given product
func (r *RAG) Recommendations(ctx context.Context, productID string) (*models.AgentResponse, error) {
	p, err := r.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("error loading product %s: %w", productID, err)
	}

	similar, err := r.store.SearchProducts(ctx, storage.ProductCriteria{
		Category:   p.Category,
		MinPrice:   p.Price * 0.5,
		MaxPrice:   p.Price * 1.5,
		ExcludeIDs: []string{p.ID},
		Limit:      maxRecommendations,
	})
	if err != nil {
		return nil, fmt.Errorf("error retrieving similar products: %w", err)
	}

	resp := &models.AgentResponse{Success: true, Products: similar}
	if len(similar) == 0 {
		resp.Response = fmt.Sprintf("I couldn't find products similar to %s right now.", p.Title)
		resp.Payload = models.RecommendationPayload{}
		return resp, nil
	}

	resp.Response = fmt.Sprintf("Customers interested in %s also like these:", p.Title)
	explanation, _ := r.complete(ctx,
		"Explain briefly why these products are recommended together. Keep it to 2-3 sentences.",
		explainContext(*p, similar), 0.8, 150)
	resp.Payload = models.RecommendationPayload{Explanation: explanation}
	return resp, nil
}

// AnswerProductQuestion answers a question about one product using its full
// record as context
func (r *RAG) AnswerProductQuestion(ctx context.Context, productID, question string) (*models.AgentResponse, error) {
	p, err := r.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("error loading product %s: %w", productID, err)
	}

	resp := &models.AgentResponse{Success: true, Products: []models.Product{*p}}
	if answer, ok := r.complete(ctx, question, productDetailContext(*p), 0.7, 512); ok {
		resp.Response = answer
	} else {
		resp.Response = productSummary(*p)
	}
	return resp, nil
}

// complete runs a grounded completion and reports whether it produced an
// answer
func (r *RAG) complete(ctx context.Context, query, productContext string, temperature float64, maxTokens int) (string, bool) {
	if r.llm == nil || !r.llm.Available() {
		return "", false
	}

	answer, err := r.llm.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: llm.SystemPrompt},
		{Role: llm.RoleUser, Content: "CONTEXT:\n" + productContext + "\n\nUSER QUERY: " + query},
	}, llm.Options{Temperature: temperature, MaxTokens: maxTokens})
	if err != nil {
		r.logger.Warn("Product query completion failed, using listing", zap.Error(err))
		return "", false
	}

	answer = strings.TrimSpace(answer)
	return answer, answer != ""
}

func buildProductContext(products []models.Product, st *models.Store) string {
	if len(products) == 0 {
		return "No products found matching your query."
	}

	var b strings.Builder
	if st != nil {
		fmt.Fprintf(&b, "Store: %s (%s)\n", st.Name, st.City)
	}
	for i, p := range products {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		stock := "Out of stock"
		if p.StockOnline > 0 {
			stock = fmt.Sprintf("%d available", p.StockOnline)
		}
		stock = "Online: " + stock
		if st != nil {
			stock = fmt.Sprintf("At %s: %d units available", st.Name, p.StockAt(st.ID))
		}

		price := FormatPrice(p.Price)
		if p.OriginalPrice > 0 {
			price += fmt.Sprintf(" (Was %s)", FormatPrice(p.OriginalPrice))
		}
		brand := p.Brand
		if brand == "" {
			brand = "N/A"
		}

		fmt.Fprintf(&b, "Product %d:\n", i+1)
		fmt.Fprintf(&b, "- Name: %s\n", p.Title)
		fmt.Fprintf(&b, "- Price: %s\n", price)
		fmt.Fprintf(&b, "- Category: %s\n", p.Category)
		fmt.Fprintf(&b, "- Brand: %s\n", brand)
		fmt.Fprintf(&b, "- Rating: %.1f/5 (%d reviews)\n", p.Rating, p.RatingCount)
		fmt.Fprintf(&b, "- Stock: %s\n", stock)
		fmt.Fprintf(&b, "- Description: %s...\n", truncate(p.Description, descriptionContextSize))
	}
	return b.String()
}

func productDetailContext(p models.Product) string {
	brand := p.Brand
	if brand == "" {
		brand = "N/A"
	}
	stock := "Out of Stock"
	if p.StockOnline > 0 {
		stock = "In Stock"
	}
	description := p.Description
	if description == "" {
		description = "No description available."
	}
	features, _ := json.Marshal(p.Features)
	specs, _ := json.Marshal(p.Specifications)

	var b strings.Builder
	b.WriteString("Product Details:\n")
	fmt.Fprintf(&b, "- Name: %s\n", p.Title)
	fmt.Fprintf(&b, "- Price: %s\n", FormatPrice(p.Price))
	fmt.Fprintf(&b, "- Category: %s\n", p.Category)
	fmt.Fprintf(&b, "- Brand: %s\n", brand)
	fmt.Fprintf(&b, "- Rating: %.1f/5 (%d reviews)\n", p.Rating, p.RatingCount)
	fmt.Fprintf(&b, "- Stock: %s\n", stock)
	fmt.Fprintf(&b, "- Description: %s\n", description)
	fmt.Fprintf(&b, "- Features: %s\n", features)
	fmt.Fprintf(&b, "- Specifications: %s\n", specs)
	return b.String()
}

func explainContext(p models.Product, similar []models.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Main Product: %s - %s\n", p.Title, FormatPrice(p.Price))
	fmt.Fprintf(&b, "Category: %s\n", p.Category)
	fmt.Fprintf(&b, "Rating: %.1f/5 (%d reviews)\n\nSimilar Products:\n", p.Rating, p.RatingCount)
	for i, s := range similar {
		if i == maxExplainedProducts {
			break
		}
		fmt.Fprintf(&b, "%d. %s - %s (%.1f/5)\n", i+1, s.Title, FormatPrice(s.Price), s.Rating)
	}
	return b.String()
}

func listProducts(products []models.Product, st *models.Store) string {
	if len(products) == 0 {
		if st != nil {
			return fmt.Sprintf("I couldn't find matching products in stock at %s. Try a different search.", st.Name)
		}
		return "I couldn't find products matching your query. Try a different search."
	}

	var b strings.Builder
	if st != nil {
		fmt.Fprintf(&b, "Here's what's available at %s (%s):", st.Name, st.City)
	} else {
		b.WriteString("Here are some products that match your search:")
	}
	for _, p := range products {
		stock := "out of stock"
		switch {
		case st != nil:
			stock = fmt.Sprintf("%d in store", p.StockAt(st.ID))
		case p.StockOnline > 0:
			stock = "in stock"
		}
		fmt.Fprintf(&b, "\n- %s - %s (%s)", p.Title, FormatPrice(p.Price), stock)
	}
	return b.String()
}

func compareListing(products []models.Product) string {
	var b strings.Builder
	b.WriteString("Here's how they compare:")
	for _, p := range products {
		stock := "out of stock"
		if p.StockOnline > 0 {
			stock = "in stock"
		}
		fmt.Fprintf(&b, "\n- %s: %s, rated %.1f/5, %s", p.Title, FormatPrice(p.Price), p.Rating, stock)
	}
	return b.String()
}

func productSummary(p models.Product) string {
	var b strings.Builder
	b.WriteString(p.Title)
	if p.Brand != "" {
		b.WriteString(" by " + p.Brand)
	}
	fmt.Fprintf(&b, " costs %s and is rated %.1f/5 (%d reviews).", FormatPrice(p.Price), p.Rating, p.RatingCount)
	if p.StockOnline > 0 {
		b.WriteString(" It is in stock online.")
	} else {
		b.WriteString(" It is currently out of stock online.")
	}
	if p.Description != "" {
		b.WriteString(" " + p.Description)
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
