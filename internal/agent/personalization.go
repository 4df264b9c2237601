package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/xaenox/vikas-bot/internal/llm"
	"github.com/xaenox/vikas-bot/internal/models"
	"github.com/xaenox/vikas-bot/internal/storage"
	"go.uber.org/zap"
)

const (
	purchaseWeight = 1.0
	cartWeight     = 0.7

	profileOrderLimit     = 20
	profileTopK           = 5
	defaultRecommendLimit = 10
)

type Affinity struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Profile summarizes a user's taste from their orders and cart
type Profile struct {
	HasHistory  bool        `json:"hasHistory"`
	Categories  []Affinity  `json:"categories,omitempty"`
	Brands      []Affinity  `json:"brands,omitempty"`
	AvgPrice    float64     `json:"avgPrice,omitempty"`
	PriceRange  *PriceRange `json:"priceRange,omitempty"`
	TotalOrders int         `json:"totalOrders"`
	CartItems   int         `json:"cartItems"`
}

type Personalization struct {
	products storage.ProductStorage
	orders   storage.OrderStorage
	llm      llm.Completer
	logger   *zap.Logger
}

func NewPersonalization(products storage.ProductStorage, orders storage.OrderStorage, completer llm.Completer, logger *zap.Logger) *Personalization {
	return &Personalization{products: products, orders: orders, llm: completer, logger: logger}
}

// BuildProfile weighs purchased items above items sitting in the cart.
// Anonymous users get an empty profile.
func (a *Personalization) BuildProfile(ctx context.Context, userID string) (Profile, error) {
	if userID == "" {
		return Profile{}, nil
	}

	orders, err := a.orders.ListOrders(ctx, userID, profileOrderLimit)
	if err != nil {
		return Profile{}, fmt.Errorf("error loading orders: %w", err)
	}
	cart, err := a.orders.ListCartItems(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("error loading cart: %w", err)
	}

	categories := make(map[string]float64)
	brands := make(map[string]float64)
	var prices []float64

	for _, o := range orders {
		for _, item := range o.Items {
			if item.Category != "" {
				categories[item.Category] += purchaseWeight
			}
			if item.Brand != "" {
				brands[item.Brand] += purchaseWeight
			}
			if item.Price > 0 {
				prices = append(prices, item.Price)
			}
		}
	}
	for _, item := range cart {
		p := item.Product
		if p == nil {
			continue
		}
		if p.Category != "" {
			categories[p.Category] += cartWeight
		}
		if p.Brand != "" {
			brands[p.Brand] += cartWeight
		}
		if p.Price > 0 {
			prices = append(prices, p.Price)
		}
	}

	profile := Profile{
		HasHistory:  len(orders) > 0 || len(cart) > 0,
		Categories:  topAffinities(categories, profileTopK),
		Brands:      topAffinities(brands, profileTopK),
		TotalOrders: len(orders),
		CartItems:   len(cart),
	}
	if len(prices) > 0 {
		sum := 0.0
		for _, p := range prices {
			sum += p
		}
		profile.AvgPrice = sum / float64(len(prices))
		profile.PriceRange = &PriceRange{Min: profile.AvgPrice * 0.5, Max: profile.AvgPrice * 1.5}
	}
	return profile, nil
}

func topAffinities(scores map[string]float64, k int) []Affinity {
	out := make([]Affinity, 0, len(scores))
	for name, score := range scores {
		out = append(out, Affinity{Name: name, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Recommend picks in-stock products from the user's favourite category and
// price range, best rated first
func (a *Personalization) Recommend(ctx context.Context, userID string, excludeIDs []string, limit int) ([]models.Product, Profile, error) {
	if limit <= 0 {
		limit = defaultRecommendLimit
	}

	profile, err := a.BuildProfile(ctx, userID)
	if err != nil {
		a.logger.Warn("Failed to build user profile",
			zap.Error(err),
			zap.String("user_id", userID))
		profile = Profile{}
	}

	criteria := storage.ProductCriteria{
		InStock:    true,
		ExcludeIDs: excludeIDs,
		Limit:      limit,
	}
	if profile.HasHistory && len(profile.Categories) > 0 {
		criteria.Category = profile.Categories[0].Name
	}
	if profile.PriceRange != nil {
		criteria.MinPrice = profile.PriceRange.Min
		criteria.MaxPrice = profile.PriceRange.Max
	}

	products, err := a.products.SearchProducts(ctx, criteria)
	if err != nil {
		return nil, profile, fmt.Errorf("error retrieving recommendations: %w", err)
	}
	return products, profile, nil
}

func (a *Personalization) Process(ctx context.Context, query string, qc models.QueryContext) (*models.AgentResponse, error) {
	var exclude []string
	if qc.ProductID != "" {
		exclude = []string{qc.ProductID}
	}

	products, profile, err := a.Recommend(ctx, qc.UserID, exclude, defaultRecommendLimit)
	if err != nil {
		return nil, err
	}

	reason := "Top rated products for you"
	if profile.HasHistory {
		interest := "similar products"
		if len(profile.Categories) > 0 {
			interest = profile.Categories[0].Name
		}
		reason = "Based on your interest in " + interest
	}

	payload := models.RecommendationPayload{Personalized: profile.HasHistory}
	if profile.HasHistory && len(products) > 0 {
		payload.Explanation = a.explain(ctx, products[0], profile)
	}

	return &models.AgentResponse{
		Success:  true,
		Response: reason,
		Products: products,
		Payload:  payload,
	}, nil
}

func (a *Personalization) explain(ctx context.Context, p models.Product, profile Profile) string {
	if a.llm == nil || !a.llm.Available() {
		return "Recommended based on your shopping preferences."
	}

	prefs, _ := json.Marshal(profile)
	prompt := fmt.Sprintf(`Generate a SHORT (1-2 sentences) personalized explanation for why this product is recommended.

Product: %s
Category: %s
Price: %s

User preferences: %s

Explanation:`, p.Title, p.Category, FormatPrice(p.Price), prefs)

	out, err := a.llm.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		llm.Options{Temperature: 0.7, MaxTokens: 100})
	if err != nil || out == "" {
		return "Recommended based on your shopping history."
	}
	return out
}
