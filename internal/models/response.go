package models

import "time"

// AgentResponse is the uniform reply of the orchestrator and every handler.
// Success, Response and AgentUsed are always set; Payload carries the
// intent-specific part of the answer.
type AgentResponse struct {
	Success     bool             `json:"success"`
	Response    string           `json:"response"`
	AgentUsed   string           `json:"agentUsed,omitempty"`
	Intent      Intent           `json:"intent,omitempty"`
	Sentiment   *SentimentResult `json:"sentiment,omitempty"`
	Products    []Product        `json:"products,omitempty"`
	Suggestions []string         `json:"suggestions,omitempty"`
	Escalation  *Escalation      `json:"escalation,omitempty"`
	Payload     Payload          `json:"payload,omitempty"`
}

// Payload is implemented by the intent-specific response bodies
type Payload interface {
	Kind() string
}

type StoreStock struct {
	StoreID   int    `json:"storeId"`
	StoreName string `json:"storeName"`
	City      string `json:"city"`
	Stock     int    `json:"stock"`
}

type ProductRef struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// RetrievalPayload marks an answer grounded on a specific store's stock
type RetrievalPayload struct {
	Store string `json:"store,omitempty"`
}

func (RetrievalPayload) Kind() string { return "retrieval" }

type AvailabilityPayload struct {
	Product ProductRef   `json:"product"`
	Online  int          `json:"online"`
	Stores  []StoreStock `json:"stores"`
}

func (AvailabilityPayload) Kind() string { return "availability" }

type PricePayload struct {
	Product       ProductRef `json:"product"`
	CurrentPrice  float64    `json:"currentPrice"`
	OriginalPrice float64    `json:"originalPrice,omitempty"`
	Discount      int        `json:"discount,omitempty"`
	Savings       float64    `json:"savings"`
}

func (PricePayload) Kind() string { return "price" }

type RecommendationPayload struct {
	Personalized bool   `json:"personalized"`
	Explanation  string `json:"explanation,omitempty"`
}

func (RecommendationPayload) Kind() string { return "recommendation" }

type OrderSummary struct {
	ID            string      `json:"id"`
	OrderNumber   string      `json:"orderNumber"`
	Status        OrderStatus `json:"status"`
	StatusMessage string      `json:"statusMessage"`
	Total         float64     `json:"total"`
	ItemCount     int         `json:"itemCount"`
	CreatedAt     time.Time   `json:"createdAt"`
}

type OrdersPayload struct {
	Orders []OrderSummary `json:"orders"`
}

func (OrdersPayload) Kind() string { return "orders" }

type OrderDetailPayload struct {
	Order             OrderSummary `json:"order"`
	Items             []OrderItem  `json:"items"`
	ShippingAddress   string       `json:"shippingAddress,omitempty"`
	EstimatedDelivery string       `json:"estimatedDelivery"`
}

func (OrderDetailPayload) Kind() string { return "order_detail" }

type CartLine struct {
	Title    string  `json:"title"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type CheckoutPayload struct {
	CanCheckout bool       `json:"canCheckout"`
	Issues      []string   `json:"issues,omitempty"`
	ItemCount   int        `json:"itemCount,omitempty"`
	Total       float64    `json:"total,omitempty"`
	Items       []CartLine `json:"items,omitempty"`
}

func (CheckoutPayload) Kind() string { return "checkout" }

type ExperienceFeature struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Action      string   `json:"action,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

type ARAsset struct {
	ModelURL      string  `json:"modelUrl"`
	AndroidURL    string  `json:"androidUrl"`
	FallbackImage string  `json:"fallbackImage,omitempty"`
	Scale         float64 `json:"scale"`
	Placement     string  `json:"placement"`
}

type ViewerConfig struct {
	ModelURL        string  `json:"modelUrl"`
	ThumbnailURL    string  `json:"thumbnailUrl,omitempty"`
	AutoRotate      bool    `json:"autoRotate"`
	CameraControls  bool    `json:"cameraControls"`
	ShadowIntensity float64 `json:"shadowIntensity"`
	Exposure        float64 `json:"exposure"`
	BackgroundColor string  `json:"backgroundColor"`
}

type ImmersivePayload struct {
	Features []ExperienceFeature `json:"features"`
	ARAsset  *ARAsset            `json:"arAsset,omitempty"`
	Viewer   *ViewerConfig       `json:"viewer,omitempty"`
}

func (ImmersivePayload) Kind() string { return "immersive" }

type MetricsPayload struct {
	Metrics DashboardMetrics `json:"metrics"`
}

func (MetricsPayload) Kind() string { return "metrics" }

type InsightsPayload struct {
	Insights []Insight `json:"insights"`
}

func (InsightsPayload) Kind() string { return "insights" }

type AnalyticsSummaryPayload struct {
	Interactions     int64   `json:"interactions"`
	AverageSentiment float64 `json:"averageSentiment"`
}

func (AnalyticsSummaryPayload) Kind() string { return "analytics_summary" }

// TonePayload is returned by the customer experience handler when no escalation is needed
type TonePayload struct {
	Tone string `json:"tone"`
}

func (TonePayload) Kind() string { return "tone" }
