package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xaenox/vikas-bot/internal/llm/llmtest"
	"github.com/xaenox/vikas-bot/internal/models"
	"github.com/xaenox/vikas-bot/internal/storage"
	"go.uber.org/zap/zaptest"
)

func newInventory(t *testing.T) *ProductInventory {
	t.Helper()
	s := testStore(t)
	return NewProductInventory(s, NewRAG(s, nil, zaptest.NewLogger(t)), zaptest.NewLogger(t))
}

func TestProductInventoryRouting(t *testing.T) {
	a := newInventory(t)
	ctx := context.Background()

	t.Run("store question", func(t *testing.T) {
		resp, err := a.Process(ctx, "What is the address of your Delhi store?", models.QueryContext{})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(resp.Response, "Connaught Place") {
			t.Errorf("response = %q", resp.Response)
		}
	})

	t.Run("price", func(t *testing.T) {
		resp, err := a.Process(ctx, "any discount on this?", models.QueryContext{ProductID: "p-tshirt-01"})
		if err != nil {
			t.Fatal(err)
		}
		p, ok := resp.Payload.(models.PricePayload)
		if !ok || p.Savings != 400 || p.CurrentPrice != 599 {
			t.Fatalf("payload = %#v", resp.Payload)
		}
		if !strings.Contains(resp.Response, "You save ₹400") {
			t.Errorf("response = %q", resp.Response)
		}
	})

	t.Run("availability", func(t *testing.T) {
		resp, err := a.Process(ctx, "is this in stock?", models.QueryContext{ProductID: "p-sofa-01"})
		if err != nil {
			t.Fatal(err)
		}
		p, ok := resp.Payload.(models.AvailabilityPayload)
		if !ok || p.Online != 0 || len(p.Stores) != 6 {
			t.Fatalf("payload = %#v", resp.Payload)
		}
		if p.Stores[0].Stock != 1 || p.Stores[3].Stock != 2 {
			t.Errorf("store stock = %+v", p.Stores)
		}
		if !strings.Contains(resp.Response, "out of stock online") {
			t.Errorf("response = %q", resp.Response)
		}
	})

	t.Run("product question", func(t *testing.T) {
		resp, err := a.Process(ctx, "how much RAM does it have", models.QueryContext{ProductID: "p-laptop-01"})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(resp.Response, "16GB RAM") {
			t.Errorf("response = %q", resp.Response)
		}
	})

	t.Run("unknown product is not an error", func(t *testing.T) {
		for _, q := range []string{"price?", "in stock?", "tell me more"} {
			resp, err := a.Process(ctx, q, models.QueryContext{ProductID: "gone"})
			if err != nil {
				t.Fatalf("%q: %v", q, err)
			}
			if !resp.Success || resp.Response != productNotFoundMessage {
				t.Errorf("%q: response = %+v", q, resp)
			}
		}
	})

	t.Run("search", func(t *testing.T) {
		resp, err := a.Process(ctx, "show me sneakers", models.QueryContext{})
		if err != nil {
			t.Fatal(err)
		}
		if len(resp.Products) != 3 {
			t.Errorf("products = %v", productIDs(resp.Products))
		}
	})
}

func TestPersonalizationProfile(t *testing.T) {
	a := NewPersonalization(testStore(t), testStore(t), nil, zaptest.NewLogger(t))

	profile, err := a.BuildProfile(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("BuildProfile: %v", err)
	}
	if !profile.HasHistory || profile.TotalOrders != 1 || profile.CartItems != 1 {
		t.Fatalf("profile = %+v", profile)
	}
	if profile.Categories[0] != (Affinity{Name: "Footwear", Score: 1.0}) {
		t.Errorf("top category = %+v", profile.Categories[0])
	}
	if profile.Categories[1] != (Affinity{Name: "Watches", Score: 0.7}) {
		t.Errorf("second category = %+v", profile.Categories[1])
	}
	if profile.AvgPrice != 3747 || profile.PriceRange.Min != 1873.5 || profile.PriceRange.Max != 5620.5 {
		t.Errorf("prices = %v %+v", profile.AvgPrice, profile.PriceRange)
	}

	empty, err := a.BuildProfile(context.Background(), "")
	if err != nil || empty.HasHistory {
		t.Errorf("anonymous profile = %+v, %v", empty, err)
	}
}

func TestPersonalizationProcess(t *testing.T) {
	s := testStore(t)
	a := NewPersonalization(s, s, &llmtest.Completer{Disabled: true}, zaptest.NewLogger(t))
	ctx := context.Background()

	resp, err := a.Process(ctx, "recommend something", models.QueryContext{UserID: "u-1", ProductID: "p-sneaker-01"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Response != "Based on your interest in Footwear" {
		t.Errorf("response = %q", resp.Response)
	}
	if got := productIDs(resp.Products); len(got) != 1 || got[0] != "p-sneaker-02" {
		t.Errorf("products = %v", got)
	}
	payload := resp.Payload.(models.RecommendationPayload)
	if !payload.Personalized || payload.Explanation != "Recommended based on your shopping preferences." {
		t.Errorf("payload = %+v", payload)
	}

	resp, err = a.Process(ctx, "suggest something", models.QueryContext{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Response != "Top rated products for you" || resp.Payload.(models.RecommendationPayload).Personalized {
		t.Errorf("anonymous response = %+v", resp)
	}
	for _, p := range resp.Products {
		if p.StockOnline <= 0 {
			t.Errorf("out of stock product %s recommended", p.ID)
		}
	}
}

func TestPersonalizationProfileFailureDegrades(t *testing.T) {
	a := NewPersonalization(testStore(t), brokenStore{}, nil, zaptest.NewLogger(t))

	resp, err := a.Process(context.Background(), "recommend", models.QueryContext{UserID: "u-1"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Response != "Top rated products for you" {
		t.Errorf("response = %q", resp.Response)
	}
}

func TestOrderFulfillment(t *testing.T) {
	a := NewOrderFulfillment(testStore(t), zaptest.NewLogger(t))
	ctx := context.Background()
	user := models.QueryContext{UserID: "u-1"}

	tests := []struct {
		name  string
		query string
		qc    models.QueryContext
		want  string
	}{
		{"login required", "track my order", models.QueryContext{}, "Please log in"},
		{"recent orders", "track my order", user, "#1001: Your order is on the way!"},
		{"order by number", "where is order #1001", user, "Estimated delivery: Mar 3, 2026"},
		{"unknown order", "status of order 9999", user, "couldn't find order 9999"},
		{"returns policy", "I want a refund", user, "free within 15 days"},
		{"checkout", "proceed to checkout", user, "Your total is ₹4,995"},
		{"no orders", "track my order", models.QueryContext{UserID: "u-9"}, "don't have any orders yet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := a.Process(ctx, tt.query, tt.qc)
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if !resp.Success || !strings.Contains(resp.Response, tt.want) {
				t.Errorf("response = %+v, want it to contain %q", resp, tt.want)
			}
		})
	}
}

func TestCheckoutStockIssues(t *testing.T) {
	s := testStore(t)
	s.Seed(storage.Catalog{Cart: []models.CartItem{{UserID: "u-2", ProductID: "p-sofa-01", Quantity: 1}}})
	a := NewOrderFulfillment(s, zaptest.NewLogger(t))

	resp, err := a.AssistCheckout(context.Background(), "u-2")
	if err != nil {
		t.Fatalf("AssistCheckout: %v", err)
	}
	p := resp.Payload.(models.CheckoutPayload)
	if p.CanCheckout || len(p.Issues) != 1 || p.Issues[0] != "Three Seater Fabric Sofa" {
		t.Errorf("payload = %+v", p)
	}
}

func TestOrderFulfillmentBackendFailure(t *testing.T) {
	a := NewOrderFulfillment(brokenStore{}, zaptest.NewLogger(t))
	if _, err := a.Process(context.Background(), "track", models.QueryContext{UserID: "u-1"}); !errors.Is(err, errBackend) {
		t.Fatalf("err = %v, want backend error", err)
	}
}

func TestEstimatedDelivery(t *testing.T) {
	tests := []struct {
		status models.OrderStatus
		want   string
	}{
		{models.OrderDelivered, "Delivered"},
		{models.OrderOutForDelivery, "Today"},
		{models.OrderShipped, "Mar 3, 2026"},
		{models.OrderPending, "Mar 6, 2026"},
	}
	for _, tt := range tests {
		o := models.Order{Status: tt.status, CreatedAt: orderTime}
		if got := EstimatedDelivery(o); got != tt.want {
			t.Errorf("EstimatedDelivery(%s) = %q, want %q", tt.status, got, tt.want)
		}
	}
	if got := StatusMessage("lost"); got != "lost" {
		t.Errorf("unknown status message = %q", got)
	}
}

func TestImmersiveEligibility(t *testing.T) {
	tests := []struct {
		category string
		ar, d3   bool
	}{
		{"Clothing and Accessories", true, false},
		{"Men's Footwear", true, false},
		{"Furniture", false, true},
		{"Electronics", false, true},
		{"Groceries", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		p := &models.Product{ID: "x", Category: tt.category}
		if ARSupported(p) != tt.ar || ThreeDSupported(p) != tt.d3 {
			t.Errorf("%q: ar=%v 3d=%v", tt.category, ARSupported(p), ThreeDSupported(p))
		}
	}
	if ARSupported(nil) || ExperienceOptions(nil) == nil {
		t.Error("nil product should have no experiences but a non-nil list")
	}

	sofa := &models.Product{ID: "p-sofa-01", Category: "Furniture", Images: []string{"sofa.jpg"}}
	if got := len(ExperienceOptions(sofa)); got != 2 {
		t.Errorf("furniture experiences = %d, want 2", got)
	}
	if ARAssetFor(sofa) != nil {
		t.Error("furniture should have no AR asset")
	}
	if v := ViewerConfigFor(sofa); v == nil || v.ModelURL != "/3d/models/p-sofa-01.glb" || v.ThumbnailURL != "sofa.jpg" {
		t.Errorf("viewer = %+v", v)
	}
}

func TestImmersiveProcess(t *testing.T) {
	a := NewImmersive(testStore(t), zaptest.NewLogger(t))
	ctx := context.Background()

	tests := []struct {
		name      string
		query     string
		productID string
		want      string
		check     func(models.ImmersivePayload) bool
	}{
		{"try on without product", "can I try on glasses", "", "please select a product",
			func(p models.ImmersivePayload) bool { return len(p.Features) == 0 }},
		{"try on eligible", "virtual try on", "p-tshirt-01", "try on \"Cotton Crew Neck T-Shirt\"",
			func(p models.ImmersivePayload) bool { return p.ARAsset != nil && p.ARAsset.AndroidURL == "/ar/models/p-tshirt-01.glb" }},
		{"try on ineligible", "is ar supported", "p-laptop-01", "doesn't support AR yet",
			func(p models.ImmersivePayload) bool { return p.ARAsset == nil }},
		{"3d eligible", "show it in 3d", "p-sofa-01", "in 3D!",
			func(p models.ImmersivePayload) bool { return p.Viewer != nil && len(p.Features) == 2 }},
		{"3d ineligible falls through", "view in room", "p-watch-01", "VIKAS offers AR try-on",
			func(p models.ImmersivePayload) bool { return len(p.Features) == 2 && p.Features[0].Categories != nil }},
		{"stale product id", "3d view", "gone", "Select a product to explore it in 3D",
			func(p models.ImmersivePayload) bool { return true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := a.Process(ctx, tt.query, models.QueryContext{ProductID: tt.productID})
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if !strings.Contains(resp.Response, tt.want) {
				t.Errorf("response = %q, want %q", resp.Response, tt.want)
			}
			payload, ok := resp.Payload.(models.ImmersivePayload)
			if !ok || !tt.check(payload) {
				t.Errorf("payload = %#v", resp.Payload)
			}
		})
	}
}

type fakeMetrics struct {
	metrics  models.DashboardMetrics
	insights []models.Insight
}

func (f fakeMetrics) DashboardMetrics() models.DashboardMetrics { return f.metrics }
func (f fakeMetrics) Insights() []models.Insight { return f.insights }
func (f fakeMetrics) TotalInteractions() int64 { return f.metrics.TotalInteractions }
func (f fakeMetrics) AverageSentiment() float64 { return f.metrics.AverageSentiment }

func TestAnalyticsAgent(t *testing.T) {
	a := NewAnalyticsAgent(fakeMetrics{
		metrics:  models.DashboardMetrics{TotalInteractions: 42, ContainmentRate: 0.9, AverageSentiment: 0.25},
		insights: []models.Insight{{Type: models.InsightInfo, Message: "Top searches: shoes"}},
	})
	ctx := context.Background()

	resp, _ := a.Process(ctx, "show me the dashboard", models.QueryContext{})
	if resp.Response != "Here are the current analytics: 42 total interactions, 90.0% containment rate." {
		t.Errorf("dashboard response = %q", resp.Response)
	}
	if _, ok := resp.Payload.(models.MetricsPayload); !ok {
		t.Errorf("dashboard payload = %#v", resp.Payload)
	}

	resp, _ = a.Process(ctx, "any insights?", models.QueryContext{})
	if resp.Response != "Key insights: Top searches: shoes" {
		t.Errorf("insights response = %q", resp.Response)
	}

	resp, _ = a.Process(ctx, "analytics", models.QueryContext{})
	summary, ok := resp.Payload.(models.AnalyticsSummaryPayload)
	if !ok || summary.Interactions != 42 || summary.AverageSentiment != 0.25 {
		t.Errorf("summary payload = %#v", resp.Payload)
	}
}

type fixedSentiment models.SentimentResult

func (f fixedSentiment) Analyze(context.Context, string) models.SentimentResult {
	return models.SentimentResult(f)
}

func TestEscalate(t *testing.T) {
	a := NewCustomerExperience(fixedSentiment{})
	history := []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7"}
	qc := models.QueryContext{UserID: "u-1", History: history}

	esc := a.Escalate(qc, models.SentimentResult{Score: -0.8, NeedsEscalation: true})
	if esc.Priority != models.PriorityHigh {
		t.Errorf("priority = %s, want high", esc.Priority)
	}
	if !strings.HasPrefix(esc.TicketID, "ESC-") || len(esc.TicketID) != 16 {
		t.Errorf("ticket id = %q", esc.TicketID)
	}
	if got := esc.Context.LastMessages; len(got) != 5 || got[0] != "m3" || got[4] != "m7" {
		t.Errorf("last messages = %v", got)
	}
	esc.Context.LastMessages[0] = "changed"
	if history[2] != "m3" {
		t.Error("escalation shares the caller's history slice")
	}

	if esc := a.Escalate(models.QueryContext{}, models.SentimentResult{Score: -0.6}); esc.Priority != models.PriorityNormal {
		t.Errorf("priority = %s, want normal", esc.Priority)
	}
	if esc := a.Escalate(models.QueryContext{}, models.SentimentResult{Score: -0.6}); esc.Context.LastMessages == nil {
		t.Error("last messages should be empty, not nil")
	}
}

func TestGreeting(t *testing.T) {
	a := NewCustomerExperience(fixedSentiment{})
	if got := a.Greeting("", false).Text; got != "Hello! Welcome to VIKAS." {
		t.Errorf("greeting = %q", got)
	}
	g := a.Greeting("Asha", true)
	if g.Text != "Hello, Asha! Welcome back to VIKAS." || len(g.Suggestions) != 3 {
		t.Errorf("greeting = %+v", g)
	}
}

func TestCustomerExperienceProcess(t *testing.T) {
	ctx := context.Background()

	resp, _ := NewCustomerExperience(fixedSentiment{Score: -0.9, Label: models.SentimentNegative, NeedsEscalation: true}).
		Process(ctx, "get me a manager", models.QueryContext{})
	if resp.Escalation == nil || resp.Response != escalationResponse {
		t.Errorf("escalation response = %+v", resp)
	}

	tones := map[models.SentimentLabel]string{
		models.SentimentNegative: "empathetic",
		models.SentimentPositive: "enthusiastic",
		models.SentimentNeutral:  "friendly",
	}
	for label, want := range tones {
		resp, _ := NewCustomerExperience(fixedSentiment{Label: label}).Process(ctx, "hi", models.QueryContext{})
		if tone := resp.Payload.(models.TonePayload).Tone; tone != want {
			t.Errorf("%s tone = %s, want %s", label, tone, want)
		}
	}
}
