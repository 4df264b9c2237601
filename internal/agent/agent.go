// Package agent holds the specialized handlers the orchestrator dispatches to.
package agent

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/xaenox/vikas-bot/internal/models"
)

// Labels reported as AgentResponse.AgentUsed
const (
	NameOrchestrator       = "orchestrator"
	NameCustomerExperience = "customerExperience"
	NameProductInventory   = "productInventory"
	NamePersonalization    = "personalization"
	NameOrderFulfillment   = "orderFulfillment"
	NameImmersive          = "immersiveExperience"
	NameAnalytics          = "analyticsEngine"
	NameRAG                = "rag"
	NameError              = "error"
)

// Handler answers one routed query. Expected "not found" conditions are
// reported as a successful response with guidance text; an error means the
// backend failed.
type Handler interface {
	Process(ctx context.Context, query string, qc models.QueryContext) (*models.AgentResponse, error)
}

type HandlerFunc func(ctx context.Context, query string, qc models.QueryContext) (*models.AgentResponse, error)

func (f HandlerFunc) Process(ctx context.Context, query string, qc models.QueryContext) (*models.AgentResponse, error) {
	return f(ctx, query, qc)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var stopwords = map[string]bool{
	"show": true, "find": true, "search": true, "looking": true, "for": true,
	"want": true, "need": true, "what": true, "which": true, "available": true,
	"store": true, "stores": true, "vikas": true, "the": true, "and": true,
	"with": true, "any": true, "have": true, "you": true, "are": true,
	"there": true, "some": true, "get": true, "please": true, "can": true,
	"best": true, "products": true, "product": true, "items": true, "near": true,
}

// keywords extracts search terms: lowercased words longer than two letters,
// minus stopwords and the given exclusions, with a trailing plural "s" cut so
// substring matching finds the singular form too
func keywords(query string, exclude ...string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		for _, w := range splitWords(e) {
			skip[w] = true
		}
	}

	var out []string
	seen := make(map[string]bool)
	for _, w := range splitWords(query) {
		if len(w) <= 2 || stopwords[w] || skip[w] {
			continue
		}
		if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
			w = strings.TrimSuffix(w, "s")
		}
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// FormatPrice renders an amount in rupees with thousands separators
func FormatPrice(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "₹" + b.String()
	if frac != "00" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

func productRef(p models.Product) models.ProductRef {
	return models.ProductRef{ID: p.ID, Title: p.Title, Price: p.Price}
}
