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

func TestRAGQueryAtStoreWithoutLLM(t *testing.T) {
	r := NewRAG(testStore(t), &llmtest.Completer{Disabled: true}, zaptest.NewLogger(t))

	resp, err := r.Query(context.Background(), "Find tshirts available at Mumbai store")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !resp.Success {
		t.Fatal("listing fallback should succeed")
	}
	payload, ok := resp.Payload.(models.RetrievalPayload)
	if !ok || payload.Store != "VIKAS Mall Store" {
		t.Fatalf("payload = %#v, want Mumbai store", resp.Payload)
	}
	if got := productIDs(resp.Products); len(got) != 1 || got[0] != "p-tshirt-01" {
		t.Errorf("products = %v", got)
	}
	if !strings.Contains(resp.Response, "15 in store") {
		t.Errorf("response = %q, want store stock", resp.Response)
	}
}

func TestRAGQueryUsesCompletion(t *testing.T) {
	completer := &llmtest.Completer{Replies: []string{"  The ThinBook 14 is a great pick.  "}}
	r := NewRAG(testStore(t), completer, zaptest.NewLogger(t))

	resp, err := r.Query(context.Background(), "what is the best laptop")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if resp.Response != "The ThinBook 14 is a great pick." {
		t.Errorf("response = %q", resp.Response)
	}
	prompt := completer.LastPrompt()
	if !strings.Contains(prompt, "ThinBook 14 Laptop") || !strings.Contains(prompt, "USER QUERY: what is the best laptop") {
		t.Errorf("prompt missing context: %q", prompt)
	}
	if resp.Payload != nil {
		t.Errorf("payload = %#v, want none without a store", resp.Payload)
	}
}

func TestRAGQueryFallsBackOnCompletionError(t *testing.T) {
	r := NewRAG(testStore(t), &llmtest.Completer{Err: errors.New("rate limited")}, zaptest.NewLogger(t))

	resp, err := r.Query(context.Background(), "sofa")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !resp.Success || !strings.Contains(resp.Response, "Three Seater Fabric Sofa") {
		t.Errorf("response = %+v", resp)
	}
}

func TestRAGQueryNoMatches(t *testing.T) {
	r := NewRAG(testStore(t), nil, zaptest.NewLogger(t))

	resp, err := r.Query(context.Background(), "submarine")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !resp.Success || len(resp.Products) != 0 || !strings.Contains(resp.Response, "couldn't find") {
		t.Errorf("response = %+v", resp)
	}
}

func TestRAGQueryBackendFailure(t *testing.T) {
	r := NewRAG(brokenStore{}, nil, zaptest.NewLogger(t))
	if _, err := r.Query(context.Background(), "shoes"); !errors.Is(err, errBackend) {
		t.Fatalf("err = %v, want backend error", err)
	}
}

func TestAnswerStoreQuestion(t *testing.T) {
	r := NewRAG(testStore(t), nil, zaptest.NewLogger(t))

	resp, err := r.AnswerStoreQuestion(context.Background(), "where are your stores")
	if err != nil {
		t.Fatalf("AnswerStoreQuestion: %v", err)
	}
	for _, want := range []string{"Linking Road, Bandra West", "Pune"} {
		if !strings.Contains(resp.Response, want) {
			t.Errorf("response missing %q: %q", want, resp.Response)
		}
	}
}

func TestCompareProducts(t *testing.T) {
	r := NewRAG(testStore(t), nil, zaptest.NewLogger(t))
	ctx := context.Background()

	resp, err := r.CompareProducts(ctx, []string{"p-sneaker-01", "missing"})
	if err != nil {
		t.Fatalf("CompareProducts: %v", err)
	}
	if !resp.Success || len(resp.Products) != 0 || !strings.Contains(resp.Response, "at least 2") {
		t.Errorf("single match response = %+v", resp)
	}

	resp, err = r.CompareProducts(ctx, []string{"p-sneaker-01", "p-sneaker-02"})
	if err != nil {
		t.Fatalf("CompareProducts: %v", err)
	}
	if len(resp.Products) != 2 || !strings.Contains(resp.Response, "Trail Sneakers") {
		t.Errorf("comparison = %+v", resp)
	}
}

func TestRecommendations(t *testing.T) {
	completer := &llmtest.Completer{Replies: []string{"Both are light everyday runners."}}
	r := NewRAG(testStore(t), completer, zaptest.NewLogger(t))

	resp, err := r.Recommendations(context.Background(), "p-sneaker-01")
	if err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	// p-sneaker-03 is priced outside 0.5x-1.5x
	if got := productIDs(resp.Products); len(got) != 1 || got[0] != "p-sneaker-02" {
		t.Errorf("products = %v, want [p-sneaker-02]", got)
	}
	payload, ok := resp.Payload.(models.RecommendationPayload)
	if !ok || payload.Explanation != "Both are light everyday runners." {
		t.Errorf("payload = %#v", resp.Payload)
	}

	if _, err := r.Recommendations(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAnswerProductQuestion(t *testing.T) {
	r := NewRAG(testStore(t), &llmtest.Completer{Disabled: true}, zaptest.NewLogger(t))

	resp, err := r.AnswerProductQuestion(context.Background(), "p-watch-01", "is it waterproof?")
	if err != nil {
		t.Fatalf("AnswerProductQuestion: %v", err)
	}
	if !strings.HasPrefix(resp.Response, "Classic Analog Watch by Titan costs ₹4,995") {
		t.Errorf("response = %q", resp.Response)
	}
	if _, err := r.AnswerProductQuestion(context.Background(), "missing", "?"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
