package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xaenox/vikas-bot/internal/llm/llmtest"
	"github.com/xaenox/vikas-bot/internal/models"
	"go.uber.org/zap/zaptest"
)

func TestEscalationPhrasesShortCircuit(t *testing.T) {
	completer := &llmtest.Completer{Replies: []string{`{"score":0.9,"label":"positive"}`}}
	a := NewSentimentAnalyzer(completer, 0, zaptest.NewLogger(t))

	for _, msg := range []string{
		"I want to SPEAK TO HUMAN now",
		"get me a Manager",
		"my lawyer will hear about this",
		"Refund Now please",
	} {
		got := a.Analyze(context.Background(), msg)
		if !got.NeedsEscalation || got.Score != -0.8 || got.Label != models.SentimentNegative {
			t.Errorf("Analyze(%q) = %+v, want escalation at -0.8", msg, got)
		}
	}
	if completer.Calls() != 0 {
		t.Errorf("LLM called %d times on escalation phrases", completer.Calls())
	}
}

func TestLLMSentiment(t *testing.T) {
	completer := &llmtest.Completer{Replies: []string{"```json\n{\"score\": -0.65, \"label\": \"negative\", \"reason\": \"annoyed\"}\n```"}}
	a := NewSentimentAnalyzer(completer, -0.5, zaptest.NewLogger(t))

	got := a.Analyze(context.Background(), "the package came late again")
	if got.Score != -0.65 || got.Label != models.SentimentNegative || got.Reason != "annoyed" {
		t.Fatalf("Analyze = %+v", got)
	}
	if !got.NeedsEscalation {
		t.Error("score below threshold should escalate")
	}
}

func TestLLMSentimentIsClampedAndRelabelled(t *testing.T) {
	completer := &llmtest.Completer{Replies: []string{`{"score": 3.5, "label": "ecstatic"}`}}
	a := NewSentimentAnalyzer(completer, 0, zaptest.NewLogger(t))

	got := a.Analyze(context.Background(), "wow")
	if got.Score != 1 {
		t.Errorf("score = %v, want clamped to 1", got.Score)
	}
	if got.Label != models.SentimentPositive {
		t.Errorf("label = %s, want positive", got.Label)
	}
}

func TestLLMFailuresFallBackToKeywords(t *testing.T) {
	tests := []struct {
		name      string
		completer *llmtest.Completer
	}{
		{"call error", &llmtest.Completer{Err: errors.New("timeout")}},
		{"malformed json", &llmtest.Completer{Replies: []string{"I'd say the customer is upset"}}},
		{"missing score", &llmtest.Completer{Replies: []string{`{"label":"negative"}`}}},
		{"unavailable", &llmtest.Completer{Disabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewSentimentAnalyzer(tt.completer, 0, zaptest.NewLogger(t))
			got := a.Analyze(context.Background(), "thanks, this is great")
			if got.Reason != "Keyword-based analysis" {
				t.Fatalf("reason = %q, want keyword fallback", got.Reason)
			}
			if got.Label != models.SentimentPositive {
				t.Errorf("label = %s, want positive", got.Label)
			}
		})
	}
}

func TestKeywordSentiment(t *testing.T) {
	a := NewSentimentAnalyzer(nil, 0, zaptest.NewLogger(t))

	tests := []struct {
		msg       string
		label     models.SentimentLabel
		escalates bool
	}{
		{"thanks!", models.SentimentPositive, false},
		{"ok", models.SentimentNeutral, false},
		{"this is bad", models.SentimentNegative, false},
		{"bad and broken, I hate it, awful", models.SentimentNegative, true},
	}
	for _, tt := range tests {
		got := a.KeywordSentiment(tt.msg)
		if got.Label != tt.label || got.NeedsEscalation != tt.escalates {
			t.Errorf("KeywordSentiment(%q) = %+v", tt.msg, got)
		}
	}
}

func TestKeywordScoreIsClamped(t *testing.T) {
	a := NewSentimentAnalyzer(nil, 0, zaptest.NewLogger(t))

	neg := a.KeywordSentiment("bad terrible awful hate disappointed frustrated angry worst broken")
	if neg.Score != -1 {
		t.Errorf("negative score = %v, want -1", neg.Score)
	}
	pos := a.KeywordSentiment("thanks great awesome love perfect excellent happy satisfied")
	if pos.Score != 1 {
		t.Errorf("positive score = %v, want 1", pos.Score)
	}
}

func TestLLMSentimentUsesShortBudget(t *testing.T) {
	completer := &llmtest.Completer{Replies: []string{`{"score":0.4,"label":"positive"}`}}
	a := NewSentimentAnalyzer(completer, 0, zaptest.NewLogger(t))

	a.Analyze(context.Background(), "the delivery was quick")

	opts := completer.LastOptions()
	if opts.MaxRetries != 1 {
		t.Errorf("MaxRetries = %d, want a single attempt", opts.MaxRetries)
	}
	if opts.Timeout <= 0 || opts.Timeout > 10*time.Second {
		t.Errorf("Timeout = %v, want at most 10s", opts.Timeout)
	}
}
