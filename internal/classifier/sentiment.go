package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xaenox/vikas-bot/internal/llm"
	"github.com/xaenox/vikas-bot/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultEscalateThreshold = -0.5
	escalationScore          = -0.8

	// sentiment runs before every query, so its LLM call gets one short attempt
	sentimentTimeout    = 10 * time.Second
	sentimentMaxRetries = 1
)

var escalationPhrases = []string{
	"speak to human", "talk to agent", "real person", "manager",
	"complaint", "terrible", "worst", "sue", "lawyer", "refund now",
}

var (
	positiveWords = []string{"thanks", "great", "awesome", "love", "perfect", "excellent", "happy", "satisfied"}
	negativeWords = []string{"bad", "terrible", "awful", "hate", "disappointed", "frustrated", "angry", "worst", "broken"}
)

// SentimentAnalyzer scores a message and decides whether it needs a human.
// Explicit escalation phrases win, then the LLM, then keyword scoring.
// It never fails: every LLM problem degrades to the keyword path.
type SentimentAnalyzer struct {
	llm               llm.Completer
	escalateThreshold float64
	logger            *zap.Logger
}

func NewSentimentAnalyzer(completer llm.Completer, escalateThreshold float64, logger *zap.Logger) *SentimentAnalyzer {
	if escalateThreshold == 0 {
		escalateThreshold = DefaultEscalateThreshold
	}
	return &SentimentAnalyzer{
		llm:               completer,
		escalateThreshold: escalateThreshold,
		logger:            logger,
	}
}

type llmSentiment struct {
	Score  *float64 `json:"score"`
	Label  string   `json:"label"`
	Reason string   `json:"reason"`
}

func (a *SentimentAnalyzer) Analyze(ctx context.Context, message string) models.SentimentResult {
	lower := strings.ToLower(message)

	for _, phrase := range escalationPhrases {
		if strings.Contains(lower, phrase) {
			return models.SentimentResult{
				Score:           escalationScore,
				Label:           models.SentimentNegative,
				NeedsEscalation: true,
				Reason:          "Explicit escalation request detected",
			}
		}
	}

	if a.llm != nil && a.llm.Available() {
		if result, ok := a.analyzeWithLLM(ctx, message); ok {
			return result
		}
	}

	return a.KeywordSentiment(message)
}

func (a *SentimentAnalyzer) analyzeWithLLM(ctx context.Context, message string) (models.SentimentResult, bool) {
	prompt := fmt.Sprintf(`Analyze the sentiment of this customer message. Return ONLY a JSON object with: score (-1 to 1), label (positive/neutral/negative), and reason (brief explanation).

Customer message: %q

JSON response:`, message)

	resp, err := a.llm.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}, llm.Options{
		MaxTokens:   150,
		Temperature: 0.3,
		Timeout:     sentimentTimeout,
		MaxRetries:  sentimentMaxRetries,
	})
	if err != nil {
		a.logger.Warn("Sentiment analysis via LLM failed", zap.Error(err))
		return models.SentimentResult{}, false
	}

	var parsed llmSentiment
	if err := llm.DecodeJSON(resp, &parsed); err != nil || parsed.Score == nil {
		a.logger.Warn("Failed to parse sentiment response",
			zap.Error(err),
			zap.String("response", resp))
		return models.SentimentResult{}, false
	}

	score := clamp(*parsed.Score)
	label := models.SentimentLabel(strings.ToLower(strings.TrimSpace(parsed.Label)))
	switch label {
	case models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative:
	default:
		label = labelFor(score)
	}

	return models.SentimentResult{
		Score:           score,
		Label:           label,
		NeedsEscalation: score < a.escalateThreshold,
		Reason:          parsed.Reason,
	}, true
}

// KeywordSentiment is the deterministic fallback scorer
func (a *SentimentAnalyzer) KeywordSentiment(message string) models.SentimentResult {
	lower := strings.ToLower(message)
	score := 0.0

	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			score += 0.2
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			score -= 0.3
		}
	}
	score = clamp(score)

	return models.SentimentResult{
		Score:           score,
		Label:           labelFor(score),
		NeedsEscalation: score < a.escalateThreshold,
		Reason:          "Keyword-based analysis",
	}
}

func labelFor(score float64) models.SentimentLabel {
	switch {
	case score > 0.1:
		return models.SentimentPositive
	case score < -0.1:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func clamp(score float64) float64 {
	return max(-1, min(1, score))
}
