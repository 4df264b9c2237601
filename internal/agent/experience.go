package agent

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/xaenox/vikas-bot/internal/models"
)

const (
	highPriorityScore  = -0.7
	escalationHistory  = 5
	escalationResponse = "I understand you'd like to speak with a human agent. I've created a support ticket and our team will contact you shortly. In the meantime, is there anything else I can help clarify?"
)

// SentimentAnalyzer scores a message; see classifier.SentimentAnalyzer
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, message string) models.SentimentResult
}

type Greeting struct {
	Text        string
	Suggestions []string
}

// CustomerExperience owns sentiment, greetings and hand-off to human support
type CustomerExperience struct {
	sentiment SentimentAnalyzer
	newID     func() string
}

func NewCustomerExperience(sentiment SentimentAnalyzer) *CustomerExperience {
	return &CustomerExperience{
		sentiment: sentiment,
		newID: func() string {
			return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
		},
	}
}

func (a *CustomerExperience) AnalyzeSentiment(ctx context.Context, message string) models.SentimentResult {
	return a.sentiment.Analyze(ctx, message)
}

func (a *CustomerExperience) Greeting(userName string, returning bool) Greeting {
	var b strings.Builder
	b.WriteString("Hello")
	if userName != "" {
		b.WriteString(", " + userName)
	}
	if returning {
		b.WriteString("! Welcome back to VIKAS.")
	} else {
		b.WriteString("! Welcome to VIKAS.")
	}

	return Greeting{
		Text: b.String(),
		Suggestions: []string{
			"Browse our latest products",
			"Check your orders",
			"Get personalized recommendations",
		},
	}
}

// Escalate opens a support ticket carrying the user's last few messages
func (a *CustomerExperience) Escalate(qc models.QueryContext, sentiment models.SentimentResult) *models.Escalation {
	priority := models.PriorityNormal
	if sentiment.Score < highPriorityScore {
		priority = models.PriorityHigh
	}

	history := qc.History
	if len(history) > escalationHistory {
		history = history[len(history)-escalationHistory:]
	}
	last := make([]string, len(history))
	copy(last, history)

	return &models.Escalation{
		TicketID: "ESC-" + a.newID(),
		Message:  escalationResponse,
		Priority: priority,
		Context: models.EscalationContext{
			UserID:       qc.UserID,
			Sentiment:    &sentiment,
			LastMessages: last,
		},
	}
}

// Process escalates when needed and otherwise suggests a response tone
func (a *CustomerExperience) Process(ctx context.Context, query string, qc models.QueryContext) (*models.AgentResponse, error) {
	sentiment := a.AnalyzeSentiment(ctx, query)

	if sentiment.NeedsEscalation {
		esc := a.Escalate(qc, sentiment)
		return &models.AgentResponse{
			Success:    true,
			Response:   esc.Message,
			Sentiment:  &sentiment,
			Escalation: esc,
		}, nil
	}

	tone := "friendly"
	switch sentiment.Label {
	case models.SentimentNegative:
		tone = "empathetic"
	case models.SentimentPositive:
		tone = "enthusiastic"
	}
	return &models.AgentResponse{
		Success:   true,
		Response:  "How can I help you today?",
		Sentiment: &sentiment,
		Payload:   models.TonePayload{Tone: tone},
	}, nil
}
