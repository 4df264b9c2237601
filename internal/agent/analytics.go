package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/xaenox/vikas-bot/internal/models"
)

// MetricsSource is the read side of the analytics store
type MetricsSource interface {
	DashboardMetrics() models.DashboardMetrics
	Insights() []models.Insight
	TotalInteractions() int64
	AverageSentiment() float64
}

// AnalyticsAgent answers admin questions about the assistant's own metrics.
// The orchestrator records the interaction; this agent does not log it again.
type AnalyticsAgent struct {
	metrics MetricsSource
}

func NewAnalyticsAgent(metrics MetricsSource) *AnalyticsAgent {
	return &AnalyticsAgent{metrics: metrics}
}

func (a *AnalyticsAgent) Process(ctx context.Context, query string, qc models.QueryContext) (*models.AgentResponse, error) {
	lower := strings.ToLower(query)

	switch {
	case containsAny(lower, "metrics", "dashboard", "stats"):
		m := a.metrics.DashboardMetrics()
		return &models.AgentResponse{
			Success: true,
			Response: fmt.Sprintf("Here are the current analytics: %d total interactions, %.1f%% containment rate.",
				m.TotalInteractions, m.ContainmentRate*100),
			Payload: models.MetricsPayload{Metrics: m},
		}, nil

	case containsAny(lower, "insight", "trend"):
		insights := a.metrics.Insights()
		text := "No significant insights at this time."
		if len(insights) > 0 {
			msgs := make([]string, len(insights))
			for i, in := range insights {
				msgs[i] = in.Message
			}
			text = "Key insights: " + strings.Join(msgs, " ")
		}
		return &models.AgentResponse{
			Success:  true,
			Response: text,
			Payload:  models.InsightsPayload{Insights: insights},
		}, nil
	}

	return &models.AgentResponse{
		Success:  true,
		Response: `Analytics are being collected. Ask about "metrics", "insights", or "trends" for more details.`,
		Payload: models.AnalyticsSummaryPayload{
			Interactions:     a.metrics.TotalInteractions(),
			AverageSentiment: a.metrics.AverageSentiment(),
		},
	}, nil
}
