// Package orchestrator routes chat queries to the specialized agents.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xaenox/vikas-bot/internal/agent"
	"github.com/xaenox/vikas-bot/internal/models"
	"go.uber.org/zap"
)

const (
	compareGuidance = "Please select 2 or more products to compare. You can add products to compare from the product pages."
	failureResponse = "I encountered an error. Please try again or browse our products directly."
	welcomeSuffix   = " I'm VIKAS AI, your personal shopping assistant. Ask me about products, check store availability, track orders, or get personalized recommendations!"
)

var welcomeSuggestions = []string{
	"Find tshirts available at Mumbai store",
	"Show me trending products",
	"Track my order",
	"Recommend something for me",
}

type IntentClassifier interface {
	Classify(query string) models.Intent
}

// Experience is the customer experience agent: sentiment, greetings and
// escalation
type Experience interface {
	agent.Handler
	AnalyzeSentiment(ctx context.Context, message string) models.SentimentResult
	Escalate(qc models.QueryContext, sentiment models.SentimentResult) *models.Escalation
	Greeting(userName string, returning bool) agent.Greeting
}

type Retrieval interface {
	Query(ctx context.Context, query string) (*models.AgentResponse, error)
	CompareProducts(ctx context.Context, ids []string) (*models.AgentResponse, error)
}

// Recorder receives one interaction per processed query
type Recorder interface {
	LogInteraction(interaction models.Interaction) string
}

type MetricsSource interface {
	DashboardMetrics() models.DashboardMetrics
}

type Deps struct {
	Classifier      IntentClassifier
	Experience      Experience
	Retrieval       Retrieval
	Inventory       agent.Handler
	Personalization agent.Handler
	Fulfillment     agent.Handler
	Immersive       agent.Handler
	Analytics       agent.Handler
	Recorder        Recorder
	Metrics         MetricsSource
}

type route struct {
	agent   string
	handler agent.Handler
}

type Orchestrator struct {
	deps   Deps
	routes map[models.Intent]route
	logger *zap.Logger
}

func New(deps Deps, logger *zap.Logger) *Orchestrator {
	o := &Orchestrator{deps: deps, logger: logger}
	o.routes = map[models.Intent]route{
		models.IntentSearch:       {agent.NameProductInventory, deps.Inventory},
		models.IntentAvailability: {agent.NameProductInventory, deps.Inventory},
		models.IntentProductInfo:  {agent.NameProductInventory, deps.Inventory},
		models.IntentRecommend:    {agent.NamePersonalization, deps.Personalization},
		models.IntentOrderStatus:  {agent.NameOrderFulfillment, deps.Fulfillment},
		models.IntentReturns:      {agent.NameOrderFulfillment, deps.Fulfillment},
		models.IntentCheckout:     {agent.NameOrderFulfillment, deps.Fulfillment},
		models.IntentARVR:         {agent.NameImmersive, deps.Immersive},
		models.IntentAnalytics:    {agent.NameAnalytics, deps.Analytics},
		// No classifier rule yields ESCALATION; escalation is decided by
		// sentiment before classification. Kept so the table covers every
		// routed intent.
		models.IntentEscalation: {agent.NameCustomerExperience, deps.Experience},
	}
	return o
}

// Process runs one query through sentiment, classification and dispatch. It
// never fails: errors and panics become a generic unsuccessful response, and
// every call records exactly one interaction.
func (o *Orchestrator) Process(ctx context.Context, query string, qc models.QueryContext) (resp *models.AgentResponse) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Recovered from panic while processing query",
				zap.Any("panic", r),
				zap.String("user_id", qc.UserID))
			resp = o.failure(query, qc, start)
		}
	}()

	out, err := o.process(ctx, query, qc, start)
	if err != nil {
		o.logger.Error("Failed to process query",
			zap.Error(err),
			zap.String("user_id", qc.UserID))
		return o.failure(query, qc, start)
	}
	return out
}

func (o *Orchestrator) process(ctx context.Context, query string, qc models.QueryContext, start time.Time) (*models.AgentResponse, error) {
	sentiment := o.deps.Experience.AnalyzeSentiment(ctx, query)

	if sentiment.NeedsEscalation {
		esc := o.deps.Experience.Escalate(qc, sentiment)
		o.logger.Info("Escalating conversation",
			zap.String("ticket_id", esc.TicketID),
			zap.String("priority", string(esc.Priority)),
			zap.Float64("sentiment", sentiment.Score))

		o.record(interaction(query, qc, models.IntentEscalation, agent.NameCustomerExperience, &sentiment, start, true, 0))
		return &models.AgentResponse{
			Success:    true,
			Response:   esc.Message,
			AgentUsed:  agent.NameCustomerExperience,
			Intent:     models.IntentEscalation,
			Sentiment:  &sentiment,
			Escalation: esc,
		}, nil
	}

	intent := o.deps.Classifier.Classify(query)
	name, resp, err := o.dispatch(ctx, intent, query, qc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%s: %w", name, errNoResponse)
	}

	o.record(interaction(query, qc, intent, name, &sentiment, start, resp.Success, len(resp.Products)))

	resp.Intent = intent
	resp.Sentiment = &sentiment
	resp.AgentUsed = name
	return resp, nil
}

var errNoResponse = errors.New("handler returned no response")

func (o *Orchestrator) dispatch(ctx context.Context, intent models.Intent, query string, qc models.QueryContext) (string, *models.AgentResponse, error) {
	switch intent {
	case models.IntentGreeting:
		g := o.deps.Experience.Greeting(qc.UserName, qc.UserID != "")
		return agent.NameCustomerExperience, &models.AgentResponse{
			Success:     true,
			Response:    g.Text + " How can I help you today?",
			Suggestions: g.Suggestions,
		}, nil

	case models.IntentCompare:
		if len(qc.ProductIDs) < 2 {
			return agent.NameProductInventory, &models.AgentResponse{Success: true, Response: compareGuidance}, nil
		}
		resp, err := o.deps.Retrieval.CompareProducts(ctx, qc.ProductIDs)
		return agent.NameProductInventory, resp, err
	}

	if r, ok := o.routes[intent]; ok && r.handler != nil {
		resp, err := r.handler.Process(ctx, query, qc)
		return r.agent, resp, err
	}

	resp, err := o.deps.Retrieval.Query(ctx, query)
	return agent.NameRAG, resp, err
}

func (o *Orchestrator) failure(query string, qc models.QueryContext, start time.Time) *models.AgentResponse {
	o.record(interaction(query, qc, models.IntentGeneral, agent.NameError, nil, start, false, 0))
	return &models.AgentResponse{
		Success:   false,
		Response:  failureResponse,
		AgentUsed: agent.NameError,
		Intent:    models.IntentGeneral,
	}
}

// record hands the interaction to the recorder; a failing recorder is logged
// and otherwise ignored
func (o *Orchestrator) record(in models.Interaction) {
	if o.deps.Recorder == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Warn("Failed to record interaction",
				zap.Any("panic", r),
				zap.String("intent", string(in.Intent)))
		}
	}()
	o.deps.Recorder.LogInteraction(in)
}

func interaction(query string, qc models.QueryContext, intent models.Intent, agentUsed string,
	sentiment *models.SentimentResult, start time.Time, success bool, productCount int) models.Interaction {
	return models.Interaction{
		UserID:         qc.UserID,
		SessionID:      qc.SessionID,
		Query:          query,
		Intent:         intent,
		AgentUsed:      agentUsed,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		Sentiment:      sentiment,
		Success:        success,
		ProductCount:   productCount,
	}
}

// Welcome greets a user opening the chat
func (o *Orchestrator) Welcome(ctx context.Context, qc models.QueryContext) *models.AgentResponse {
	g := o.deps.Experience.Greeting(qc.UserName, qc.UserID != "")
	suggestions := make([]string, len(welcomeSuggestions))
	copy(suggestions, welcomeSuggestions)

	return &models.AgentResponse{
		Success:     true,
		Response:    g.Text + welcomeSuffix,
		AgentUsed:   agent.NameOrchestrator,
		Intent:      models.IntentGreeting,
		Suggestions: suggestions,
	}
}

func (o *Orchestrator) Dashboard() models.DashboardMetrics {
	return o.deps.Metrics.DashboardMetrics()
}
