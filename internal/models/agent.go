package models

import "time"

// Intent is the closed set of labels the classifier can produce
type Intent string

const (
	IntentSearch       Intent = "search"
	IntentRecommend    Intent = "recommend"
	IntentCompare      Intent = "compare"
	IntentProductInfo  Intent = "product_info"
	IntentAvailability Intent = "availability"
	IntentOrderStatus  Intent = "order_status"
	IntentReturns      Intent = "returns"
	IntentCheckout     Intent = "checkout"
	IntentARVR         Intent = "ar_vr"
	IntentGreeting     Intent = "greeting"
	IntentEscalation   Intent = "escalation"
	IntentAnalytics    Intent = "analytics"
	IntentGeneral      Intent = "general"
)

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// SentimentResult is produced once per query and never mutated
type SentimentResult struct {
	Score           float64        `json:"score"`
	Label           SentimentLabel `json:"label"`
	NeedsEscalation bool           `json:"needsEscalation"`
	Reason          string         `json:"reason"`
}

// QueryContext carries the optional caller context of a chat query
type QueryContext struct {
	UserID     string   `json:"userId,omitempty"`
	UserName   string   `json:"userName,omitempty"`
	ProductID  string   `json:"productId,omitempty"`
	ProductIDs []string `json:"productIds,omitempty"`
	SessionID  string   `json:"sessionId,omitempty"`
	// History holds the most recent user messages, oldest first
	History []string `json:"history,omitempty"`
}

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Escalation is a hand-off ticket to human support
type Escalation struct {
	TicketID string            `json:"ticketId"`
	Message  string            `json:"message"`
	Priority Priority          `json:"priority"`
	Context  EscalationContext `json:"context"`
}

type EscalationContext struct {
	UserID       string           `json:"userId,omitempty"`
	Sentiment    *SentimentResult `json:"sentiment,omitempty"`
	LastMessages []string         `json:"lastMessages"`
}

// Interaction is one analytics record; every processed query yields exactly one
type Interaction struct {
	ID             string           `json:"id"`
	Timestamp      time.Time        `json:"timestamp"`
	UserID         string           `json:"userId"`
	Query          string           `json:"query"`
	Intent         Intent           `json:"intent"`
	AgentUsed      string           `json:"agentUsed"`
	ResponseTimeMs int64            `json:"responseTimeMs"`
	Sentiment      *SentimentResult `json:"sentiment,omitempty"`
	Success        bool             `json:"success"`
	ProductCount   int              `json:"productCount"`
	SessionID      string           `json:"sessionId,omitempty"`
}
