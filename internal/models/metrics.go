package models

import "time"

type IntentShare struct {
	Intent     Intent  `json:"intent"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

type InsightType string

const (
	InsightWarning  InsightType = "warning"
	InsightPositive InsightType = "positive"
	InsightInfo     InsightType = "info"
)

type Insight struct {
	Type     InsightType  `json:"type"`
	Category string       `json:"category"`
	Message  string       `json:"message"`
	Value    float64      `json:"value,omitempty"`
	Queries  []QueryCount `json:"queries,omitempty"`
}

// DashboardMetrics is computed on demand from the analytics windows
type DashboardMetrics struct {
	TotalInteractions  int64          `json:"totalInteractions"`
	ContainmentRate    float64        `json:"containmentRate"`
	AverageSentiment   float64        `json:"averageSentiment"`
	IntentDistribution []IntentShare  `json:"intentDistribution"`
	AgentUsage         map[string]int `json:"agentUsage"`
	PopularQueries     []QueryCount   `json:"popularQueries"`
	Insights           []Insight      `json:"insights"`
	LastUpdated        time.Time      `json:"lastUpdated"`
}
