package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/vikas-bot/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultInteractionCapacity = 10000
	DefaultSentimentCapacity   = 1000
	DefaultQueryCapacity       = 1000
	DefaultContainmentTarget   = 0.85

	containmentWindow  = 100
	distributionWindow = 500
	dashboardTopK      = 5
	insightTopK        = 3
)

type Config struct {
	InteractionCapacity int
	SentimentCapacity   int
	QueryCapacity       int
	ContainmentTarget   float64
}

// Sink receives every logged interaction, e.g. to stream it to Kafka
type Sink interface {
	Publish(ctx context.Context, interaction models.Interaction) error
}

type sentimentPoint struct {
	score     float64
	timestamp time.Time
}

type queryPoint struct {
	query     string
	intent    models.Intent
	timestamp time.Time
}

// Store is the bounded in-memory interaction log. Reads are O(window), never
// O(history).
type Store struct {
	mu           sync.Mutex
	interactions *Ring[models.Interaction]
	sentiments   *Ring[sentimentPoint]
	queries      *Ring[queryPoint]
	total        int64

	containmentTarget float64
	sink              Sink
	logger            *zap.Logger
	now               func() time.Time
}

type Option func(*Store)

func WithSink(sink Sink) Option {
	return func(s *Store) { s.sink = sink }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(cfg Config, logger *zap.Logger, opts ...Option) *Store {
	if cfg.InteractionCapacity <= 0 {
		cfg.InteractionCapacity = DefaultInteractionCapacity
	}
	if cfg.SentimentCapacity <= 0 {
		cfg.SentimentCapacity = DefaultSentimentCapacity
	}
	if cfg.QueryCapacity <= 0 {
		cfg.QueryCapacity = DefaultQueryCapacity
	}
	if cfg.ContainmentTarget <= 0 {
		cfg.ContainmentTarget = DefaultContainmentTarget
	}

	s := &Store{
		interactions:      NewRing[models.Interaction](cfg.InteractionCapacity),
		sentiments:        NewRing[sentimentPoint](cfg.SentimentCapacity),
		queries:           NewRing[queryPoint](cfg.QueryCapacity),
		containmentTarget: cfg.ContainmentTarget,
		logger:            logger,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LogInteraction appends the record and returns its id. Missing id, timestamp
// and user are filled in.
func (s *Store) LogInteraction(in models.Interaction) string {
	if in.ID == "" {
		in.ID = "INT-" + uuid.NewString()
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = s.now()
	}
	if in.UserID == "" {
		in.UserID = "anonymous"
	}
	in = detach(in)

	s.mu.Lock()
	s.interactions.Append(in)
	s.total++
	if in.Sentiment != nil {
		s.sentiments.Append(sentimentPoint{score: in.Sentiment.Score, timestamp: in.Timestamp})
	}
	if in.Query != "" {
		s.queries.Append(queryPoint{query: in.Query, intent: in.Intent, timestamp: in.Timestamp})
	}
	s.mu.Unlock()

	if s.sink != nil {
		if err := s.sink.Publish(context.Background(), detach(in)); err != nil {
			s.logger.Warn("Failed to publish interaction",
				zap.Error(err),
				zap.String("interaction_id", in.ID))
		}
	}

	return in.ID
}

// Len returns the number of interactions currently held
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interactions.Len()
}

// Recent returns up to n of the newest interactions, oldest first
func (s *Store) Recent(n int) []models.Interaction {
	s.mu.Lock()
	recent := s.interactions.Recent(n)
	s.mu.Unlock()
	return detachAll(recent)
}

func (s *Store) TotalInteractions() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// ContainmentRate is the share of the last 100 interactions resolved without
// escalation
func (s *Store) ContainmentRate() float64 {
	return containmentRate(s.Recent(containmentWindow))
}

func containmentRate(recent []models.Interaction) float64 {
	if len(recent) == 0 {
		return 1.0
	}
	escalated := 0
	for _, in := range recent {
		if in.Intent == models.IntentEscalation {
			escalated++
		}
	}
	return 1 - float64(escalated)/float64(len(recent))
}

func (s *Store) AverageSentiment() float64 {
	s.mu.Lock()
	points := s.sentiments.Snapshot()
	s.mu.Unlock()

	if len(points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range points {
		sum += p.score
	}
	return sum / float64(len(points))
}

// PopularQueries counts case-folded, trimmed queries and returns the top k
func (s *Store) PopularQueries(k int) []models.QueryCount {
	s.mu.Lock()
	points := s.queries.Snapshot()
	s.mu.Unlock()

	counts := make(map[string]int)
	for _, p := range points {
		q := strings.ToLower(strings.TrimSpace(p.query))
		if q == "" {
			continue
		}
		counts[q]++
	}

	out := make([]models.QueryCount, 0, len(counts))
	for q, c := range counts {
		out = append(out, models.QueryCount{Query: q, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Query < out[j].Query
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

func (s *Store) IntentDistribution() []models.IntentShare {
	return intentDistribution(s.Recent(distributionWindow))
}

func intentDistribution(recent []models.Interaction) []models.IntentShare {
	counts := make(map[models.Intent]int)
	total := 0
	for _, in := range recent {
		if in.Intent == "" {
			continue
		}
		counts[in.Intent]++
		total++
	}

	out := make([]models.IntentShare, 0, len(counts))
	for intent, c := range counts {
		share := models.IntentShare{Intent: intent, Count: c}
		if total > 0 {
			share.Percentage = roundTo(float64(c)/float64(total)*100, 1)
		}
		out = append(out, share)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Intent < out[j].Intent
	})
	return out
}

func (s *Store) AgentUsage() map[string]int {
	return agentUsage(s.Recent(distributionWindow))
}

func agentUsage(recent []models.Interaction) map[string]int {
	out := make(map[string]int)
	for _, in := range recent {
		if in.AgentUsed != "" {
			out[in.AgentUsed]++
		}
	}
	return out
}

func (s *Store) Insights() []models.Insight {
	var insights []models.Insight

	avg := s.AverageSentiment()
	switch {
	case avg < -0.2:
		insights = append(insights, models.Insight{
			Type:     models.InsightWarning,
			Category: "sentiment",
			Message:  "Customer sentiment is trending negative. Consider reviewing recent interactions.",
			Value:    roundTo(avg, 2),
		})
	case avg > 0.3:
		insights = append(insights, models.Insight{
			Type:     models.InsightPositive,
			Category: "sentiment",
			Message:  "Customer sentiment is positive! Keep up the good work.",
			Value:    roundTo(avg, 2),
		})
	}

	if containment := s.ContainmentRate(); containment < s.containmentTarget {
		insights = append(insights, models.Insight{
			Type:     models.InsightWarning,
			Category: "containment",
			Message: fmt.Sprintf("Containment rate (%.1f%%) is below target (%.0f%%).",
				containment*100, s.containmentTarget*100),
			Value: containment,
		})
	}

	if popular := s.PopularQueries(insightTopK); len(popular) > 0 {
		names := make([]string, len(popular))
		for i, q := range popular {
			names[i] = q.Query
		}
		insights = append(insights, models.Insight{
			Type:     models.InsightInfo,
			Category: "trending",
			Message:  "Top searches: " + strings.Join(names, ", "),
			Queries:  popular,
		})
	}

	return insights
}

// DashboardMetrics is computed on every call; nothing is cached
func (s *Store) DashboardMetrics() models.DashboardMetrics {
	return models.DashboardMetrics{
		TotalInteractions:  s.TotalInteractions(),
		ContainmentRate:    s.ContainmentRate(),
		AverageSentiment:   s.AverageSentiment(),
		IntentDistribution: s.IntentDistribution(),
		AgentUsage:         s.AgentUsage(),
		PopularQueries:     s.PopularQueries(dashboardTopK),
		Insights:           s.Insights(),
		LastUpdated:        s.now(),
	}
}

type ExportOptions struct {
	Start time.Time
	End   time.Time
}

type ExportSummary struct {
	Total   int                     `json:"total"`
	Start   *time.Time              `json:"start,omitempty"`
	End     *time.Time              `json:"end,omitempty"`
	Metrics models.DashboardMetrics `json:"metrics"`
}

// Export returns the held interactions inside the optional time range
func (s *Store) Export(opts ExportOptions) []models.Interaction {
	s.mu.Lock()
	all := detachAll(s.interactions.Snapshot())
	s.mu.Unlock()

	out := all[:0]
	for _, in := range all {
		if !opts.Start.IsZero() && in.Timestamp.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && in.Timestamp.After(opts.End) {
			continue
		}
		out = append(out, in)
	}
	return out
}

func (s *Store) ExportSummary(opts ExportOptions) ExportSummary {
	data := s.Export(opts)
	summary := ExportSummary{
		Total:   len(data),
		Metrics: s.DashboardMetrics(),
	}
	if len(data) > 0 {
		first, last := data[0].Timestamp, data[len(data)-1].Timestamp
		summary.Start, summary.End = &first, &last
	}
	return summary
}

// detach gives the interaction its own copy of the sentiment so stored
// records never share memory with callers
func detach(in models.Interaction) models.Interaction {
	if in.Sentiment != nil {
		sentiment := *in.Sentiment
		in.Sentiment = &sentiment
	}
	return in
}

func detachAll(ins []models.Interaction) []models.Interaction {
	for i := range ins {
		ins[i] = detach(ins[i])
	}
	return ins
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
