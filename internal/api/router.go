package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xaenox/vikas-bot/internal/analytics"
	"github.com/xaenox/vikas-bot/internal/models"
	"go.uber.org/zap"
)

type Assistant interface {
	Process(ctx context.Context, query string, qc models.QueryContext) *models.AgentResponse
	Welcome(ctx context.Context, qc models.QueryContext) *models.AgentResponse
	Dashboard() models.DashboardMetrics
}

type Retrieval interface {
	CompareProducts(ctx context.Context, ids []string) (*models.AgentResponse, error)
	Recommendations(ctx context.Context, productID string) (*models.AgentResponse, error)
	AnswerProductQuestion(ctx context.Context, productID, question string) (*models.AgentResponse, error)
}

// Exporter serves the raw interaction log
type Exporter interface {
	Export(opts analytics.ExportOptions) []models.Interaction
	ExportSummary(opts analytics.ExportOptions) analytics.ExportSummary
}

type Handler struct {
	assistant Assistant
	retrieval Retrieval
	exporter  Exporter
	logger    *zap.Logger
}

func NewHandler(assistant Assistant, retrieval Retrieval, exporter Exporter, logger *zap.Logger) *Handler {
	return &Handler{assistant: assistant, retrieval: retrieval, exporter: exporter, logger: logger}
}

// NewRouter registers the chat API routes
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.loggingMiddleware)

	r.Get("/healthz", h.healthz)

	r.Route("/api/ai", func(r chi.Router) {
		r.Post("/query", h.query)
		r.Get("/welcome", h.welcome)
		r.Post("/compare", h.compare)
		r.Get("/recommendations/{productId}", h.recommendations)
		r.Post("/product/{productId}/ask", h.askProduct)
		r.Get("/analytics", h.analytics)
		r.Get("/analytics/export", h.export)
	})

	return r
}
