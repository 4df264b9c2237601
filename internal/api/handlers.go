package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xaenox/vikas-bot/internal/analytics"
	"github.com/xaenox/vikas-bot/internal/models"
	"github.com/xaenox/vikas-bot/internal/storage"
	"go.uber.org/zap"
)

type queryRequest struct {
	Query      string   `json:"query"`
	UserID     string   `json:"userId"`
	UserName   string   `json:"userName"`
	SessionID  string   `json:"sessionId"`
	ProductID  string   `json:"productId"`
	ProductIDs []string `json:"productIds"`
	History    []string `json:"history"`
}

type compareRequest struct {
	ProductIDs []string `json:"productIds"`
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]string{"status": "ok"})
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	qc := models.QueryContext{
		UserID:     req.UserID,
		UserName:   req.UserName,
		SessionID:  req.SessionID,
		ProductID:  req.ProductID,
		ProductIDs: req.ProductIDs,
		History:    req.History,
	}
	writeSuccess(w, h.assistant.Process(r.Context(), req.Query, qc))
}

func (h *Handler) welcome(w http.ResponseWriter, r *http.Request) {
	qc := models.QueryContext{
		UserID:   r.URL.Query().Get("userId"),
		UserName: r.URL.Query().Get("userName"),
	}
	writeSuccess(w, h.assistant.Welcome(r.Context(), qc))
}

func (h *Handler) compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.ProductIDs) < 2 {
		writeError(w, http.StatusBadRequest, "at least 2 product ids are required")
		return
	}

	resp, err := h.retrieval.CompareProducts(r.Context(), req.ProductIDs)
	h.respond(w, r, resp, err)
}

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	resp, err := h.retrieval.Recommendations(r.Context(), chi.URLParam(r, "productId"))
	h.respond(w, r, resp, err)
}

func (h *Handler) askProduct(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	resp, err := h.retrieval.AnswerProductQuestion(r.Context(), chi.URLParam(r, "productId"), req.Question)
	h.respond(w, r, resp, err)
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, h.assistant.Dashboard())
}

// export returns the interaction log, or only its summary with format=summary
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	opts, err := exportOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.URL.Query().Get("format") == "summary" {
		writeSuccess(w, h.exporter.ExportSummary(opts))
		return
	}
	writeSuccess(w, h.exporter.Export(opts))
}

func exportOptions(r *http.Request) (analytics.ExportOptions, error) {
	var opts analytics.ExportOptions
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{
		{"start", &opts.Start},
		{"end", &opts.End},
	} {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return opts, errors.New(p.name + " must be an RFC3339 timestamp")
		}
		*p.dst = t
	}
	return opts, nil
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, resp *models.AgentResponse, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case err != nil:
		h.logger.Error("Request failed",
			zap.Error(err),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path))
		writeError(w, http.StatusInternalServerError, "Sorry, something went wrong. Please try again.")
	default:
		writeSuccess(w, resp)
	}
}
