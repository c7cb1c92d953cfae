package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/GonzoDMX/docquery/internal/history"
	"github.com/GonzoDMX/docquery/internal/query"
)

// ==========================================
// QUERY OPERATIONS
// ==========================================

// HandleQuery - POST /api/v1/query
func (h *Handlers) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Question == "" {
		errorResponse(w, http.StatusBadRequest, "Missing 'question' field")
		return
	}

	answer, err := h.engine.Ask(r.Context(), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, query.ErrNoDocuments):
			errorResponse(w, http.StatusPreconditionFailed, "No documents indexed yet. Upload documents before asking questions.")
		case errors.Is(err, query.ErrRetryable):
			errorResponse(w, http.StatusGatewayTimeout, err.Error())
		default:
			errorResponse(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.appendHistory(req.Question, answer.Text)

	jsonResponse(w, http.StatusOK, StandardResponse{
		Success: true,
		Data:    QueryResponse{Answer: answer.Text, Sources: answer.Sources},
	})
}

// appendHistory records the exchange. History is best-effort: a failed
// save is logged but never fails the query that produced the answer.
func (h *Handlers) appendHistory(question, answer string) {
	h.histMu.Lock()
	defer h.histMu.Unlock()

	h.hist.Append(history.Entry{
		Question:  question,
		Response:  answer,
		Timestamp: time.Now().UTC(),
	})
	if err := h.hist.Save(h.histPath); err != nil {
		h.logger.Warn("failed to save query history", zap.Error(err))
	}
}

// HandleHistory - GET /api/v1/history
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	h.histMu.Lock()
	entries := h.hist.Entries()
	h.histMu.Unlock()

	out := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntry{
			Question:  e.Question,
			Response:  e.Response,
			Timestamp: e.Timestamp.Format(time.RFC3339),
		}
	}

	jsonResponse(w, http.StatusOK, StandardResponse{
		Success: true,
		Data:    HistoryResponse{Entries: out, Total: len(out)},
	})
}
