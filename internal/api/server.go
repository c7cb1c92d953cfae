// Package api exposes the document lifecycle and the query engine over
// HTTP. The handlers translate classified lifecycle errors into status
// codes and human-readable messages; all state lives in the injected
// manager and engine, never in package globals.
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GonzoDMX/docquery/internal/history"
	"github.com/GonzoDMX/docquery/internal/lifecycle"
	"github.com/GonzoDMX/docquery/internal/query"
)

// Handlers carries the wired dependencies for every route.
type Handlers struct {
	mgr    *lifecycle.Manager
	engine *query.Engine
	logger *zap.Logger

	histMu   sync.Mutex
	hist     *history.Log
	histPath string

	startedAt    time.Time
	version      string
	indexBackend string
}

// NewHandlers wires the HTTP surface.
func NewHandlers(mgr *lifecycle.Manager, engine *query.Engine, hist *history.Log, histPath string, logger *zap.Logger, version, indexBackend string) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		mgr:          mgr,
		engine:       engine,
		hist:         hist,
		histPath:     histPath,
		logger:       logger,
		startedAt:    time.Now(),
		version:      version,
		indexBackend: indexBackend,
	}
}

// Router builds the route table.
func (h *Handlers) Router() *http.ServeMux {
	mux := http.NewServeMux()

	// --- General ---
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /api/v1/system/status", h.HandleStatus)

	// --- Documents ---
	mux.HandleFunc("POST /api/v1/docs/add", h.HandleDocAdd)
	mux.HandleFunc("POST /api/v1/docs/batch", h.HandleDocBatch)
	mux.HandleFunc("GET /api/v1/docs", h.HandleDocList)
	mux.HandleFunc("DELETE /api/v1/docs/{filename}", h.HandleDocRemove)
	mux.HandleFunc("DELETE /api/v1/docs", h.HandleRemoveAll)

	// --- Query ---
	mux.HandleFunc("POST /api/v1/query", h.HandleQuery)
	mux.HandleFunc("GET /api/v1/history", h.HandleHistory)

	return mux
}

// Middleware wraps the router with request IDs, logging and CORS.
func (h *Handlers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		// CORS (the UI layer runs on a different origin)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)

		h.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
