package api

import (
	"net/http"
	"time"
)

// ==========================================
// SERVICE OPERATIONS
// ==========================================

// HandleHealth - GET /health
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HandleStatus - GET /api/v1/system/status
// Reports corpus stats and runs the registry/index correspondence check.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	detail := ""
	if err := h.mgr.CheckCorrespondence(r.Context()); err != nil {
		status = "degraded"
		detail = err.Error()
	}

	jsonResponse(w, http.StatusOK, StandardResponse{
		Success: true,
		Data: StatusResponse{
			Status:         status,
			Uptime:         time.Since(h.startedAt).Round(time.Second).String(),
			Version:        h.version,
			DocumentCount:  h.mgr.Count(),
			TotalSizeBytes: h.mgr.TotalSize(),
			IndexBackend:   h.indexBackend,
			Detail:         detail,
		},
	})
}
