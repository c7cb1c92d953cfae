package api

// ==========================================
// 1. STANDARD ENVELOPE
// ==========================================

// StandardResponse wraps all API responses to ensure consistency.
// Clients check "success" first. If false, display "error".
type StandardResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ==========================================
// 2. SERVICE
// ==========================================

type StatusResponse struct {
	Status         string `json:"status"` // "healthy", "degraded"
	Uptime         string `json:"uptime"`
	Version        string `json:"version"`
	DocumentCount  int    `json:"document_count"`
	TotalSizeBytes int64  `json:"total_size_bytes"`
	IndexBackend   string `json:"index_backend"`
	Detail         string `json:"detail,omitempty"`
}

// ==========================================
// 3. DOCUMENT OPERATIONS
// ==========================================

// NOTE: add and batch requests arrive as multipart/form-data, so there
// is no JSON struct for the input, only for the response.

// DocResponse summarizes one registered document.
type DocResponse struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Size      int64  `json:"size_bytes"`
	Hash      string `json:"hash"`
	CreatedAt string `json:"created_at"` // ISO8601
}

type DocListResponse struct {
	Docs  []DocResponse `json:"docs"`
	Total int           `json:"total"`
}

// FileOutcome reports the per-file result of a batch upload.
type FileOutcome struct {
	Filename string `json:"filename"`
	Accepted bool   `json:"accepted"`
	Kind     string `json:"kind,omitempty"` // error classification when rejected
	Reason   string `json:"reason,omitempty"`
}

// BatchResponse is returned after a batch POST completes.
type BatchResponse struct {
	BatchID  string        `json:"batch_id"`
	Accepted int           `json:"accepted"`
	Rejected int           `json:"rejected"`
	Files    []FileOutcome `json:"files"`
}

// ==========================================
// 4. QUERY OPERATIONS
// ==========================================

type QueryRequest struct {
	Question string `json:"question"`
}

type QueryResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

type HistoryEntry struct {
	Question  string `json:"question"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
	Total   int            `json:"total"`
}
