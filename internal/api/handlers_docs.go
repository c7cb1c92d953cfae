package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/GonzoDMX/docquery/internal/ingest"
	"github.com/GonzoDMX/docquery/internal/lifecycle"
	"github.com/GonzoDMX/docquery/internal/pipeline"
)

// ==========================================
// DOCUMENT OPERATIONS
// ==========================================

// readUpload pulls the raw bytes of one multipart file and checks it
// against the upload gate (extension allow-list + content sniffing).
func readUpload(fh *multipart.FileHeader) ([]byte, bool, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, pipeline.MaxFileSize+1))
	if err != nil {
		return nil, false, err
	}

	header := data
	if len(header) > 512 {
		header = header[:512]
	}
	return data, ingest.IsSupported(fh.Filename, header), nil
}

// HandleDocAdd - POST /api/v1/docs/add
// Synchronous: Uploads -> Dedup -> Extracts -> Indexes -> Returns Result.
func (h *Handlers) HandleDocAdd(w http.ResponseWriter, r *http.Request) {
	// Max 64MB per request
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		errorResponse(w, http.StatusBadRequest, "File too large or invalid")
		return
	}

	_, header, err := r.FormFile("file")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Missing 'file' field")
		return
	}

	data, supported, err := readUpload(header)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}
	if !supported {
		errorResponse(w, http.StatusUnsupportedMediaType, "Unsupported file type: "+header.Filename)
		return
	}

	if err := h.mgr.Insert(r.Context(), header.Filename, data); err != nil {
		lifecycleError(w, err)
		return
	}

	rec, _ := h.mgr.Documents()[header.Filename]
	jsonResponse(w, http.StatusCreated, StandardResponse{
		Success: true,
		Data: DocResponse{
			Name:      header.Filename,
			Type:      string(rec.Type),
			Size:      rec.SizeBytes,
			Hash:      rec.Hash,
			CreatedAt: rec.AddedAt.Format(time.RFC3339),
		},
	})
}

// HandleDocBatch - POST /api/v1/docs/batch
// Each file is accepted or rejected independently; one bad file never
// aborts the batch.
func (h *Handlers) HandleDocBatch(w http.ResponseWriter, r *http.Request) {
	// Max 100MB for batches
	if err := r.ParseMultipartForm(100 << 20); err != nil {
		errorResponse(w, http.StatusBadRequest, "Request too large")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		errorResponse(w, http.StatusBadRequest, "No files provided")
		return
	}

	batchID := uuid.NewString()
	outcomes := make([]FileOutcome, 0, len(files))
	var uploads []lifecycle.Upload

	for _, fh := range files {
		data, supported, err := readUpload(fh)
		if err != nil {
			outcomes = append(outcomes, FileOutcome{
				Filename: fh.Filename,
				Kind:     string(lifecycle.KindExtractionFailed),
				Reason:   "failed to read upload",
			})
			continue
		}
		if !supported {
			outcomes = append(outcomes, FileOutcome{
				Filename: fh.Filename,
				Kind:     string(lifecycle.KindUnsupportedType),
				Reason:   "unsupported file type",
			})
			continue
		}
		uploads = append(uploads, lifecycle.Upload{Filename: fh.Filename, Data: data})
	}

	for _, res := range h.mgr.InsertBatch(r.Context(), uploads) {
		out := FileOutcome{Filename: res.Filename, Accepted: res.Err == nil}
		if res.Err != nil {
			out.Kind = string(lifecycle.KindOf(res.Err))
			out.Reason = res.Err.Error()
		}
		outcomes = append(outcomes, out)
	}

	accepted := 0
	for _, o := range outcomes {
		if o.Accepted {
			accepted++
		}
	}

	jsonResponse(w, http.StatusOK, StandardResponse{
		Success: true,
		Data: BatchResponse{
			BatchID:  batchID,
			Accepted: accepted,
			Rejected: len(outcomes) - accepted,
			Files:    outcomes,
		},
	})
}

// HandleDocList - GET /api/v1/docs
func (h *Handlers) HandleDocList(w http.ResponseWriter, r *http.Request) {
	records := h.mgr.Documents()

	docs := make([]DocResponse, 0, len(records))
	for name, rec := range records {
		docs = append(docs, DocResponse{
			Name:      name,
			Type:      string(rec.Type),
			Size:      rec.SizeBytes,
			Hash:      rec.Hash,
			CreatedAt: rec.AddedAt.Format(time.RFC3339),
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })

	jsonResponse(w, http.StatusOK, StandardResponse{
		Success: true,
		Data:    DocListResponse{Docs: docs, Total: len(docs)},
	})
}

// HandleDocRemove - DELETE /api/v1/docs/{filename}
func (h *Handlers) HandleDocRemove(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if err := h.mgr.Remove(r.Context(), filename); err != nil {
		lifecycleError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, StandardResponse{
		Success: true,
		Data:    map[string]string{"removed": filename},
	})
}

// HandleRemoveAll - DELETE /api/v1/docs
func (h *Handlers) HandleRemoveAll(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.RemoveAll(r.Context()); err != nil {
		lifecycleError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, StandardResponse{
		Success: true,
		Message: "All documents removed",
	})
}
