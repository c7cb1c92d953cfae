package api

import (
	"encoding/json"
	"net/http"

	"github.com/GonzoDMX/docquery/internal/lifecycle"
)

// jsonResponse sends a standard JSON response
func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorResponse sends a standard Error response
func errorResponse(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, StandardResponse{
		Success: false,
		Error:   msg,
	})
}

// statusForKind maps the lifecycle error taxonomy onto HTTP codes. The
// core only classifies; presentation decisions live here.
func statusForKind(kind lifecycle.Kind) int {
	switch kind {
	case lifecycle.KindDuplicateContent:
		return http.StatusConflict
	case lifecycle.KindUnsupportedType:
		return http.StatusUnsupportedMediaType
	case lifecycle.KindExtractionFailed:
		return http.StatusUnprocessableEntity
	case lifecycle.KindNotFound:
		return http.StatusNotFound
	case lifecycle.KindStorageCorrupt, lifecycle.KindPersistFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// lifecycleError writes a classified lifecycle failure.
func lifecycleError(w http.ResponseWriter, err error) {
	kind := lifecycle.KindOf(err)
	if kind == "" {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, statusForKind(kind), StandardResponse{
		Success: false,
		Error:   err.Error(),
		Meta:    map[string]string{"kind": string(kind)},
	})
}
