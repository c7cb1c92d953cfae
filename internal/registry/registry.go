// Package registry maintains the durable mapping from filename to
// document metadata. The registry is the authoritative record of what
// has been uploaded; the vector index must always mirror it.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/GonzoDMX/docquery/internal/storage"
)

// ContentType is the declared kind of an uploaded document.
type ContentType string

const (
	TypePlainText ContentType = "text"
	TypePDF       ContentType = "pdf"
)

// Record holds the metadata of one indexed document. The JSON field
// names are the on-disk format and must stay backward-readable; unknown
// extra fields are tolerated on read.
type Record struct {
	Type      ContentType `json:"type"`
	SizeBytes int64       `json:"size"`
	AddedAt   time.Time   `json:"date_added"`
	Hash      string      `json:"hash"`
}

// Registry maps filename to Record. It is a plain value owned by the
// lifecycle manager; every mutation must be followed by Save before the
// operation is reported as successful.
type Registry struct {
	docs map[string]Record
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{docs: make(map[string]Record)}
}

// Load reads the registry file at path. A missing file yields an empty
// registry. Malformed content is logged and degrades to an empty
// registry rather than failing startup (tolerant-read policy): the
// index stays queryable even if the metadata file was damaged.
func Load(path string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("registry unreadable, starting empty",
				zap.String("path", path),
				zap.Error(err),
			)
		}
		return New()
	}

	var docs map[string]Record
	if err := json.Unmarshal(data, &docs); err != nil {
		logger.Warn("registry malformed, starting empty",
			zap.String("path", path),
			zap.Error(err),
		)
		return New()
	}
	if docs == nil {
		docs = make(map[string]Record)
	}
	return &Registry{docs: docs}
}

// Save writes the registry to path atomically (temp file + rename), so
// a crash mid-write leaves either the old or the new content.
func (r *Registry) Save(path string) error {
	data, err := json.MarshalIndent(r.docs, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := storage.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}

// Put stores or replaces the record for filename.
func (r *Registry) Put(filename string, rec Record) {
	r.docs[filename] = rec
}

// Remove deletes the record for filename. Returns false if absent.
func (r *Registry) Remove(filename string) bool {
	if _, ok := r.docs[filename]; !ok {
		return false
	}
	delete(r.docs, filename)
	return true
}

// Clear drops every record.
func (r *Registry) Clear() {
	r.docs = make(map[string]Record)
}

// Get returns the record for filename.
func (r *Registry) Get(filename string) (Record, bool) {
	rec, ok := r.docs[filename]
	return rec, ok
}

// Len returns the number of registered documents.
func (r *Registry) Len() int {
	return len(r.docs)
}

// FindByHash returns the filename of the first record whose content hash
// equals hash. Linear scan: fine for the target scale of tens to
// hundreds of documents.
func (r *Registry) FindByHash(hash string) (string, bool) {
	for name, rec := range r.docs {
		if rec.Hash == hash {
			return name, true
		}
	}
	return "", false
}

// Filenames returns the registered filenames in sorted order.
func (r *Registry) Filenames() []string {
	names := make([]string, 0, len(r.docs))
	for name := range r.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Records returns a copy of the full mapping.
func (r *Registry) Records() map[string]Record {
	out := make(map[string]Record, len(r.docs))
	for name, rec := range r.docs {
		out[name] = rec
	}
	return out
}

// TotalSize returns the sum of all registered document sizes in bytes.
func (r *Registry) TotalSize() int64 {
	var total int64
	for _, rec := range r.docs {
		total += rec.SizeBytes
	}
	return total
}
