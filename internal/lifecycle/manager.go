// Package lifecycle orchestrates insert, remove and rebuild operations
// across the document registry and the vector index. It is the only
// writer of either store and guarantees the two never diverge in their
// persisted form: for every registry entry there is indexed content
// tagged with that filename, and every tag has a registry entry.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GonzoDMX/docquery/internal/fingerprint"
	"github.com/GonzoDMX/docquery/internal/index"
	"github.com/GonzoDMX/docquery/internal/ingest"
	"github.com/GonzoDMX/docquery/internal/pipeline"
	"github.com/GonzoDMX/docquery/internal/registry"
)

// Extractor turns raw upload bytes into plain text.
type Extractor func(data []byte, filename string) (string, error)

// Upload is one file of a batch request.
type Upload struct {
	Filename string
	Data     []byte
}

// FileResult reports the outcome for one file of a batch.
type FileResult struct {
	Filename string
	Err      error // nil on success, classified *Error otherwise
}

// Manager holds the registry and index handles explicitly; there is no
// process-wide session state. One Manager per registry/index pair.
type Manager struct {
	mu sync.Mutex

	reg     *registry.Registry
	regPath string
	idx     index.Store
	extract Extractor
	logger  *zap.Logger

	chunkTokens  int
	chunkOverlap int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithExtractor replaces the text extractor (tests use stubs).
func WithExtractor(e Extractor) Option {
	return func(m *Manager) { m.extract = e }
}

// WithChunking sets the token window and overlap used when splitting
// extracted text for the index.
func WithChunking(maxTokens, overlap int) Option {
	return func(m *Manager) {
		m.chunkTokens = maxTokens
		m.chunkOverlap = overlap
	}
}

// NewManager wires a registry (already loaded from regPath) to an index
// store.
func NewManager(reg *registry.Registry, regPath string, idx index.Store, opts ...Option) *Manager {
	m := &Manager{
		reg:          reg,
		regPath:      regPath,
		idx:          idx,
		extract:      pipeline.ExtractBytes,
		logger:       zap.NewNop(),
		chunkTokens:  400,
		chunkOverlap: 50,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Insert indexes one document. Commit order is index-first: chunks are
// added and persisted before the registry claims the filename, so a
// registry entry always implies retrievable content. A crash between
// index persist and registry save leaves orphan chunks, which the next
// Remove/RemoveAll of that filename cleans up; the registry never lies.
func (m *Manager) Insert(ctx context.Context, filename string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(ctx, filename, data)
}

func (m *Manager) insertLocked(ctx context.Context, filename string, data []byte) error {
	proc := ingest.ProcessorType(filename)
	if proc == ingest.ProcessorUnknown {
		return newError(KindUnsupportedType, filename,
			fmt.Errorf("only plain text and PDF files are supported"))
	}

	digest := fingerprint.Sum(data)
	if existing, ok := m.reg.FindByHash(digest); ok {
		return newError(KindDuplicateContent, filename,
			fmt.Errorf("content identical to already indexed %q", existing))
	}

	text, err := m.extract(data, filename)
	if err != nil {
		return newError(KindExtractionFailed, filename, err)
	}

	subChunks := pipeline.CreateSubChunks(text, m.chunkTokens, m.chunkOverlap)
	if len(subChunks) == 0 {
		return newError(KindExtractionFailed, filename,
			errors.New("no indexable text after chunking"))
	}
	chunks := make([]index.Chunk, len(subChunks))
	for i, sc := range subChunks {
		chunks[i] = index.Chunk{
			ID:       fmt.Sprintf("%s#%d", filename, i),
			Filename: filename,
			Text:     sc.Text,
		}
	}

	if err := m.idx.Add(ctx, chunks); err != nil {
		// Nothing committed yet; scrub any partial in-memory insert.
		_ = m.idx.DeleteByFilename(ctx, filename)
		return classifyStorage(filename, err)
	}
	if err := m.idx.Persist(ctx); err != nil {
		_ = m.idx.DeleteByFilename(ctx, filename)
		_ = m.idx.Persist(ctx)
		return classifyStorage(filename, err)
	}

	rec := registry.Record{
		Type:      recordType(proc),
		SizeBytes: int64(len(data)),
		AddedAt:   time.Now().UTC(),
		Hash:      digest,
	}
	m.reg.Put(filename, rec)
	if err := m.reg.Save(m.regPath); err != nil {
		// Roll the index back so neither store claims the document.
		m.reg.Remove(filename)
		_ = m.idx.DeleteByFilename(ctx, filename)
		_ = m.idx.Persist(ctx)
		return newError(KindPersistFailed, filename, err)
	}

	m.logger.Info("document indexed",
		zap.String("filename", filename),
		zap.Int("chunks", len(chunks)),
		zap.Int64("size_bytes", rec.SizeBytes),
	)
	return nil
}

// InsertBatch indexes each file independently: one bad file never aborts
// the batch. Duplicates within the batch are rejected after the first
// occurrence is accepted, because each accepted file commits its hash to
// the registry before the next is examined.
func (m *Manager) InsertBatch(ctx context.Context, uploads []Upload) []FileResult {
	results := make([]FileResult, 0, len(uploads))
	for _, up := range uploads {
		m.mu.Lock()
		err := m.insertLocked(ctx, up.Filename, up.Data)
		m.mu.Unlock()
		if err != nil {
			m.logger.Warn("file rejected",
				zap.String("filename", up.Filename),
				zap.String("kind", string(KindOf(err))),
				zap.Error(err),
			)
		}
		results = append(results, FileResult{Filename: up.Filename, Err: err})
	}
	return results
}

// Remove unindexes one document. Registry commits first: when the
// registry no longer claims the filename, the chunks are deleted and the
// index persisted. A second Remove of the same filename is a NotFound
// no-op.
func (m *Manager) Remove(ctx context.Context, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.reg.Get(filename)
	if !ok {
		return newError(KindNotFound, filename, errors.New("document not registered"))
	}

	m.reg.Remove(filename)
	if err := m.reg.Save(m.regPath); err != nil {
		m.reg.Put(filename, rec)
		return newError(KindPersistFailed, filename, err)
	}

	if err := m.idx.DeleteByFilename(ctx, filename); err != nil {
		return classifyStorage(filename, err)
	}
	if err := m.idx.Persist(ctx); err != nil {
		return classifyStorage(filename, err)
	}

	m.logger.Info("document removed", zap.String("filename", filename))
	return nil
}

// RemoveAll clears the registry and rebuilds the index from nothing.
func (m *Manager) RemoveAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.reg.Records()
	m.reg.Clear()
	if err := m.reg.Save(m.regPath); err != nil {
		for name, rec := range snapshot {
			m.reg.Put(name, rec)
		}
		return newError(KindPersistFailed, "", err)
	}

	if err := m.idx.RebuildFrom(ctx, nil); err != nil {
		return classifyStorage("", err)
	}
	if err := m.idx.Persist(ctx); err != nil {
		return classifyStorage("", err)
	}

	m.logger.Info("all documents removed", zap.Int("previous_count", len(snapshot)))
	return nil
}

// Documents returns a snapshot of the registry contents.
func (m *Manager) Documents() map[string]registry.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reg.Records()
}

// Count returns the number of registered documents.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reg.Len()
}

// TotalSize returns the summed size of registered documents in bytes.
func (m *Manager) TotalSize() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reg.TotalSize()
}

// CheckCorrespondence verifies the structural invariant: the registry
// and the index agree on the set of indexed documents. Intended for the
// status endpoint and tests; a mismatch indicates a bug or a crash
// inside the acknowledged commit window.
func (m *Manager) CheckCorrespondence(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.idx.FileCount(ctx)
	if err != nil {
		return classifyStorage("", err)
	}
	if n != m.reg.Len() {
		return fmt.Errorf("registry has %d documents but index has %d", m.reg.Len(), n)
	}
	return nil
}

func recordType(p ingest.Processor) registry.ContentType {
	if p == ingest.ProcessorPDF {
		return registry.TypePDF
	}
	return registry.TypePlainText
}

func classifyStorage(filename string, err error) *Error {
	if errors.Is(err, index.ErrCorrupt) {
		return newError(KindStorageCorrupt, filename, err)
	}
	return newError(KindPersistFailed, filename, err)
}
