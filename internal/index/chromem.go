package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/GonzoDMX/docquery/internal/storage"
)

const (
	collectionName = "documents"
	manifestFile   = "manifest.json"
	metaFilename   = "filename"
)

// ChromemStore implements Store on top of chromem-go, an embeddable
// pure-Go vector database with gob-file persistence. chromem supports
// deleting by metadata filter, so removal uses a targeted delete by
// filename tag instead of a full rebuild.
//
// chromem has no way to enumerate a collection, so the store keeps a
// manifest (filename -> chunk IDs) beside the database. The manifest is
// committed by Persist; chunk payloads are read back through GetByID.
type ChromemStore struct {
	mu       sync.RWMutex
	db       *chromem.DB
	coll     *chromem.Collection
	embed    chromem.EmbeddingFunc
	dir      string
	manifest map[string][]string
	logger   *zap.Logger
}

// NewChromemStore opens (or creates) the persistent index under dir.
// Returns ErrCorrupt if existing on-disk state cannot be reconstructed:
// that is surfaced loudly because it implies lost retrievability.
func NewChromemStore(dir string, embed chromem.EmbeddingFunc, logger *zap.Logger) (*ChromemStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating index dir %s: %w", dir, err)
	}

	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	coll, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	manifest, err := loadManifest(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}

	s := &ChromemStore{
		db:       db,
		coll:     coll,
		embed:    embed,
		dir:      dir,
		manifest: manifest,
		logger:   logger,
	}

	logger.Info("index opened",
		zap.String("dir", dir),
		zap.Int("files", len(manifest)),
		zap.Int("chunks", coll.Count()),
	)
	return s, nil
}

func loadManifest(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string][]string), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if m == nil {
		m = make(map[string][]string)
	}
	return m, nil
}

func (s *ChromemStore) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:       c.ID,
			Content:  c.Text,
			Metadata: map[string]string{metaFilename: c.Filename},
		}
	}
	// Embedding happens inside chromem via the configured func;
	// concurrency 1 keeps provider rate limits manageable.
	if err := s.coll.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	for _, c := range chunks {
		s.manifest[c.Filename] = append(s.manifest[c.Filename], c.ID)
	}
	return nil
}

func (s *ChromemStore) DeleteByFilename(ctx context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.coll.Delete(ctx, map[string]string{metaFilename: filename}, nil); err != nil {
		return fmt.Errorf("deleting chunks for %s: %w", filename, err)
	}
	delete(s.manifest, filename)
	return nil
}

func (s *ChromemStore) RebuildFrom(ctx context.Context, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("dropping collection: %w", err)
	}
	coll, err := s.db.GetOrCreateCollection(collectionName, nil, s.embed)
	if err != nil {
		return fmt.Errorf("recreating collection: %w", err)
	}
	s.coll = coll
	s.manifest = make(map[string][]string)

	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:       c.ID,
			Content:  c.Text,
			Metadata: map[string]string{metaFilename: c.Filename},
		}
	}
	if err := s.coll.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("repopulating collection: %w", err)
	}
	for _, c := range chunks {
		s.manifest[c.Filename] = append(s.manifest[c.Filename], c.ID)
	}
	return nil
}

func (s *ChromemStore) AllChunks(ctx context.Context) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Chunk
	for filename, ids := range s.manifest {
		for _, id := range ids {
			doc, err := s.coll.GetByID(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("%w: chunk %s missing: %v", ErrCorrupt, id, err)
			}
			out = append(out, Chunk{ID: id, Filename: filename, Text: doc.Content})
		}
	}
	return out, nil
}

func (s *ChromemStore) FileCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.manifest), nil
}

func (s *ChromemStore) Search(ctx context.Context, query string, k int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 {
		k = 5
	}
	// chromem requires nResults <= document count.
	count := s.coll.Count()
	if count == 0 {
		return []Result{}, nil
	}
	if k > count {
		k = count
	}

	results, err := s.coll.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = Result{
			Chunk: Chunk{ID: r.ID, Filename: r.Metadata[metaFilename], Text: r.Content},
			Score: r.Similarity,
		}
	}
	return out, nil
}

// Persist commits the manifest. Chunk payloads are written by chromem
// as part of each mutation; the manifest rename is the commit point for
// what the store considers indexed.
func (s *ChromemStore) Persist(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.MarshalIndent(s.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := storage.WriteFileAtomic(filepath.Join(s.dir, manifestFile), data, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (s *ChromemStore) Close() error {
	s.logger.Info("index closed", zap.String("dir", s.dir))
	return nil
}

var _ Store = (*ChromemStore)(nil)
