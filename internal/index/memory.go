package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/GonzoDMX/docquery/internal/storage"
)

// MemoryStore is a brute-force in-memory index persisted as a single
// JSON blob. Search scores chunks by lexical token overlap, so it needs
// no embedding provider. Removal is implemented the way the contract
// describes it: filter the full contents and rebuild.
type MemoryStore struct {
	mu     sync.RWMutex
	path   string
	chunks []Chunk
}

// NewMemoryStore returns an empty store persisting to path. If path is
// empty the store is memory-only (useful in tests).
func NewMemoryStore(path string) *MemoryStore {
	return &MemoryStore{path: path}
}

// LoadMemoryStore reconstructs a store from its persisted blob. A
// missing file yields an empty store; unreadable content is ErrCorrupt.
func LoadMemoryStore(path string) (*MemoryStore, error) {
	s := &MemoryStore{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := json.Unmarshal(data, &s.chunks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return s, nil
}

func (s *MemoryStore) Add(ctx context.Context, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *MemoryStore) DeleteByFilename(ctx context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining := s.chunks[:0:0]
	for _, c := range s.chunks {
		if c.Filename != filename {
			remaining = append(remaining, c)
		}
	}
	s.chunks = remaining
	return nil
}

func (s *MemoryStore) RebuildFrom(ctx context.Context, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append([]Chunk(nil), chunks...)
	return nil
}

func (s *MemoryStore) AllChunks(ctx context.Context) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Chunk(nil), s.chunks...), nil
}

func (s *MemoryStore) FileCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, c := range s.chunks {
		seen[c.Filename] = struct{}{}
	}
	return len(seen), nil
}

var wordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\d+`)

// Search ranks chunks by the Ochiai coefficient of their token sets:
// |A∩B| / sqrt(|A||B|).
func (s *MemoryStore) Search(ctx context.Context, query string, k int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 {
		k = 5
	}
	qset := tokenSet(query)

	results := make([]Result, 0, len(s.chunks))
	for _, c := range s.chunks {
		results = append(results, Result{Chunk: c, Score: overlapScore(qset, c.Text)})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Persist writes the blob atomically. Memory-only stores are a no-op.
func (s *MemoryStore) Persist(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.path == "" {
		return nil
	}
	data, err := json.Marshal(s.chunks)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := storage.WriteFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func tokenSet(text string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func overlapScore(qset map[string]struct{}, text string) float32 {
	cset := tokenSet(text)
	if len(qset) == 0 || len(cset) == 0 {
		return 0
	}
	inter := 0
	for t := range cset {
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	return float32(float64(inter) / math.Sqrt(float64(len(qset))*float64(len(cset))))
}

var _ Store = (*MemoryStore)(nil)
