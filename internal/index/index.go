// Package index provides the persistent retrieval index over document
// chunks. The lifecycle manager treats a Store as an opaque capability:
// it inserts tagged chunks, removes them by owning filename, and reads
// contents back only to rebuild. Side effects stay in memory until
// Persist is called.
package index

import (
	"context"
	"errors"
)

var (
	// ErrCorrupt means the on-disk index could not be reconstructed.
	// Unlike a damaged registry this is fatal: it implies previously
	// indexed content is no longer retrievable.
	ErrCorrupt = errors.New("index storage corrupt")

	// ErrPersist means the index could not be durably written.
	ErrPersist = errors.New("index persist failed")
)

// Chunk is one indexed text fragment tagged with its owning document.
type Chunk struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// Result is a chunk matched by a similarity search.
type Result struct {
	Chunk Chunk
	Score float32
}

// Store is the retrieval index contract.
type Store interface {
	// Add inserts chunks. All chunks of one logical document are added
	// in a single call.
	Add(ctx context.Context, chunks []Chunk) error

	// DeleteByFilename removes every chunk tagged with filename. After
	// it returns no chunk with that tag remains in the store.
	DeleteByFilename(ctx context.Context, filename string) error

	// RebuildFrom replaces the entire contents with exactly the given
	// chunks.
	RebuildFrom(ctx context.Context, chunks []Chunk) error

	// AllChunks reads back the current contents.
	AllChunks(ctx context.Context) ([]Chunk, error)

	// Search returns the k chunks most relevant to query.
	Search(ctx context.Context, query string, k int) ([]Result, error)

	// FileCount returns the number of distinct filenames present.
	FileCount(ctx context.Context) (int, error)

	// Persist durably writes the current state. Must be called after
	// every mutation the caller intends to keep.
	Persist(ctx context.Context) error

	Close() error
}
