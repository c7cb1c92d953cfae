package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GonzoDMX/docquery/internal/index"
	"github.com/GonzoDMX/docquery/internal/registry"
)

// passthroughExtract treats the upload bytes as the extracted text.
func passthroughExtract(data []byte, filename string) (string, error) {
	return string(data), nil
}

func newTestManager(t *testing.T) (*Manager, *index.MemoryStore, string) {
	t.Helper()
	dir := t.TempDir()
	regPath := filepath.Join(dir, "documents_meta.json")
	idx := index.NewMemoryStore(filepath.Join(dir, "index.json"))
	mgr := NewManager(registry.New(), regPath, idx, WithExtractor(passthroughExtract))
	return mgr, idx, regPath
}

// requireCorrespondence asserts the structural invariant: registry and
// index agree on the set of indexed documents.
func requireCorrespondence(t *testing.T, mgr *Manager) {
	t.Helper()
	require.NoError(t, mgr.CheckCorrespondence(context.Background()))
}

func TestInsertAndCorrespondence(t *testing.T) {
	mgr, idx, _ := newTestManager(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("doc%d.txt", i)
		body := fmt.Sprintf("unique document body number %d with some words", i)
		require.NoError(t, mgr.Insert(ctx, name, []byte(body)))
		requireCorrespondence(t, mgr)
	}
	assert.Equal(t, 5, mgr.Count())

	n, err := idx.FileCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestInsertRejectsDuplicateContent(t *testing.T) {
	mgr, idx, _ := newTestManager(t)
	ctx := context.Background()
	body := []byte("the exact same bytes")

	require.NoError(t, mgr.Insert(ctx, "a.txt", body))

	// Different filename, identical bytes: rejected, zero mutation.
	err := mgr.Insert(ctx, "b.txt", body)
	require.Error(t, err)
	assert.Equal(t, KindDuplicateContent, KindOf(err))
	assert.Contains(t, err.Error(), "a.txt")

	assert.Equal(t, 1, mgr.Count())
	n, err := idx.FileCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	requireCorrespondence(t, mgr)
}

func TestRemoveIsIdempotent(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.Insert(ctx, "a.txt", []byte("some text here")))
	require.NoError(t, mgr.Remove(ctx, "a.txt"))
	requireCorrespondence(t, mgr)

	err := mgr.Remove(ctx, "a.txt")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, 0, mgr.Count())
}

func TestRemoveUnknownIsNotFound(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	err := mgr.Remove(context.Background(), "ghost.txt")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestRemoveAll(t *testing.T) {
	mgr, idx, regPath := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.Insert(ctx, "a.txt", []byte("first document text")))
	require.NoError(t, mgr.Insert(ctx, "b.txt", []byte("second document text")))

	require.NoError(t, mgr.RemoveAll(ctx))
	requireCorrespondence(t, mgr)
	assert.Equal(t, 0, mgr.Count())

	chunks, err := idx.AllChunks(ctx)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	// Reload from disk: the persisted registry is empty too.
	reloaded := registry.Load(regPath, nil)
	assert.Equal(t, 0, reloaded.Len())
}

// Scenario from the product behavior: removing a document frees its
// content hash for re-upload under a new name.
func TestRemoveFreesContentHash(t *testing.T) {
	mgr, idx, _ := newTestManager(t)
	ctx := context.Background()
	body := []byte("reusable document content")

	require.NoError(t, mgr.Insert(ctx, "a.txt", body))
	assert.Equal(t, 1, mgr.Count())

	err := mgr.Insert(ctx, "b.txt", body)
	assert.Equal(t, KindDuplicateContent, KindOf(err))
	assert.Equal(t, 1, mgr.Count())

	require.NoError(t, mgr.Remove(ctx, "a.txt"))
	assert.Equal(t, 0, mgr.Count())

	chunks, err := idx.AllChunks(ctx)
	require.NoError(t, err)
	for _, c := range chunks {
		assert.NotEqual(t, "a.txt", c.Filename)
	}

	require.NoError(t, mgr.Insert(ctx, "c.txt", body))
	assert.Equal(t, 1, mgr.Count())
	requireCorrespondence(t, mgr)
}

func TestExtractionFailureLeavesStateUntouched(t *testing.T) {
	dir := t.TempDir()
	regPath := filepath.Join(dir, "documents_meta.json")
	idx := index.NewMemoryStore(filepath.Join(dir, "index.json"))

	failOn := "bad.txt"
	extract := func(data []byte, filename string) (string, error) {
		if filename == failOn {
			return "", errors.New("malformed input")
		}
		return string(data), nil
	}
	mgr := NewManager(registry.New(), regPath, idx, WithExtractor(extract))
	ctx := context.Background()

	require.NoError(t, mgr.Insert(ctx, "good.txt", []byte("fine content")))

	err := mgr.Insert(ctx, failOn, []byte("whatever"))
	require.Error(t, err)
	assert.Equal(t, KindExtractionFailed, KindOf(err))
	assert.Contains(t, err.Error(), failOn)

	assert.Equal(t, 1, mgr.Count())
	requireCorrespondence(t, mgr)
}

func TestInsertRejectsUnsupportedType(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	err := mgr.Insert(context.Background(), "binary.exe", []byte("MZ..."))
	require.Error(t, err)
	assert.Equal(t, KindUnsupportedType, KindOf(err))
	assert.Equal(t, 0, mgr.Count())
}

func TestInsertBatchContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	regPath := filepath.Join(dir, "documents_meta.json")
	idx := index.NewMemoryStore("")

	extract := func(data []byte, filename string) (string, error) {
		if filename == "broken.pdf" {
			return "", errors.New("malformed PDF")
		}
		return string(data), nil
	}
	mgr := NewManager(registry.New(), regPath, idx, WithExtractor(extract))

	results := mgr.InsertBatch(context.Background(), []Upload{
		{Filename: "one.txt", Data: []byte("first body")},
		{Filename: "broken.pdf", Data: []byte("%PDF garbage")},
		{Filename: "two.txt", Data: []byte("second body")},
	})
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, KindExtractionFailed, KindOf(results[1].Err))
	assert.NoError(t, results[2].Err)

	assert.Equal(t, 2, mgr.Count())
	requireCorrespondence(t, mgr)
}

func TestInsertBatchRejectsIntraBatchDuplicates(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	same := []byte("duplicated payload inside one batch")

	results := mgr.InsertBatch(context.Background(), []Upload{
		{Filename: "first.txt", Data: same},
		{Filename: "second.txt", Data: same},
	})
	require.Len(t, results, 2)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, KindDuplicateContent, KindOf(results[1].Err))
	assert.Equal(t, 1, mgr.Count())
}

// The chosen commit order is index-first: if the registry cannot be
// saved, the index insert is rolled back and the registry never claims
// a document that was not committed.
func TestInsertRollsBackIndexWhenRegistrySaveFails(t *testing.T) {
	dir := t.TempDir()
	regDir := filepath.Join(dir, "reg")
	require.NoError(t, os.MkdirAll(regDir, 0755))
	regPath := filepath.Join(regDir, "documents_meta.json")

	idx := index.NewMemoryStore("")
	mgr := NewManager(registry.New(), regPath, idx, WithExtractor(passthroughExtract))
	ctx := context.Background()

	// Make the registry directory unwritable so Save fails.
	require.NoError(t, os.RemoveAll(regDir))

	err := mgr.Insert(ctx, "doomed.txt", []byte("content that will not commit"))
	require.Error(t, err)
	assert.Equal(t, KindPersistFailed, KindOf(err))

	assert.Equal(t, 0, mgr.Count())
	n, ferr := idx.FileCount(ctx)
	require.NoError(t, ferr)
	assert.Equal(t, 0, n, "index must not keep chunks for an uncommitted document")
}

func TestRemoveRestoresRegistryWhenSaveFails(t *testing.T) {
	dir := t.TempDir()
	regDir := filepath.Join(dir, "reg")
	require.NoError(t, os.MkdirAll(regDir, 0755))
	regPath := filepath.Join(regDir, "documents_meta.json")

	idx := index.NewMemoryStore("")
	mgr := NewManager(registry.New(), regPath, idx, WithExtractor(passthroughExtract))
	ctx := context.Background()

	require.NoError(t, mgr.Insert(ctx, "keep.txt", []byte("body to keep")))

	require.NoError(t, os.RemoveAll(regDir))

	err := mgr.Remove(ctx, "keep.txt")
	require.Error(t, err)
	assert.Equal(t, KindPersistFailed, KindOf(err))

	// The in-memory registry still claims the document and the index
	// still holds its chunks.
	assert.Equal(t, 1, mgr.Count())
	requireCorrespondence(t, mgr)
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, IsKind(errors.New("plain"), KindNotFound))
}
