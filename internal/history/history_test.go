package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryAt(i int) Entry {
	return Entry{
		Question:  fmt.Sprintf("question %d", i),
		Response:  fmt.Sprintf("answer %d", i),
		Timestamp: time.Date(2025, 1, 1, 0, 0, i, 0, time.UTC),
	}
}

func TestAppendEvictsOldestBeyondCap(t *testing.T) {
	log := New()
	for i := 0; i < MaxEntries+1; i++ {
		log.Append(entryAt(i))
	}

	entries := log.Entries()
	require.Len(t, entries, MaxEntries)

	// Entry 0 was evicted; order of the remaining 50 is preserved.
	assert.Equal(t, "question 1", entries[0].Question)
	assert.Equal(t, fmt.Sprintf("question %d", MaxEntries), entries[MaxEntries-1].Question)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query_history.json")
	log := New()
	for i := 0; i < 3; i++ {
		log.Append(entryAt(i))
	}
	require.NoError(t, log.Save(path))

	loaded := Load(path, nil)
	assert.Equal(t, log.Entries(), loaded.Entries())
}

func TestLoadMissingReturnsEmpty(t *testing.T) {
	log := Load(filepath.Join(t.TempDir(), "nope.json"), nil)
	assert.Equal(t, 0, log.Len())
}

func TestLoadMalformedDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query_history.json")
	require.NoError(t, os.WriteFile(path, []byte("[{broken"), 0644))

	log := Load(path, nil)
	assert.Equal(t, 0, log.Len())
}

// A file that grew past the cap (e.g. written by an older build) is
// trimmed to the newest entries on load.
func TestLoadTrimsOversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query_history.json")
	log := &Log{}
	for i := 0; i < MaxEntries+10; i++ {
		log.entries = append(log.entries, entryAt(i))
	}
	require.NoError(t, log.Save(path))

	loaded := Load(path, nil)
	require.Equal(t, MaxEntries, loaded.Len())
	assert.Equal(t, "question 10", loaded.Entries()[0].Question)
}
