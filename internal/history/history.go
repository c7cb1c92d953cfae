// Package history keeps the append-only log of questions and answers.
// The log shares the durable-JSON pattern of the registry but has its
// own lifecycle: clearing documents does not clear history.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/GonzoDMX/docquery/internal/storage"
)

// MaxEntries caps the log; appending beyond it evicts the oldest entry.
const MaxEntries = 50

// Entry is one question/answer pair. Newest entries sit at the end of
// the persisted array.
type Entry struct {
	Question  string    `json:"question"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is the capped query history.
type Log struct {
	entries []Entry
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Load reads the history file. Missing file yields an empty log;
// malformed content is logged and degrades to empty.
func Load(path string, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("history unreadable, starting empty",
				zap.String("path", path),
				zap.Error(err),
			)
		}
		return New()
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("history malformed, starting empty",
			zap.String("path", path),
			zap.Error(err),
		)
		return New()
	}
	if len(entries) > MaxEntries {
		entries = entries[len(entries)-MaxEntries:]
	}
	return &Log{entries: entries}
}

// Append adds an entry, evicting the oldest when the cap is exceeded.
func (l *Log) Append(e Entry) {
	l.entries = append(l.entries, e)
	if len(l.entries) > MaxEntries {
		l.entries = l.entries[len(l.entries)-MaxEntries:]
	}
}

// Entries returns a copy, oldest first.
func (l *Log) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Len returns the number of stored entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Save writes the log atomically.
func (l *Log) Save(path string) error {
	data, err := json.MarshalIndent(l.entries, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := storage.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
