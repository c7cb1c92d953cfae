package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	RegistryFile = "documents_meta.json"
	HistoryFile  = "query_history.json"
	IndexDirName = "index"
)

// Manager owns the physical layout of the data directory. All durable
// state (registry, history, index) lives under a single root so the
// whole corpus can be backed up or wiped as one unit.
type Manager struct {
	RootDir string
}

// NewManager creates the directory structure if it doesn't exist.
func NewManager(root string) (*Manager, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not find user home: %w", err)
		}
		root = filepath.Join(home, ".docquery")
	}

	dirs := []string{
		root,
		filepath.Join(root, IndexDirName),
	}
	for _, d := range dirs {
		// 0755: Owner can read/write/exec, Group/Others can read/exec
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("failed to init dir %s: %w", d, err)
		}
	}

	return &Manager{RootDir: root}, nil
}

// RegistryPath returns the path of the persisted document registry.
func (m *Manager) RegistryPath() string {
	return filepath.Join(m.RootDir, RegistryFile)
}

// HistoryPath returns the path of the persisted query history.
func (m *Manager) HistoryPath() string {
	return filepath.Join(m.RootDir, HistoryFile)
}

// IndexDir returns the directory holding the vector index.
func (m *Manager) IndexDir() string {
	return filepath.Join(m.RootDir, IndexDirName)
}

// WriteFileAtomic writes data to path so that a crash mid-write leaves
// either the old content or the new content, never a torn file. The temp
// file is created in the target directory so the rename stays on one
// filesystem.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
