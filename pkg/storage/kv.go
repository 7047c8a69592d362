package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// KV is the persistence capability injected into components that need to
// survive a reload. Implementations must tolerate concurrent callers.
type KV interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) (string, bool, error)
	// Set stores the value under key, overwriting any previous value.
	Set(key, value string) error
}

// MemKV is an in-memory KV used as the non-durable fallback and in tests.
type MemKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string]string)}
}

func (m *MemKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// FileKV stores each key as a file under a base directory. Writes go through
// a temp file and rename so a crash mid-write never leaves a truncated value.
type FileKV struct {
	mu  sync.Mutex
	dir string
}

func NewFileKV(dir string) (*FileKV, error) {
	if dir == "" {
		return nil, errors.New("storage dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileKV{dir: dir}, nil
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileKV) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(raw), true, nil
}

func (f *FileKV) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tmp := f.path(key) + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path(key))
}
