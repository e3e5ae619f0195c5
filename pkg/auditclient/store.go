// Package auditclient is the client-side audit writer used by registrar
// front ends. The log it keeps is a UI convenience cache: entries are also
// sent to the API, whose store is authoritative, and the two are never
// reconciled.
package auditclient

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Keys persisted by the client.
const (
	KeyAuditLogs        = "auditLogs"
	KeyCurrentUser      = "currentUser"
	KeySessionStartTime = "sessionStartTime"
	KeySessionStartUser = "sessionStartUser"
)

var (
	// ErrNotFound is returned by Get for keys that were never set.
	ErrNotFound = errors.New("auditclient: key not found")
	// ErrQuotaExceeded is returned by stores that cap how much they hold.
	ErrQuotaExceeded = errors.New("auditclient: storage quota exceeded")
)

// KV is the local key-value store the writer persists to. Values are whole
// JSON documents; there are no partial updates.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// MemoryStore keeps values in process memory. A positive Quota caps the
// total number of bytes held, the way browser storage does.
type MemoryStore struct {
	Quota int

	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore constructs an empty store without a quota.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Quota > 0 {
		used := len(value)
		for k, v := range s.values {
			if k != key {
				used += len(v)
			}
		}
		if used > s.Quota {
			return ErrQuotaExceeded
		}
	}

	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

// FileStore keeps one JSON file per key inside a directory. Writes go to a
// temporary file that is renamed over the target.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates dir when needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Get(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *FileStore) Set(key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, value, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("auditclient: invalid key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}
