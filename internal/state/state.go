// Package state persists per-skill inventory snapshots between audits so
// later audits can report which files appeared, vanished, or changed.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Snapshot is the inventory recorded by one audit of a skill. Files maps
// relative paths to SHA-256 digests; undigested files map to "".
type Snapshot struct {
	AuditedAt    string            `json:"audited_at"`
	NumericScore int               `json:"numeric_score"`
	Files        map[string]string `json:"files"`
}

// Store is a JSON file of snapshots keyed by skill identity (an absolute
// path, or "slug:<name>" for fetched skills).
type Store struct {
	mu     sync.RWMutex
	Skills map[string]Snapshot `json:"skills"`
	path   string
}

// New creates a store backed by path. Nothing is read until Load.
func New(path string) *Store {
	return &Store{
		Skills: make(map[string]Snapshot),
		path:   path,
	}
}

// Load reads the state file. A missing file leaves the store empty.
// Symlinks are rejected.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Lstat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading state: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("state file is a symlink (rejected): %s", s.path)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("reading state: %w", err)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("parsing state %s: %w", s.path, err)
	}
	if s.Skills == nil {
		s.Skills = make(map[string]Snapshot)
	}
	return nil
}

// Save writes the store, creating parent directories with 0o700 and the
// file with 0o600. Symlinks are rejected.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if info, err := os.Lstat(s.path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("state file is a symlink (rejected): %s", s.path)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Get returns the snapshot stored for key.
func (s *Store) Get(key string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.Skills[key]
	return snap, ok
}

// Put replaces the snapshot for key.
func (s *Store) Put(key string, snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Skills[key] = snap
}

// Keys returns the stored skill keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.Skills))
	for k := range s.Skills {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}
