// Package cas implements the plan build ledger.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.PlanStore using a flat JSON file.
type Store struct {
	path  string
	mu    sync.RWMutex
	cache map[domain.MeshHandle]domain.PlanInfo
}

// NewStore creates a new PlanStore backed by the file at the given path.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:  filepath.Clean(path),
		cache: make(map[domain.MeshHandle]domain.PlanInfo),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.Wrap(err, "failed to read plan store")
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.cache); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to unmarshal plan store"), "path", s.path)
	}
	return nil
}

func (s *Store) save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.cache, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return zerr.Wrap(err, "failed to marshal plan store")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create directory for plan store")
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write plan store")
	}
	return nil
}

// Get retrieves the last plan info recorded for a handle.
func (s *Store) Get(handle domain.MeshHandle) (*domain.PlanInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.cache[handle]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

// Put stores the plan info, replacing any earlier record for the same handle.
func (s *Store) Put(info domain.PlanInfo) error {
	s.mu.Lock()
	s.cache[info.Handle] = info
	s.mu.Unlock()

	return s.save()
}

// List returns every recorded plan info ordered by handle.
func (s *Store) List() ([]domain.PlanInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PlanInfo, 0, len(s.cache))
	for _, info := range s.cache {
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b domain.PlanInfo) int {
		return strings.Compare(string(a.Handle), string(b.Handle))
	})
	return out, nil
}
