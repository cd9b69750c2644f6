package meshfile

import (
	"os"
	"path/filepath"

	"go.trai.ch/subdiv/internal/adapters/memmesh"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.MeshSource = (*Source)(nil)

// Source is a mesh source backed by an OBJ file. Reload re-reads the file
// and notifies subscribers of the attributes that changed.
type Source struct {
	*memmesh.Mesh
	path string
}

// Open creates a source for path. The handle is the cleaned absolute path.
// The file is read immediately; a missing or malformed file leaves the
// source not ready and returns the error.
func Open(path string) (*Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve mesh path"), "path", path)
	}
	s := &Source{Mesh: memmesh.NewEmpty(domain.MeshHandle(abs)), path: abs}
	if err := s.Reload(); err != nil {
		return s, err
	}
	return s, nil
}

// Path returns the file backing the source.
func (s *Source) Path() string { return s.path }

// Reload parses the file and publishes its content. On failure the previous
// content stays visible.
func (s *Source) Reload() error {
	f, err := os.Open(s.path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open mesh"), "path", s.path)
	}
	defer func() { _ = f.Close() }()

	m, err := Parse(f)
	if err != nil {
		return err
	}
	s.Update(m.Points, m.Counts, m.Indices, m.Creases)
	return nil
}
