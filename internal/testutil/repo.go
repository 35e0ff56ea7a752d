// Package testutil provides reusable builders for repository tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/docportal/repocli/internal/store"
)

// TestRepo is a temporary working directory with a repository store.
type TestRepo struct {
	Dir   string
	Store *store.Store

	t       *testing.T
	files   map[string]string
	objects []*store.Object
	config  string
}

// NewTestRepo creates a test repository builder.
// Call Build() to create the directory and the store.
func NewTestRepo(t *testing.T) *TestRepo {
	t.Helper()
	return &TestRepo{t: t, files: make(map[string]string)}
}

// WithFile adds a file relative to the repository directory.
func (r *TestRepo) WithFile(path, content string) *TestRepo {
	r.files[path] = content
	return r
}

// WithObject stores obj when the repository is built. Objects are created
// in the order given, so link targets must come first.
func (r *TestRepo) WithObject(id, label string, links ...string) *TestRepo {
	r.objects = append(r.objects, &store.Object{ID: id, Label: label, Links: links})
	return r
}

// WithConfig sets the config.toml content.
func (r *TestRepo) WithConfig(toml string) *TestRepo {
	r.config = toml
	return r
}

// Build creates the directory, writes the files and opens the store.
func (r *TestRepo) Build() *TestRepo {
	r.t.Helper()
	r.Dir = r.t.TempDir()

	if r.config != "" {
		r.writeFile("config.toml", r.config)
	}
	for path, content := range r.files {
		r.writeFile(path, content)
	}

	s, err := store.Open(filepath.Join(r.Dir, "repository.db"))
	if err != nil {
		r.t.Fatalf("failed to open store: %v", err)
	}
	r.t.Cleanup(func() { s.Close() })
	r.Store = s

	for _, obj := range r.objects {
		if err := s.CreateObject(context.Background(), obj); err != nil {
			r.t.Fatalf("failed to create object %s: %v", obj.ID, err)
		}
	}
	return r
}

// Path returns the absolute path of a file in the repository directory.
func (r *TestRepo) Path(rel string) string {
	return filepath.Join(r.Dir, rel)
}

// ConfigPath returns the path of config.toml.
func (r *TestRepo) ConfigPath() string {
	return r.Path("config.toml")
}

func (r *TestRepo) writeFile(relPath, content string) {
	r.t.Helper()
	fullPath := filepath.Join(r.Dir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		r.t.Fatalf("failed to create directory for %s: %v", relPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		r.t.Fatalf("failed to write file %s: %v", relPath, err)
	}
}
