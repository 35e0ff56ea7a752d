package testutil

import (
	"context"
	"os"
	"strings"
)

// AssertFileExists fails the test if the file does not exist.
func (r *TestRepo) AssertFileExists(relPath string) {
	r.t.Helper()
	if _, err := os.Stat(r.Path(relPath)); os.IsNotExist(err) {
		r.t.Errorf("expected file to exist: %s", relPath)
	}
}

// AssertFileNotExists fails the test if the file exists.
func (r *TestRepo) AssertFileNotExists(relPath string) {
	r.t.Helper()
	if _, err := os.Stat(r.Path(relPath)); err == nil {
		r.t.Errorf("expected file to not exist: %s", relPath)
	}
}

// AssertFileContent fails the test unless the file holds exactly want.
func (r *TestRepo) AssertFileContent(relPath, want string) {
	r.t.Helper()
	data, err := os.ReadFile(r.Path(relPath))
	if err != nil {
		r.t.Errorf("failed to read %s: %v", relPath, err)
		return
	}
	if string(data) != want {
		r.t.Errorf("%s = %q, want %q", relPath, data, want)
	}
}

// AssertFileContains fails the test if the file does not contain substr.
func (r *TestRepo) AssertFileContains(relPath, substr string) {
	r.t.Helper()
	data, err := os.ReadFile(r.Path(relPath))
	if err != nil {
		r.t.Errorf("failed to read %s: %v", relPath, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		r.t.Errorf("expected %s to contain %q", relPath, substr)
	}
}

// AssertObjectExists fails the test unless the store holds id.
func (r *TestRepo) AssertObjectExists(id string) {
	r.t.Helper()
	ok, err := r.Store.ObjectExists(context.Background(), id)
	if err != nil || !ok {
		r.t.Errorf("expected object %s to exist (err=%v)", id, err)
	}
}

// AssertObjectNotExists fails the test if the store holds id.
func (r *TestRepo) AssertObjectNotExists(id string) {
	r.t.Helper()
	ok, err := r.Store.ObjectExists(context.Background(), id)
	if err != nil || ok {
		r.t.Errorf("expected object %s to be absent (err=%v)", id, err)
	}
}
