// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package artifact owns the scoped temporary file that stages bytes between
// conversion and upload. Every created file is removed exactly once when its
// scope exits, whatever the exit path.
package artifact

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/pdiddy/docrelay/pkg/types"
)

const namePrefix = "temp_"

// PersistError reports that the artifact could not be written.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to persist temp artifact %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Manager allocates temporary artifacts under a root directory.
type Manager struct {
	fs     afero.Fs
	root   string
	logger *slog.Logger
}

// NewManager returns a Manager writing to root on fs. A nil logger uses
// slog.Default().
func NewManager(fs afero.Fs, root string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{fs: fs, root: root, logger: logger}
}

// Root returns the temp root directory.
func (m *Manager) Root() string { return m.root }

// Name returns a fresh collision-resistant filename for p:
// temp_{base}_{random}{ext}.
func (m *Manager) Name(p types.FilePayload) string {
	base := filepath.Base(filepath.Clean("/" + p.BaseName()))
	if base == "/" || base == "." {
		base = "file"
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return namePrefix + base + "_" + id + p.Ext
}

// Open opens a persisted artifact for reading.
func (m *Manager) Open(path string) (afero.File, error) {
	return m.fs.Open(path)
}

// With writes p to a new artifact, calls fn with its path and removes the
// artifact before returning. A write failure returns a *PersistError without
// calling fn; a partially written file is still removed. Removal failures are
// logged, never returned.
func With[T any](m *Manager, p types.FilePayload, fn func(path string) (T, error)) (T, error) {
	var zero T

	art, err := m.create(p)
	defer m.release(art)
	if err != nil {
		return zero, err
	}
	return fn(art.Path)
}

func (m *Manager) create(p types.FilePayload) (types.TempArtifact, error) {
	art := types.TempArtifact{Path: filepath.Join(m.root, m.Name(p))}

	if err := m.fs.MkdirAll(m.root, 0o755); err != nil {
		return art, &PersistError{Path: art.Path, Err: fmt.Errorf("creating temp root: %w", err)}
	}

	f, err := m.fs.OpenFile(art.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return art, &PersistError{Path: art.Path, Err: err}
	}
	art.Created = true

	_, writeErr := f.Write(p.Bytes)
	closeErr := f.Close()
	if writeErr != nil {
		return art, &PersistError{Path: art.Path, Err: writeErr}
	}
	if closeErr != nil {
		return art, &PersistError{Path: art.Path, Err: closeErr}
	}

	m.logger.Debug("temp artifact written", "path", art.Path, "bytes", len(p.Bytes))
	return art, nil
}

func (m *Manager) release(art types.TempArtifact) {
	if !art.Created {
		return
	}
	if err := m.fs.Remove(art.Path); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("failed to remove temp artifact", "path", art.Path, "error", err)
		return
	}
	m.logger.Debug("temp artifact removed", "path", art.Path)
}
