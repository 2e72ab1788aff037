// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file is one secret: the filename is the key and the trimmed contents
// are the value. Dotfiles and subdirectories are ignored.
//
// Supported keys: docrelay-token.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

// TokenKey holds the bearer token for the document service.
const TokenKey = "docrelay-token"

// Store is a read-only set of loaded secrets.
type Store map[string]string

// Get returns the secret for key, or "" when absent.
func (s Store) Get(key string) string { return s[key] }

// Load reads every file in dir on fs. A missing directory is not an error and
// yields an empty Store. Unreadable files are logged and skipped.
func Load(fs afero.Fs, dir string) (Store, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Store)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := afero.ReadFile(fs, filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", "key", name, "error", err)
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			s[name] = v
		}
	}
	return s, nil
}

// Fallback returns current when set, otherwise the secret stored under key.
func (s Store) Fallback(current, key string) string {
	if strings.TrimSpace(current) != "" {
		return current
	}
	return s.Get(key)
}
