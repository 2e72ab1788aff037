// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		dirs  []string
		want  Store
	}{
		{
			name:  "reads key files and trims whitespace",
			files: map[string]string{TokenKey: "  tok_abc123  \n", "other-key": "ct"},
			want:  Store{TokenKey: "tok_abc123", "other-key": "ct"},
		},
		{
			name:  "skips dotfiles, directories and blank files",
			files: map[string]string{".gitkeep": "", "blank": " \n", TokenKey: "t"},
			dirs:  []string{"nested"},
			want:  Store{TokenKey: "t"},
		},
		{
			name: "empty directory",
			want: Store{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, fs.MkdirAll(DefaultDir, 0o755))
			for name, content := range tt.files {
				require.NoError(t, afero.WriteFile(fs, filepath.Join(DefaultDir, name), []byte(content), 0o600))
			}
			for _, d := range tt.dirs {
				require.NoError(t, fs.MkdirAll(filepath.Join(DefaultDir, d), 0o755))
			}

			got, err := Load(fs, DefaultDir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_MissingDirectory(t *testing.T) {
	got, err := Load(afero.NewMemMapFs(), "nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoad_UnreadableFileSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, TokenKey), []byte("value123"), 0o600))
	bad := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(bad, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(bad, 0o644) })

	got, err := Load(afero.NewOsFs(), dir)
	require.NoError(t, err)
	assert.Equal(t, "value123", got.Get(TokenKey))
	assert.Empty(t, got.Get("bad-key"))
}

func TestFallback(t *testing.T) {
	s := Store{TokenKey: "from-file"}
	assert.Equal(t, "from-flag", s.Fallback("from-flag", TokenKey))
	assert.Equal(t, "from-file", s.Fallback("  ", TokenKey))
	assert.Empty(t, s.Fallback("", "missing"))
}
