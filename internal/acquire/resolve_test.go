// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"./oss/file/019956ba-4e9d", "/oss/file/019956ba-4e9d"},
		{"/oss/file/abc", "/oss/file/abc"},
		{"oss/file/abc", "/oss/file/abc"},
		{"  ./oss/file/abc  ", "/oss/file/abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePath(tt.in), "NormalizePath(%q)", tt.in)
	}
}

func TestDownloadURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		locator string
		want    string
		wantErr bool
	}{
		{"relative locator", "http://svc:8882", "./oss/file/abc", "http://svc:8882/admin/oss/file/abc", false},
		{"trailing slash on base", "http://svc:8882/", "./oss/file/abc", "http://svc:8882/admin/oss/file/abc", false},
		{"absolute locator kept", "http://svc", "https://cdn.example.com/a.docx", "https://cdn.example.com/a.docx", false},
		{"empty locator", "http://svc", "", "", true},
		{"relative without base", "", "./oss/file/abc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DownloadURL(tt.base, tt.locator)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
