// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docrelay/internal/httputil"
	"github.com/pdiddy/docrelay/pkg/types"
)

func TestDownload_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/admin/oss/file/abc", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("docx-bytes"))
	}))
	defer ts.Close()

	d := NewDownloader(httputil.NewClient(), types.ServiceConfig{BaseURL: ts.URL, Token: "user-token"}, types.DownloadConfig{})
	b, err := d.Download(context.Background(), types.DocumentRef{Name: "a.docx", URL: "./oss/file/abc"})

	require.NoError(t, err)
	assert.Equal(t, "docx-bytes", string(b))
}

func TestDownload_NoTokenNoAuthorization(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
	}))
	defer ts.Close()

	d := NewDownloader(httputil.NewClient(), types.ServiceConfig{BaseURL: ts.URL}, types.DownloadConfig{})
	_, err := d.Download(context.Background(), types.DocumentRef{Name: "a.docx", URL: "/oss/file/abc"})
	assert.NoError(t, err)
}

func TestDownload_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "no such file")
	}))
	defer ts.Close()

	d := NewDownloader(httputil.NewClient(), types.ServiceConfig{BaseURL: ts.URL}, types.DownloadConfig{})
	_, err := d.Download(context.Background(), types.DocumentRef{Name: "a.docx", URL: "./oss/file/x"})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "no such file", se.Body)
}

func TestDownload_TimeoutIsFetchError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	d := NewDownloader(httputil.NewClient(), types.ServiceConfig{BaseURL: ts.URL}, types.DownloadConfig{Timeout: 20 * time.Millisecond})
	_, err := d.Download(context.Background(), types.DocumentRef{Name: "a.docx", URL: "./oss/file/x"})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, httputil.KindTimeout, fe.Outcome.Kind())
}
