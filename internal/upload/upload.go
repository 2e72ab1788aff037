// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package upload sends the final artifact to the document service's object
// storage endpoint.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/docrelay/internal/httputil"
	"github.com/pdiddy/docrelay/pkg/types"
)

const (
	endpointPath   = "/admin/api/oss/file"
	defaultTimeout = 60 * time.Second
)

// Failure describes an upload that did not produce a stored locator. It is
// data, not a Go error: callers report it in a structured result.
type Failure struct {
	// StatusCode is zero when no HTTP response was received.
	StatusCode int
	Message    string
}

func (f *Failure) String() string { return f.Message }

// Uploader posts artifacts to {BaseURL}/admin/api/oss/file.
type Uploader struct {
	sender   httputil.Sender
	svc      types.ServiceConfig
	cfg      types.UploadConfig
	resolver Resolver
}

// NewUploader creates an Uploader. A nil resolver reports locators verbatim.
func NewUploader(s httputil.Sender, svc types.ServiceConfig, cfg types.UploadConfig, r Resolver) *Uploader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetentionTag == "" {
		cfg.RetentionTag = types.DefaultRetentionTag
	}
	if r == nil {
		r = VerbatimResolver{}
	}
	return &Uploader{sender: s, svc: svc, cfg: cfg, resolver: r}
}

// Upload streams content as multipart field "file" named name, tagged with the
// retention metadata in both source_id and source_type.
func (u *Uploader) Upload(ctx context.Context, name string, content io.Reader) (types.UploadResult, *Failure) {
	out := u.sender.Send(ctx, httputil.Request{
		Method: http.MethodPost,
		URL:    strings.TrimRight(u.svc.BaseURL, "/") + endpointPath,
		Kind:   httputil.BodyMultipart,
		Multipart: &httputil.Multipart{
			File: httputil.FilePart{Field: "file", FileName: name, Content: content},
			Fields: map[string]string{
				"source_id":   u.cfg.RetentionTag,
				"source_type": u.cfg.RetentionTag,
			},
		},
		Bearer:  u.svc.Token,
		Timeout: u.cfg.Timeout,
	})

	switch o := out.(type) {
	case httputil.Success:
		locator, ok := dataLocator(o.Payload, o.Body)
		if !ok {
			return types.UploadResult{}, &Failure{
				StatusCode: o.StatusCode,
				Message:    "upload response has no data locator: " + httputil.Snippet(o.Text),
			}
		}
		return types.UploadResult{
			RemoteID:  RemoteID(locator),
			RemoteURL: u.resolver.Resolve(locator),
			Locator:   locator,
		}, nil
	case httputil.HTTPError:
		return types.UploadResult{}, &Failure{
			StatusCode: o.StatusCode,
			Message:    fmt.Sprintf("upload failed (status %d): %s", o.StatusCode, httputil.Snippet(o.BodyText())),
		}
	default:
		return types.UploadResult{}, &Failure{Message: "upload failed: " + out.Message()}
	}
}

// dataLocator reads the "data" field. Replies that were not typed as JSON
// are parsed from the raw body.
func dataLocator(payload any, body []byte) (string, bool) {
	m, ok := payload.(map[string]any)
	if !ok {
		if err := json.Unmarshal(body, &m); err != nil || m == nil {
			return "", false
		}
	}
	s, ok := m["data"].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
