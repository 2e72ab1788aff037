// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads source documents from the document service.
package acquire

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/docrelay/internal/httputil"
	"github.com/pdiddy/docrelay/pkg/types"
)

const (
	defaultTimeout = 30 * time.Second
	defaultAccept  = "application/json"
)

// StatusError reports a non-2xx download response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// FetchError reports a download that never produced a response.
type FetchError struct {
	Outcome httputil.Outcome
}

func (e *FetchError) Error() string {
	return e.Outcome.Message()
}

// Downloader fetches document bytes.
type Downloader struct {
	sender  httputil.Sender
	svc     types.ServiceConfig
	timeout time.Duration
	accept  string
}

// NewDownloader creates a Downloader for the service in svc.
func NewDownloader(s httputil.Sender, svc types.ServiceConfig, cfg types.DownloadConfig) *Downloader {
	d := &Downloader{sender: s, svc: svc, timeout: cfg.Timeout, accept: cfg.Accept}
	if d.timeout <= 0 {
		d.timeout = defaultTimeout
	}
	if d.accept == "" {
		d.accept = defaultAccept
	}
	return d
}

// Download fetches the bytes behind ref. It returns *StatusError for non-2xx
// responses and *FetchError for timeouts and transport failures.
func (d *Downloader) Download(ctx context.Context, ref types.DocumentRef) ([]byte, error) {
	target, err := DownloadURL(d.svc.BaseURL, ref.URL)
	if err != nil {
		return nil, err
	}

	out := d.sender.Send(ctx, httputil.Request{
		Method:  http.MethodGet,
		URL:     target,
		Headers: map[string]string{"Accept": d.accept},
		Bearer:  d.svc.Token,
		Timeout: d.timeout,
	})

	switch o := out.(type) {
	case httputil.Success:
		return o.Body, nil
	case httputil.HTTPError:
		return nil, &StatusError{StatusCode: o.StatusCode, Body: httputil.Snippet(o.BodyText())}
	default:
		return nil, &FetchError{Outcome: out}
	}
}
