// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/docrelay/internal/httputil"
	"github.com/pdiddy/docrelay/pkg/types"
)

// DefaultStageTimeout bounds one conversion request. Conversion is CPU-bound
// on the remote side.
const DefaultStageTimeout = 120 * time.Second

// StageError reports that a named stage rejected its input.
type StageError struct {
	StageID string
	// StatusCode is set when the service answered with a non-2xx status.
	StatusCode int
	Detail     string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("conversion failed [%s]: %s", e.StageID, e.Detail)
}

// Runner executes conversion stages against the remote service.
type Runner struct {
	sender  httputil.Sender
	baseURL string
	timeout time.Duration
}

// NewRunner creates a Runner for the conversion service described by cfg.
func NewRunner(s httputil.Sender, cfg types.ConversionConfig) *Runner {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultStageTimeout
	}
	return &Runner{sender: s, baseURL: cfg.URL, timeout: timeout}
}

// TransientName is the filename sent for stage index (1-based). It keeps the
// base name and current extension so stages stay traceable in service logs.
func TransientName(p types.FilePayload, index int) string {
	return fmt.Sprintf("%s_%d%s", p.BaseName(), index, p.Ext)
}

// Run sends p to the stage endpoint. On success the returned payload keeps
// the base name and takes the stage's extension. Any other outcome is a
// *StageError.
func (r *Runner) Run(ctx context.Context, index int, stage types.ConversionStage, p types.FilePayload) (types.FilePayload, error) {
	endpoint, err := url.JoinPath(r.baseURL, "convert", stage.ID)
	if err != nil {
		return p, &StageError{StageID: stage.ID, Detail: fmt.Sprintf("building endpoint: %v", err)}
	}

	out := r.sender.Send(ctx, httputil.Request{
		Method: http.MethodPost,
		URL:    endpoint,
		Kind:   httputil.BodyMultipart,
		Multipart: &httputil.Multipart{
			File: httputil.FilePart{
				Field:    "file",
				FileName: TransientName(p, index),
				Content:  bytes.NewReader(p.Bytes),
			},
		},
		Timeout: r.timeout,
	})

	switch o := out.(type) {
	case httputil.Success:
		return p.WithExt(stage.Produces, o.Body), nil
	case httputil.HTTPError:
		return p, &StageError{
			StageID:    stage.ID,
			StatusCode: o.StatusCode,
			Detail:     httputil.Snippet(o.BodyText()),
		}
	default:
		return p, &StageError{StageID: stage.ID, Detail: out.Message()}
	}
}
