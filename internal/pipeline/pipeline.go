// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one document through download, conversion,
// temporary persistence and upload, and reports the outcome as data.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/pdiddy/docrelay/internal/acquire"
	"github.com/pdiddy/docrelay/internal/artifact"
	"github.com/pdiddy/docrelay/internal/convert"
	"github.com/pdiddy/docrelay/internal/history"
	"github.com/pdiddy/docrelay/internal/httputil"
	"github.com/pdiddy/docrelay/internal/upload"
	"github.com/pdiddy/docrelay/pkg/types"
)

// Downloader fetches source bytes.
type Downloader interface {
	Download(ctx context.Context, ref types.DocumentRef) ([]byte, error)
}

// StageRunner executes one conversion stage.
type StageRunner interface {
	Run(ctx context.Context, index int, stage types.ConversionStage, p types.FilePayload) (types.FilePayload, error)
}

// Uploader stores the final artifact.
type Uploader interface {
	Upload(ctx context.Context, name string, content io.Reader) (types.UploadResult, *upload.Failure)
}

// Recorder journals finished runs.
type Recorder interface {
	Record(ctx context.Context, r history.Record) error
}

// Pipeline wires the collaborators of a run. It holds no per-run state and
// is safe for concurrent use.
type Pipeline struct {
	downloader Downloader
	runner     StageRunner
	artifacts  *artifact.Manager
	uploader   Uploader
	recorder   Recorder
	logger     *slog.Logger
}

type options struct {
	sender   httputil.Sender
	fs       afero.Fs
	logger   *slog.Logger
	recorder Recorder
}

// Option customizes New.
type Option func(*options)

// WithSender replaces the default transport client.
func WithSender(s httputil.Sender) Option { return func(o *options) { o.sender = s } }

// WithFs replaces the OS filesystem used for temporary artifacts.
func WithFs(fs afero.Fs) Option { return func(o *options) { o.fs = fs } }

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithRecorder journals every run to r.
func WithRecorder(r Recorder) Option { return func(o *options) { o.recorder = r } }

// New builds a Pipeline from cfg.
func New(cfg types.Config, opts ...Option) (*Pipeline, error) {
	cfg = cfg.WithDefaults()
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sender == nil {
		o.sender = httputil.NewClient()
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base_url is required")
	}
	if strings.TrimSpace(cfg.Conversion.URL) == "" {
		return nil, fmt.Errorf("conversion.url is required")
	}
	resolver, err := upload.NewResolver(cfg.Upload.URLStyle, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		downloader: acquire.NewDownloader(o.sender, cfg.ServiceConfig, cfg.Download),
		runner:     convert.NewRunner(o.sender, cfg.Conversion),
		artifacts:  artifact.NewManager(o.fs, cfg.TempRoot, o.logger),
		uploader:   upload.NewUploader(o.sender, cfg.ServiceConfig, cfg.Upload, resolver),
		recorder:   o.recorder,
		logger:     o.logger,
	}, nil
}

// Run processes the first document in docs. It never returns a Go error;
// every failure is reported in the Result.
func (p *Pipeline) Run(ctx context.Context, docs []types.DocumentRef) Result {
	started := time.Now()
	r := &run{
		p:   p,
		res: Result{RunID: uuid.NewString(), State: StateFetching},
	}
	r.log = p.logger.With("run", r.res.RunID)

	var doc types.DocumentRef
	if len(docs) > 0 {
		doc = docs[0]
		r.log = r.log.With("document", doc.Name)
	}
	r.execute(ctx, docs)

	if p.recorder != nil {
		rec := history.Record{
			RunID:    r.res.RunID,
			Document: doc.Name,
			URL:      doc.URL,
			State:    string(r.res.State),
			Kind:     string(r.res.Kind),
			Message:  r.res.Summary(),
			Stages:   r.res.Stages,
			Pages:    r.res.Pages,
			Started:  started,
			Duration: time.Since(started),
		}
		if r.res.OK() && len(r.res.Entries) > 0 {
			rec.FileID = r.res.Entries[0].FileID
		}
		// The caller's context may already be done; the journal write is
		// independent of it.
		if err := p.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
			r.log.Warn("failed to record run", "error", err)
		}
	}
	return r.res
}

type run struct {
	p   *Pipeline
	res Result
	log *slog.Logger
}

func (r *run) enter(s State, args ...any) {
	r.res.State = s
	r.log.Info("pipeline state", append([]any{"state", s}, args...)...)
}

func (r *run) fail(kind Kind, msg string) {
	r.res.Kind = kind
	r.res.Message = msg
	r.res.State = StateFailed
	r.log.Error("pipeline failed", "kind", kind, "reason", msg)
}

func (r *run) execute(ctx context.Context, docs []types.DocumentRef) {
	r.enter(StateFetching)
	if len(docs) == 0 {
		r.fail(KindInput, ErrNoDocuments.Error())
		return
	}
	if len(docs) > 1 {
		r.log.Warn("only the first document is processed", "ignored", len(docs)-1)
	}
	doc := docs[0]
	if strings.TrimSpace(doc.Name) == "" {
		r.fail(KindInput, ErrMissingName.Error())
		return
	}
	if strings.TrimSpace(doc.URL) == "" {
		r.fail(KindInput, fmt.Sprintf("%v: %s", ErrMissingLocator, doc.Name))
		return
	}

	body, err := r.p.downloader.Download(ctx, doc)
	if err != nil {
		r.fail(KindDownload, downloadMessage(doc.Name, err))
		return
	}
	payload := types.NewPayload(doc.Name, body)

	stages := convert.Plan(payload.Ext)
	for i, stage := range stages {
		r.enter(StateConverting, "stage", fmt.Sprintf("%d/%d", i+1, len(stages)), "id", stage.ID)
		payload, err = r.p.runner.Run(ctx, i+1, stage, payload)
		if err != nil {
			r.fail(KindConversion, conversionMessage(stage.ID, err))
			return
		}
		r.res.Stages = append(r.res.Stages, stage.ID)
	}

	if strings.EqualFold(payload.Ext, convert.TargetExt) {
		if pages, err := convert.InspectPDF(payload.Bytes); err != nil {
			r.log.Warn("final artifact is not a readable PDF", "error", err)
		} else {
			r.res.Pages = pages
		}
	}

	r.enter(StatePersisting, "name", payload.Name, "bytes", len(payload.Bytes))
	entry, err := artifact.With(r.p.artifacts, payload, func(path string) (Entry, error) {
		return r.upload(ctx, payload.Name, path)
	})
	if err != nil {
		r.fail(KindPersistence, persistMessage(err))
		return
	}

	r.res.Entries = []Entry{entry}
	if entry.Status != statusSuccess {
		r.res.Kind = KindUpload
		r.res.State = StateFailed
		r.log.Error("pipeline failed", "kind", KindUpload, "reason", entry.ErrorMessage)
		return
	}
	r.enter(StateDone, "file_id", entry.FileID)
}

// upload runs inside the artifact scope and re-reads the persisted bytes.
func (r *run) upload(ctx context.Context, name, path string) (Entry, error) {
	r.enter(StateUploading, "path", path)

	f, err := r.p.artifacts.Open(path)
	if err != nil {
		return Entry{}, &artifact.PersistError{Path: path, Err: fmt.Errorf("reopening: %w", err)}
	}
	defer f.Close()

	res, fail := r.p.uploader.Upload(ctx, name, f)
	if fail != nil {
		return Entry{Name: name, Status: statusError, ErrorMessage: fail.Message}, nil
	}
	return Entry{Name: name, Status: statusSuccess, URL: res.RemoteURL, FileID: res.RemoteID}, nil
}

func downloadMessage(name string, err error) string {
	var se *acquire.StatusError
	if errors.As(err, &se) {
		return fmt.Sprintf("download failed: %s (status %d)", name, se.StatusCode)
	}
	return fmt.Sprintf("download failed: %s: %v", name, err)
}

func conversionMessage(stageID string, err error) string {
	var se *convert.StageError
	if errors.As(err, &se) {
		return se.Error()
	}
	return fmt.Sprintf("conversion failed [%s]: %s", stageID, httputil.Snippet(err.Error()))
}

func persistMessage(err error) string {
	var pe *artifact.PersistError
	if errors.As(err, &pe) {
		return pe.Error()
	}
	return "failed to persist temp artifact: " + err.Error()
}
