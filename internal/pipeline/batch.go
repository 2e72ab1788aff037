// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/docrelay/pkg/types"
)

// Job is one batch entry. Either Documents is set, or Name and URL describe a
// single document.
type Job struct {
	Name      string              `yaml:"name,omitempty" json:"name,omitempty"`
	URL       string              `yaml:"url,omitempty" json:"url,omitempty"`
	Documents []types.DocumentRef `yaml:"documents,omitempty" json:"documents,omitempty"`
}

// Refs returns the document list passed to Run.
func (j Job) Refs() []types.DocumentRef {
	if len(j.Documents) > 0 {
		return j.Documents
	}
	if j.Name == "" && j.URL == "" {
		return nil
	}
	return []types.DocumentRef{{Name: j.Name, URL: j.URL}}
}

// Manifest lists batch jobs.
type Manifest struct {
	Jobs []Job `yaml:"jobs" json:"jobs"`
}

// LoadManifest decodes a YAML (or JSON) manifest.
func LoadManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		if err == io.EOF {
			return m, fmt.Errorf("manifest is empty")
		}
		return m, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(m.Jobs) == 0 {
		return m, fmt.Errorf("manifest has no jobs")
	}
	return m, nil
}

// LoadDocuments decodes a YAML (or JSON) list of document references.
func LoadDocuments(r io.Reader) ([]types.DocumentRef, error) {
	var docs []types.DocumentRef
	if err := yaml.NewDecoder(r).Decode(&docs); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parsing documents: %w", err)
	}
	return docs, nil
}

// BatchSummary holds counts from a batch run.
type BatchSummary struct {
	Succeeded int
	Failed    int
	Results   []Result
}

// Total returns the number of jobs processed.
func (s BatchSummary) Total() int {
	return s.Succeeded + s.Failed
}

// HasFailures reports whether any job failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Runner runs one pipeline.
type Runner interface {
	Run(ctx context.Context, docs []types.DocumentRef) Result
}

// RunBatch runs every job as an independent pipeline, at most concurrency at
// once. Progress lines go to w. Results keep manifest order.
func RunBatch(ctx context.Context, r Runner, jobs []Job, concurrency int, w io.Writer) BatchSummary {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]Result, len(jobs))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			res := r.Run(gctx, job.Refs())
			results[i] = res

			mu.Lock()
			defer mu.Unlock()
			if res.OK() {
				fmt.Fprintf(w, "converted %s -> %s\n", jobLabel(job), res.Entries[0].FileID)
			} else {
				fmt.Fprintf(w, "failed    %s: %s\n", jobLabel(job), res.Summary())
			}
			// Failed jobs never cancel their siblings.
			return nil
		})
	}
	_ = g.Wait()

	s := BatchSummary{Results: results}
	for _, res := range results {
		if res.OK() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d failed (total %d)\n", s.Succeeded, s.Failed, s.Total())
	return s
}

func jobLabel(j Job) string {
	refs := j.Refs()
	if len(refs) == 0 || refs[0].Name == "" {
		return "<unnamed>"
	}
	return refs[0].Name
}
