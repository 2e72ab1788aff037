// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docrelay/pkg/types"
)

type countingRunner struct {
	inFlight, peak atomic.Int32
}

func (c *countingRunner) Run(_ context.Context, docs []types.DocumentRef) Result {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)

	if len(docs) == 0 || strings.HasPrefix(docs[0].Name, "bad") {
		return Result{State: StateFailed, Kind: KindDownload, Message: "download failed"}
	}
	return Result{State: StateDone, Entries: []Entry{{Name: docs[0].Name, Status: statusSuccess, FileID: "id-" + docs[0].Name}}}
}

func TestRunBatch(t *testing.T) {
	jobs := []Job{
		{Name: "a.pdf", URL: "u1"},
		{Name: "bad.doc", URL: "u2"},
		{Documents: []types.DocumentRef{{Name: "c.docx", URL: "u3"}}},
		{Name: "d.pdf", URL: "u4"},
		{Name: "e.pdf", URL: "u5"},
	}
	r := &countingRunner{}
	var out bytes.Buffer

	s := RunBatch(context.Background(), r, jobs, 2, &out)

	assert.Equal(t, 4, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.True(t, s.HasFailures())
	require.Len(t, s.Results, 5)
	assert.Equal(t, "id-c.docx", s.Results[2].Entries[0].FileID)
	assert.LessOrEqual(t, r.peak.Load(), int32(2))
	assert.Contains(t, out.String(), "failed    bad.doc: download failed")
	assert.Contains(t, out.String(), "Batch summary: 4 converted, 1 failed (total 5)")
}

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest(strings.NewReader(`
jobs:
  - name: a.doc
    url: ./oss/file/1
  - documents:
      - name: b.docx
        url: ./oss/file/2
`))
	require.NoError(t, err)
	require.Len(t, m.Jobs, 2)
	assert.Equal(t, []types.DocumentRef{{Name: "a.doc", URL: "./oss/file/1"}}, m.Jobs[0].Refs())
	assert.Equal(t, "b.docx", m.Jobs[1].Refs()[0].Name)

	_, err = LoadManifest(strings.NewReader(""))
	assert.ErrorContains(t, err, "empty")

	_, err = LoadManifest(strings.NewReader("jobs: []"))
	assert.ErrorContains(t, err, "no jobs")
}

func TestLoadDocuments_JSON(t *testing.T) {
	docs, err := LoadDocuments(strings.NewReader(`[{"name":"a.doc","url":"./oss/file/1"}]`))
	require.NoError(t, err)
	assert.Equal(t, []types.DocumentRef{{Name: "a.doc", URL: "./oss/file/1"}}, docs)
}

func TestJob_RefsEmpty(t *testing.T) {
	assert.Nil(t, Job{}.Refs())
}
