// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/json"
	"errors"
)

// State is a pipeline state-machine position.
type State string

const (
	StateFetching   State = "fetching"
	StateConverting State = "converting"
	StatePersisting State = "persisting"
	StateUploading  State = "uploading"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Kind classifies a failed run.
type Kind string

const (
	KindInput       Kind = "input"
	KindDownload    Kind = "download"
	KindConversion  Kind = "conversion"
	KindPersistence Kind = "persistence"
	KindUpload      Kind = "upload"
)

var (
	ErrNoDocuments    = errors.New("no documents supplied")
	ErrMissingName    = errors.New("document name is required")
	ErrMissingLocator = errors.New("document url is required")
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Entry is one element of a structured result.
type Entry struct {
	Name   string
	Status string
	// URL and FileID are set on success.
	URL    string
	FileID string
	// ErrorMessage is set on failure.
	ErrorMessage string
}

type successView struct {
	Name   string `json:"name" yaml:"name"`
	URL    string `json:"url" yaml:"url"`
	Status string `json:"status" yaml:"status"`
	FileID string `json:"file_id" yaml:"file_id"`
}

type errorView struct {
	Name         string  `json:"name" yaml:"name"`
	Data         *string `json:"data" yaml:"data"`
	Status       string  `json:"status" yaml:"status"`
	ErrorMessage string  `json:"error_message" yaml:"error_message"`
}

func (e Entry) view() any {
	if e.Status == statusSuccess {
		return successView{Name: e.Name, URL: e.URL, Status: e.Status, FileID: e.FileID}
	}
	return errorView{Name: e.Name, Status: e.Status, ErrorMessage: e.ErrorMessage}
}

// MarshalJSON emits {name,url,status,file_id} on success and
// {name,data:null,status,error_message} on failure.
func (e Entry) MarshalJSON() ([]byte, error) { return json.Marshal(e.view()) }

// MarshalYAML mirrors MarshalJSON.
func (e Entry) MarshalYAML() (any, error) { return e.view(), nil }

// Result is the outcome of one run. Exactly one of Entries and Message is
// meaningful: Entries once an upload was attempted, Message for early aborts.
type Result struct {
	Entries []Entry
	Message string

	// Kind is empty when the run reached Done.
	Kind   Kind
	State  State
	RunID  string
	Stages []string
	// Pages is the final PDF page count, zero when unknown.
	Pages int
}

// OK reports whether the run reached Done.
func (r Result) OK() bool { return r.Kind == "" && r.State == StateDone }

// Summary returns a one-line description suitable for logs and journals.
func (r Result) Summary() string {
	if r.Entries == nil {
		return r.Message
	}
	if len(r.Entries) > 0 && r.Entries[0].Status == statusError {
		return r.Entries[0].ErrorMessage
	}
	return ""
}

func (r Result) body() any {
	if r.Entries != nil {
		return r.Entries
	}
	return r.Message
}

// MarshalJSON emits the entries array or the message string.
func (r Result) MarshalJSON() ([]byte, error) { return json.Marshal(r.body()) }

// MarshalYAML mirrors MarshalJSON.
func (r Result) MarshalYAML() (any, error) { return r.body(), nil }
