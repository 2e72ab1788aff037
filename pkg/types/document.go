// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the docrelay pipeline.
package types

import (
	"path/filepath"
	"strings"
)

// DocumentRef identifies a document to fetch from the collaborating service.
type DocumentRef struct {
	// Name is the logical filename, including its extension (e.g. "report.doc").
	Name string `json:"name" yaml:"name"`

	// URL is the remote locator. It may be an absolute http(s) URL or a
	// service-relative path such as "./oss/file/<id>".
	URL string `json:"url" yaml:"url"`
}

// FilePayload is the working state threaded through one pipeline run.
// Ext always mirrors the suffix of Name.
type FilePayload struct {
	Name  string
	Bytes []byte
	Ext   string
}

// NewPayload builds a payload whose extension is derived from name.
func NewPayload(name string, b []byte) FilePayload {
	return FilePayload{Name: name, Bytes: b, Ext: filepath.Ext(name)}
}

// BaseName returns Name without its extension.
func (p FilePayload) BaseName() string {
	return strings.TrimSuffix(p.Name, p.Ext)
}

// WithExt returns a payload with the same base name, the given extension and
// replacement bytes.
func (p FilePayload) WithExt(ext string, b []byte) FilePayload {
	return FilePayload{Name: p.BaseName() + ext, Bytes: b, Ext: ext}
}

// ConversionStage describes one remote conversion operation.
type ConversionStage struct {
	// ID addresses the conversion endpoint (e.g. "docx-to-pdf").
	ID string `json:"id" yaml:"id"`

	// Produces is the extension of the stage output (e.g. ".pdf").
	Produces string `json:"produces" yaml:"produces"`
}

// TempArtifact is a single on-disk temporary file.
type TempArtifact struct {
	Path    string
	Created bool
}

// UploadResult is the outcome of a successful upload.
type UploadResult struct {
	// RemoteID is the last path segment of the stored locator.
	RemoteID string `json:"file_id" yaml:"file_id"`

	// RemoteURL is the resolved, caller-facing URL.
	RemoteURL string `json:"url" yaml:"url"`

	// Locator is the raw "data" value returned by the storage endpoint.
	Locator string `json:"-" yaml:"-"`
}
