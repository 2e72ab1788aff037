// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DefaultTempRoot is the well-known directory holding temporary artifacts.
const DefaultTempRoot = "/opt/maxkb-app/sandbox/python-packages/temp/"

// DefaultRetentionTag marks uploaded artifacts as temporary (120 minutes).
const DefaultRetentionTag = "TEMPORARY_120_MINUTE"

// URLStyle selects how an upload locator is turned into a caller-facing URL.
type URLStyle string

const (
	URLStyleVerbatim URLStyle = "verbatim"
	URLStyleAdmin    URLStyle = "admin"
)

// ServiceConfig holds settings for the collaborating document service that
// serves downloads and accepts uploads.
type ServiceConfig struct {
	// BaseURL is the service root (e.g. "http://democenter.example:8882").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Token is the bearer credential. Empty means no Authorization header.
	Token string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`
}

// DownloadConfig holds settings for the Fetching state.
type DownloadConfig struct {
	// Timeout bounds the download request (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Accept is the Accept header sent with the download (default application/json).
	Accept string `json:"accept" yaml:"accept" mapstructure:"accept"`
}

// ConversionConfig holds settings for the remote conversion service.
type ConversionConfig struct {
	// URL is the conversion service root; stages are addressed as
	// {URL}/convert/{stageID}.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// Timeout bounds each stage request (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// UploadConfig holds settings for the final artifact upload.
type UploadConfig struct {
	// Timeout bounds the upload request (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// RetentionTag is sent as both source_id and source_type.
	RetentionTag string `json:"retention_tag" yaml:"retention_tag" mapstructure:"retention_tag"`

	// URLStyle selects the locator resolution strategy: verbatim or admin.
	URLStyle URLStyle `json:"url_style" yaml:"url_style" mapstructure:"url_style"`
}

// HistoryConfig selects the optional run journal.
type HistoryConfig struct {
	// Driver is "sqlite3", "mysql", or empty to disable the journal.
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// DSN is the driver-specific data source name.
	DSN string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
}

// ServerConfig holds settings for the HTTP front end.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// BatchConfig holds settings for batch runs.
type BatchConfig struct {
	// Concurrency bounds the number of pipelines running at once (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// Config groups every setting docrelay reads from file, env, and flags.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Download   DownloadConfig   `json:"download" yaml:"download" mapstructure:"download"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Upload     UploadConfig     `json:"upload" yaml:"upload" mapstructure:"upload"`

	// TempRoot is the directory for temporary artifacts.
	TempRoot string `json:"temp_root" yaml:"temp_root" mapstructure:"temp_root"`

	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	Batch   BatchConfig   `json:"batch" yaml:"batch" mapstructure:"batch"`
}

// WithDefaults fills zero values with the documented defaults.
func (c Config) WithDefaults() Config {
	if c.Download.Timeout <= 0 {
		c.Download.Timeout = 30 * time.Second
	}
	if c.Download.Accept == "" {
		c.Download.Accept = "application/json"
	}
	if c.Conversion.Timeout <= 0 {
		c.Conversion.Timeout = 120 * time.Second
	}
	if c.Upload.Timeout <= 0 {
		c.Upload.Timeout = 60 * time.Second
	}
	if c.Upload.RetentionTag == "" {
		c.Upload.RetentionTag = DefaultRetentionTag
	}
	if c.Upload.URLStyle == "" {
		c.Upload.URLStyle = URLStyleVerbatim
	}
	if c.TempRoot == "" {
		c.TempRoot = DefaultTempRoot
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8090"
	}
	if c.Batch.Concurrency <= 0 {
		c.Batch.Concurrency = 4
	}
	return c
}
