// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docrelay CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docrelay/internal/history"
	"github.com/pdiddy/docrelay/internal/pipeline"
	"github.com/pdiddy/docrelay/internal/secrets"
	"github.com/pdiddy/docrelay/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Store

// rootCmd is the base command for the docrelay CLI.
var rootCmd = &cobra.Command{
	Use:   "docrelay",
	Short: "Fetch, convert and re-upload documents as PDF",
	Long: `docrelay downloads a document from the document service, converts it to
PDF through the remote conversion service (.doc goes through docx first,
.docx converts directly, anything else passes through), stages the result in
a temporary file, uploads it back with a temporary retention tag and removes
the local file.

Subcommands: convert runs one document, batch runs a manifest, serve exposes
the pipeline over HTTP, request sends a single classified HTTP request, and
history lists journaled runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(os.Stderr, viper.GetString("log.format"), viper.GetString("log.level"))
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		s, err := secrets.Load(afero.NewOsFs(), secrets.DefaultDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			slog.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./docrelay.yaml or ~/.config/docrelay/docrelay.yaml)")
	pf.String("base-url", "", "document service base URL")
	pf.String("token", "", "bearer token for the document service (default: .secrets/docrelay-token)")
	pf.String("conversion-url", "", "conversion service base URL")
	pf.String("temp-root", types.DefaultTempRoot, "directory for temporary artifacts")
	pf.String("history-driver", "", "run journal driver: sqlite3, mysql, or empty to disable")
	pf.String("history-dsn", "", "run journal data source name")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("log-level", "info", "log level: debug, info, warn, error")

	for key, flag := range map[string]string{
		"base_url":       "base-url",
		"token":          "token",
		"conversion.url": "conversion-url",
		"temp_root":      "temp-root",
		"history.driver": "history-driver",
		"history.dsn":    "history-dsn",
		"log.format":     "log-format",
		"log.level":      "log-level",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}

	setDefaults()
}

// setDefaults registers every config key so env overrides reach Unmarshal.
func setDefaults() {
	d := types.Config{}.WithDefaults()
	viper.SetDefault("download.timeout", d.Download.Timeout)
	viper.SetDefault("download.accept", d.Download.Accept)
	viper.SetDefault("conversion.timeout", d.Conversion.Timeout)
	viper.SetDefault("upload.timeout", d.Upload.Timeout)
	viper.SetDefault("upload.retention_tag", d.Upload.RetentionTag)
	viper.SetDefault("upload.url_style", string(d.Upload.URLStyle))
	viper.SetDefault("server.addr", d.Server.Addr)
	viper.SetDefault("batch.concurrency", d.Batch.Concurrency)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docrelay")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docrelay"))
		}
	}

	viper.SetEnvPrefix("DOCRELAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes viper state into a Config with defaults applied. The
// token falls back to the secrets directory.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Token = loadedSecrets.Fallback(cfg.Token, secrets.TokenKey)
	return cfg.WithDefaults(), nil
}

// newPipeline builds a pipeline from cfg, journaling to the configured
// history store. The returned func releases the store.
func newPipeline(cfg types.Config) (*pipeline.Pipeline, *history.Store, func(), error) {
	opts := []pipeline.Option{pipeline.WithLogger(slog.Default())}

	var store *history.Store
	cleanup := func() {}
	if cfg.History.Driver != "" {
		s, err := history.Open(cfg.History.Driver, cfg.History.DSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening history: %w", err)
		}
		store = s
		cleanup = func() { s.Close() }
		opts = append(opts, pipeline.WithRecorder(s))
	}

	p, err := pipeline.New(cfg, opts...)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return p, store, cleanup, nil
}

func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (want text or json)", format)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
