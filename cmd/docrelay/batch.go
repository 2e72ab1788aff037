// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docrelay/internal/pipeline"
)

var batchCmd = &cobra.Command{
	Use:   "batch <manifest.yaml>",
	Short: "Run every job of a manifest as an independent pipeline",
	Long: `Batch reads a YAML or JSON manifest of jobs and runs each one as its own
pipeline, bounded by --concurrency. A failed job never stops the others.

Manifest format:

  jobs:
    - name: report.doc
      url: ./oss/file/0199...
    - documents:
        - name: notes.docx
          url: ./oss/file/0200...`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().Int("concurrency", 0, "maximum pipelines running at once (default 4)")
	_ = viper.BindPFlag("batch.concurrency", batchCmd.Flags().Lookup("concurrency"))

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening manifest: %w", err)
	}
	manifest, err := pipeline.LoadManifest(f)
	f.Close()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, _, cleanup, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary := pipeline.RunBatch(ctx, p, manifest.Jobs, cfg.Batch.Concurrency, cmd.OutOrStdout())
	if summary.HasFailures() {
		return fmt.Errorf("%d job(s) failed", summary.Failed)
	}
	return nil
}
