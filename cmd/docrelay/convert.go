// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docrelay/internal/pipeline"
	"github.com/pdiddy/docrelay/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert one document to PDF and upload it",
	Long: `Convert downloads a document, converts it to PDF, uploads the result and
prints the structured result. Pass the document with --name and --url, or a
YAML/JSON list with --documents. Only the first document is processed.`,
	RunE: runConvert,
}

func init() {
	addConvertFlags(convertCmd)
	rootCmd.AddCommand(convertCmd)
}

func addConvertFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "document file name including extension (e.g. report.doc)")
	cmd.Flags().String("url", "", "document locator (absolute URL or ./oss/file/<id>)")
	cmd.Flags().String("documents", "", "YAML or JSON file with a list of {name, url}")
	cmd.Flags().StringP("output", "o", "json", "output format: json or yaml")
}

func runConvert(cmd *cobra.Command, args []string) error {
	docs, err := documentsFromFlags(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")

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

	res := p.Run(ctx, docs)
	if err := writeOutput(cmd.OutOrStdout(), output, res); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("%s error: %s", res.Kind, res.Summary())
	}
	return nil
}

func documentsFromFlags(cmd *cobra.Command) ([]types.DocumentRef, error) {
	if path, _ := cmd.Flags().GetString("documents"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening documents file: %w", err)
		}
		defer f.Close()
		return pipeline.LoadDocuments(f)
	}

	name, _ := cmd.Flags().GetString("name")
	url, _ := cmd.Flags().GetString("url")
	if name == "" && url == "" {
		// An empty list is reported by the pipeline as an input error.
		return nil, nil
	}
	return []types.DocumentRef{{Name: name, URL: url}}, nil
}
