// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docrelay/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent pipeline runs from the journal",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of runs to list")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Driver == "" {
		return fmt.Errorf("history is disabled: set history.driver and history.dsn")
	}
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := history.Open(cfg.History.Driver, cfg.History.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tDOCUMENT\tSTATE\tSTAGES\tDURATION\tDETAIL")
	for _, r := range records {
		detail := r.FileID
		if !r.OK() {
			detail = r.Kind + ": " + r.Message
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Started.Local().Format(time.DateTime), r.RunID, r.Document, r.State,
			strings.Join(r.Stages, ","), r.Duration.Round(time.Millisecond), detail)
	}
	return tw.Flush()
}
