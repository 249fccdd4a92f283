// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/auditverse-convert/internal/replay"
	"github.com/pdiddy/auditverse-convert/pkg/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check that a document is in the timeline format",
	Long: `Validate checks that a converted document has a current object and a
timeline with events and snapshots, that every event carries a date, a type,
and an id or relationship, and that events are in chronological order.

The file defaults to public/data/comprehensiveSampleData.json. Warnings are
printed but only errors make the command fail.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

// validateReport combines the format and timeline checks.
type validateReport struct {
	File     string                 `json:"file"`
	Format   replay.FormatResult    `json:"format"`
	Timeline *replay.TimelineReport `json:"timeline,omitempty"`
}

func (r validateReport) valid() bool {
	return r.Format.Valid && (r.Timeline == nil || r.Timeline.Valid)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := types.DefaultDataFile
	if len(args) > 0 {
		path = args[0]
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	report := validateReport{File: path, Format: replay.ValidateFormat(raw)}
	if report.Format.Valid {
		tl, err := replay.ValidateTimeline(raw)
		if err != nil {
			return err
		}
		report.Timeline = &tl
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printValidateReport(report)
	}

	if !report.valid() {
		return fmt.Errorf("%s is not a valid timeline document", path)
	}
	return nil
}

func printValidateReport(r validateReport) {
	for _, e := range r.Format.Errors {
		fmt.Printf("error   %s\n", e)
	}
	if r.Timeline != nil {
		for _, e := range r.Timeline.Errors {
			fmt.Printf("error   %s\n", e)
		}
		for _, w := range r.Timeline.Warnings {
			fmt.Printf("warning %s\n", w)
		}
		fmt.Printf("\n%s: %d events checked\n", r.File, r.Timeline.EventCount)
	}
	if r.valid() {
		fmt.Println("valid")
	} else {
		fmt.Println("invalid")
	}
}

func init() {
	validateCmd.Flags().Bool("json", false, "output the report as JSON")

	rootCmd.AddCommand(validateCmd)
}
