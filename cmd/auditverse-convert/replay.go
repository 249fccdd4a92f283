// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/auditverse-convert/internal/replay"
	"github.com/pdiddy/auditverse-convert/pkg/types"
)

var replayCmd = &cobra.Command{
	Use:   "replay [file]",
	Short: "Print the state of a converted document at a point in time",
	Long: `Replay applies every timeline event dated on or before --at to the
document's current state and prints the result. Without --at the current
state is printed unchanged. A bare date includes events through the end of
that day.

The file defaults to public/data/comprehensiveSampleData.json.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	path := types.DefaultDataFile
	if len(args) > 0 {
		path = args[0]
	}
	atFlag, _ := cmd.Flags().GetString("at")
	format, _ := cmd.Flags().GetString("format")

	at, err := parseDateFlag("at", atFlag, true)
	if err != nil {
		return err
	}

	doc, _, err := replay.ReadDocument(path)
	if err != nil {
		return err
	}
	filter, err := replay.New(doc, logger)
	if err != nil {
		return err
	}
	state, err := filter.StateAt(at)
	if err != nil {
		return err
	}

	switch format {
	case "json", "":
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(replay.Plain(state)); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q: use json or yaml", format)
	}
}

func init() {
	replayCmd.Flags().String("at", "", "target date (YYYY-MM-DD or RFC 3339); empty prints the current state")
	replayCmd.Flags().String("format", "json", "output format: json or yaml")

	rootCmd.AddCommand(replayCmd)
}
