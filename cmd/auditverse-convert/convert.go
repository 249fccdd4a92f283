// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/auditverse-convert/internal/convert"
	"github.com/pdiddy/auditverse-convert/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the sample data file to the timeline format",
	Long: `Convert reads public/data/comprehensiveSampleData.json in the old format,
backs it up to comprehensiveSampleData.json.backup, synthesizes a timeline of
risk, control, audit, issue, and incident events plus quarterly snapshots,
and overwrites the data file with the new format.

Paths are relative to the working directory and are not configurable.`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	_, err := convert.Run(types.DefaultConvertConfig(), logger, os.Stdout)
	return err
}

func init() {
	rootCmd.Args = cobra.NoArgs
	rootCmd.AddCommand(convertCmd)
}
