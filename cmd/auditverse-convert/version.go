// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/auditverse-convert/pkg/types"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of auditverse-convert",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("auditverse-convert %s (format %s)\n", version, types.FormatVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
