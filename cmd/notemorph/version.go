// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/notemorph/internal/ocr"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of notemorph",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "notemorph %s (tesseract linked: %t)\n", version, ocr.Enabled)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
