// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <text-file>",
	Short: "Structure already recognized text and print it as YAML",
	Long: `Normalize sends raw note text (use - for stdin) to the AI service and
prints the structured document as YAML. The output can be edited and
passed to render.`,
	Args: cobra.ExactArgs(1),
	RunE: runNormalize,
}

func runNormalize(cmd *cobra.Command, args []string) error {
	outPath, _ := cmd.Flags().GetString("out")

	var (
		raw []byte
		err error
	)
	if args[0] == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading notes text: %w", err)
	}

	cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}
	n, err := newNormalizer(cfg)
	if err != nil {
		return err
	}

	doc, outcome, err := n.Normalize(cmd.Context(), string(raw))
	if err != nil {
		return err
	}
	if outcome.Degraded {
		fmt.Fprintf(os.Stderr, "warning: %s, notes kept unstructured\n", outcome.Reason)
	}

	out, err := openOutput(outPath)
	if err != nil {
		return fmt.Errorf("opening output: %w", err)
	}
	if err := writeDocumentYAML(out, doc); err != nil {
		out.Close()
		return fmt.Errorf("writing document: %w", err)
	}
	return out.Close()
}

func init() {
	normalizeCmd.Flags().String("out", "", "write the YAML document to this file instead of stdout")

	rootCmd.AddCommand(normalizeCmd)
}
