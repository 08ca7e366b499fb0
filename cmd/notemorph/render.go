// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/notemorph/internal/docx"
	"github.com/pdiddy/notemorph/internal/pipeline"
)

var renderCmd = &cobra.Command{
	Use:   "render <document.yaml|document.json>",
	Short: "Render a structured document to Word and HTML",
	Long: `Render reads a structured document, as printed by normalize or written
as a sidecar by process, and writes notes-<id>.docx plus the HTML preview.
No OCR or AI service is involved.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	previewOut, _ := cmd.Flags().GetString("preview-out")
	asJSON, _ := cmd.Flags().GetBool("json")

	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}

	res, err := pipeline.Render(cmd.Context(), docx.NewExporter(cfg.Export, logger), doc)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Wrote", res.DocxPath)

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	out, err := openOutput(previewOut)
	if err != nil {
		return fmt.Errorf("opening preview output: %w", err)
	}
	if _, err := fmt.Fprintln(out, res.PreviewHTML); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func init() {
	renderCmd.Flags().String("preview-out", "", "write the HTML preview to this file instead of stdout")
	renderCmd.Flags().Bool("json", false, "print the result as JSON")

	rootCmd.AddCommand(renderCmd)
}
