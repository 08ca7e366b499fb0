// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process <images...>",
	Short: "Turn note images into a Word document and an HTML preview",
	Long: `Process recognizes the text of each image in the order given, organizes
it into sections, lists, and tables, and writes notes-<id>.docx to the
output directory. The HTML preview goes to stdout unless --preview-out is
set; --json prints the full result instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	previewOut, _ := cmd.Flags().GetString("preview-out")
	asJSON, _ := cmd.Flags().GetBool("json")

	p, cleanup, err := newPipeline(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := p.ProcessImages(cmd.Context(), args)
	if err != nil {
		return err
	}

	if res.Degraded {
		fmt.Fprintln(os.Stderr, "warning: AI service unavailable, notes kept unstructured")
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
	processCmd.Flags().String("preview-out", "", "write the HTML preview to this file instead of stdout")
	processCmd.Flags().Bool("json", false, "print the result as JSON")
	processCmd.Flags().String("ocr-backend", "", "OCR engine: tesseract or container")
	processCmd.Flags().String("lang", "", "Tesseract language string, e.g. spa+eng")
	processCmd.Flags().Int("concurrency", 0, "pages recognized in parallel")

	bindCommandFlag(processCmd, "ocr.backend", "ocr-backend")
	bindCommandFlag(processCmd, "ocr.language", "lang")
	bindCommandFlag(processCmd, "ocr.concurrency", "concurrency")

	rootCmd.AddCommand(processCmd)
}
