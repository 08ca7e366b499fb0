// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/notemorph/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent processing runs",
	Long: `History lists the most recent process runs from the local history
database, newest first, including failed and degraded runs.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if asJSON {
		if runs == nil {
			runs = []history.Run{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tIMAGES\tSECTIONS\tSTATUS\tDOCUMENT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.ImageCount, r.SectionCount,
			runStatus(r), r.DocxFileName)
	}
	return tw.Flush()
}

func runStatus(r history.Run) string {
	switch {
	case r.Failed():
		return "failed: " + r.Error
	case r.Degraded:
		return "degraded"
	}
	return "ok"
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().Bool("json", false, "print runs as JSON")

	rootCmd.AddCommand(historyCmd)
}
