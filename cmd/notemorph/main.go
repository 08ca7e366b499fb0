// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the notemorph CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/notemorph/internal/logging"
	"github.com/pdiddy/notemorph/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// logger is configured from the log.* settings before any command runs.
	logger = logging.Discard()

	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets *secrets.Store
)

// rootCmd is the base command for the notemorph CLI.
var rootCmd = &cobra.Command{
	Use:   "notemorph",
	Short: "Turn photographed class notes into structured documents",
	Long: `notemorph reads images of handwritten or printed notes, recognizes their
text, and asks an AI service to organize it into a titled document with
sections, lists, and tables. The result is written as a Word document and
rendered as an HTML preview.

Without an AI key, or when the service reports a quota limit, the notes are
kept unstructured under a single fallback section.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(logConfig(viper.GetViper()), os.Stderr)
		if err != nil {
			return err
		}
		logger = log

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if names := s.Names(); len(names) > 0 {
			slices.Sort(names)
			logger.Debug("loaded secrets", "names", names)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./notemorph.yaml or ~/.config/notemorph/notemorph.yaml)")
	pf.String("secrets-dir", ".secrets", "directory of API key files")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")
	pf.String("provider", "", "AI provider: openai, anthropic, or none")
	pf.String("model", "", "AI model identifier")
	pf.String("output-dir", "", "directory for generated documents")

	bindFlag("log.level", "log-level")
	bindFlag("log.format", "log-format")
	bindFlag("ai.provider", "provider")
	bindFlag("ai.model", "model")
	bindFlag("export.output_dir", "output-dir")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func bindCommandFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() {
	// A missing .env file is the normal case.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("notemorph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "notemorph"))
		}
	}

	configureViper(viper.GetViper())

	var notFound viper.ConfigFileNotFoundError
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if !errors.As(err, &notFound) {
		fmt.Fprintln(os.Stderr, "Error reading config file:", err)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", strings.TrimSpace(err.Error()))
		stop()
		os.Exit(1)
	}
}
