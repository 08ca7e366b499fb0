// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/notemorph/internal/secrets"
	"github.com/pdiddy/notemorph/pkg/types"
)

// legacyEnv maps config keys to environment variables honored without the
// NOTEMORPH_ prefix.
var legacyEnv = map[string]string{
	"ai.model":          "OPENAI_MODEL_NOTES",
	"export.output_dir": "NOTES_OUTPUT_DIR",
}

// configureViper registers defaults and environment lookup on v. Keys
// nest with dots; NOTEMORPH_AI_MODEL overrides ai.model.
func configureViper(v *viper.Viper) {
	d := types.DefaultPipelineConfig()
	defaults := map[string]any{
		"ocr.backend":          string(d.OCR.Backend),
		"ocr.language":         d.OCR.Language,
		"ocr.image":            d.OCR.Image,
		"ocr.concurrency":      d.OCR.Concurrency,
		"ocr.max_images":       d.OCR.MaxImages,
		"ai.provider":          string(d.AI.Provider),
		"ai.model":             d.AI.Model,
		"ai.api_key":           "",
		"ai.base_url":          "",
		"ai.temperature":       d.AI.Temperature,
		"ai.max_retries":       d.AI.MaxRetries,
		"ai.timeout":           d.AI.Timeout,
		"export.output_dir":    d.Export.OutputDir,
		"export.write_sidecar": d.Export.WriteSidecar,
		"history.enabled":      d.History.Enabled,
		"history.db_path":      d.History.DBPath,
		"log.level":            d.Log.Level,
		"log.format":           d.Log.Format,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("NOTEMORPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range legacyEnv {
		prefixed := "NOTEMORPH_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		// BindEnv only fails without a key.
		_ = v.BindEnv(key, prefixed, env)
	}
}

// loadConfig resolves the pipeline configuration from v. When no API key
// is configured, the key for the selected provider comes from s.
func loadConfig(v *viper.Viper, s *secrets.Store) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}

	switch cfg.AI.Provider {
	case types.ProviderOpenAI, types.ProviderAnthropic, types.ProviderNone:
	default:
		return cfg, fmt.Errorf("unknown AI provider %q (want openai, anthropic, or none)", cfg.AI.Provider)
	}
	switch cfg.OCR.Backend {
	case types.OCRTesseract, types.OCRContainer:
	default:
		return cfg, fmt.Errorf("unknown OCR backend %q (want tesseract or container)", cfg.OCR.Backend)
	}

	if cfg.AI.APIKey == "" && s != nil {
		cfg.AI.APIKey = s.APIKeyFor(cfg.AI.Provider)
	}
	return cfg, nil
}

// logConfig reads the log settings alone, before secrets are available.
func logConfig(v *viper.Viper) types.LogConfig {
	return types.LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
}
