// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// AIProvider identifies the text-structuring service used by normalization.
type AIProvider string

const (
	ProviderOpenAI    AIProvider = "openai"
	ProviderAnthropic AIProvider = "anthropic"
	// ProviderNone disables the external service; every run is degraded.
	ProviderNone AIProvider = "none"
)

// AIConfig holds settings for the normalization stage.
type AIConfig struct {
	// Provider selects the service: openai, anthropic, or none.
	Provider AIProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key. An empty key puts normalization in
	// degraded mode.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the service endpoint (OpenAI-compatible gateways,
	// tests).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Temperature is the sampling temperature (default 0.2).
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// MaxRetries is the number of retries for transient failures (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Timeout bounds a single normalization call, retries included.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// OCRBackend identifies the OCR engine.
type OCRBackend string

const (
	// OCRTesseract uses the linked Tesseract library (build tag "ocr").
	OCRTesseract OCRBackend = "tesseract"
	// OCRContainer runs Tesseract inside a docker or podman container.
	OCRContainer OCRBackend = "container"
)

// OCRConfig holds settings for the OCR stage.
type OCRConfig struct {
	// Backend selects the OCR engine: tesseract or container.
	Backend OCRBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Language is the Tesseract language string (default "spa+eng").
	Language string `json:"language" yaml:"language" mapstructure:"language"`

	// Image is the container image used by the container backend.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// Concurrency is the number of pages recognized in parallel (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// MaxImages caps the number of images per run (default 10).
	MaxImages int `json:"max_images" yaml:"max_images" mapstructure:"max_images"`
}

// ExportConfig holds settings for document-file output.
type ExportConfig struct {
	// OutputDir is where generated documents are written (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// WriteSidecar also writes the structured document as YAML next to the
	// generated document file.
	WriteSidecar bool `json:"write_sidecar" yaml:"write_sidecar" mapstructure:"write_sidecar"`
}

// HistoryConfig holds settings for the run history store.
type HistoryConfig struct {
	// Enabled turns run recording on.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// DBPath is the SQLite database file (default "output/history.db").
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json (default text).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	OCR     OCRConfig     `json:"ocr" yaml:"ocr" mapstructure:"ocr"`
	AI      AIConfig      `json:"ai" yaml:"ai" mapstructure:"ai"`
	Export  ExportConfig  `json:"export" yaml:"export" mapstructure:"export"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultPipelineConfig returns the configuration used when no file, flag,
// or environment variable overrides a value.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		OCR: OCRConfig{
			Backend:     OCRTesseract,
			Language:    "spa+eng",
			Image:       "tesseractshadow/tesseract4re:latest",
			Concurrency: 1,
			MaxImages:   10,
		},
		AI: AIConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxRetries:  2,
			Timeout:     2 * time.Minute,
		},
		Export: ExportConfig{
			OutputDir: "output",
		},
		History: HistoryConfig{
			Enabled: true,
			DBPath:  "output/history.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
