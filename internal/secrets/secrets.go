// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the file contents (trimmed) are the value. Environment variables
// fill in keys that have no file.
//
// Supported key files: openai-api-key, anthropic-api-key.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/notemorph/pkg/types"
)

// Key file names and the environment variables that back them.
const (
	OpenAIKey    = "openai-api-key"
	AnthropicKey = "anthropic-api-key"
)

var envFallback = map[string]string{
	OpenAIKey:    "OPENAI_API_KEY",
	AnthropicKey: "ANTHROPIC_API_KEY",
}

// Store holds loaded secrets.
type Store struct {
	values map[string]string
	getenv func(string) string
}

// Load reads all files in dir. A missing directory is not an error; Load
// returns an empty store. Unreadable files are logged and skipped.
func Load(dir string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Store{values: map[string]string{}, getenv: os.Getenv}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", "name", name, "error", err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			s.values[name] = value
		}
	}
	return s, nil
}

// Get returns the secret called name, falling back to its environment
// variable. The empty string means the secret is not configured.
func (s *Store) Get(name string) string {
	if v, ok := s.values[name]; ok {
		return v
	}
	if env, ok := envFallback[name]; ok {
		return strings.TrimSpace(s.getenv(env))
	}
	return ""
}

// Names returns the secret names loaded from files.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	return names
}

// APIKeyFor returns the key for provider, or "" when the provider needs
// none or none is configured.
func (s *Store) APIKeyFor(provider types.AIProvider) string {
	switch provider {
	case types.ProviderOpenAI, "":
		return s.Get(OpenAIKey)
	case types.ProviderAnthropic:
		return s.Get(AnthropicKey)
	}
	return ""
}
