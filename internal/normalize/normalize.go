// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns raw OCR text into a structured notes document
// through an external text-completion service.
//
// Quota and rate-limit failures, and a missing credential, degrade to a
// deterministic fallback document holding the raw text verbatim. Every
// other failure is returned as a *NormalizationError so callers can tell
// degraded output from no output.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pdiddy/notemorph/pkg/types"
)

// Backend abstracts the text-completion service so tests can supply a
// fake. Complete returns the service's raw JSON text for rawText.
type Backend interface {
	Name() string
	Complete(ctx context.Context, rawText string) (string, error)
}

// Degradation reasons reported in Outcome.Reason.
const (
	ReasonNoBackend = "no AI service configured"
	ReasonQuota     = "AI service quota or rate limit reached"
)

// Outcome describes how a document was produced.
type Outcome struct {
	// Degraded is true when the fallback document was returned.
	Degraded bool
	// Reason explains a degraded outcome.
	Reason string
	// Attempts is the number of service calls made.
	Attempts int
}

// backoffBase controls the base duration for exponential backoff between
// transient-failure retries. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// Normalizer produces StructuredDocuments from raw text.
type Normalizer struct {
	backend    Backend
	maxRetries int
	timeout    time.Duration
	log        *slog.Logger
}

// New builds a Normalizer for cfg. A provider of "none" or an empty API
// key yields a Normalizer that always degrades.
func New(cfg types.AIConfig, log *slog.Logger) (*Normalizer, error) {
	var backend Backend
	if cfg.APIKey != "" {
		switch cfg.Provider {
		case types.ProviderOpenAI, "":
			backend = NewOpenAIBackend(cfg)
		case types.ProviderAnthropic:
			backend = NewAnthropicBackend(cfg, log)
		case types.ProviderNone:
		default:
			return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
		}
	}
	return NewWithBackend(backend, cfg, log), nil
}

// NewWithBackend builds a Normalizer around backend, which may be nil.
// Only the retry and timeout settings of cfg are used.
func NewWithBackend(backend Backend, cfg types.AIConfig, log *slog.Logger) *Normalizer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Normalizer{
		backend:    backend,
		maxRetries: max(cfg.MaxRetries, 0),
		timeout:    cfg.Timeout,
		log:        log,
	}
}

// Degraded reports whether every call will return the fallback document.
func (n *Normalizer) Degraded() bool { return n.backend == nil }

// Normalize converts rawText to a StructuredDocument. It returns the
// fallback document with a degraded Outcome when no service is configured
// or the service reports a quota or rate limit. Other failures, including
// timeouts and unparsable output, return an error matching
// ErrNormalization. Transient failures are retried first.
func (n *Normalizer) Normalize(ctx context.Context, rawText string) (*types.StructuredDocument, Outcome, error) {
	if n.backend == nil {
		n.log.Warn("normalization degraded, using fallback document", "reason", ReasonNoBackend)
		return types.FallbackDocument(rawText), Outcome{Degraded: true, Reason: ReasonNoBackend}, nil
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	provider := n.backend.Name()
	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			n.log.Warn("retrying normalization", "provider", provider, "attempt", attempt, "wait", wait, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, Outcome{Attempts: attempts}, &NormalizationError{Provider: provider, Attempts: attempts, Err: ctx.Err()}
			case <-time.After(wait):
			}
		}

		attempts++
		text, err := n.backend.Complete(ctx, rawText)
		if err == nil {
			doc, perr := ParseResponse(text)
			if perr != nil {
				n.log.Debug("unparsable service response", "provider", provider, "response", text)
				return nil, Outcome{Attempts: attempts}, &NormalizationError{Provider: provider, Attempts: attempts, Err: perr}
			}
			n.log.Debug("notes normalized", "provider", provider, "sections", len(doc.Sections), "attempts", attempts)
			return doc, Outcome{Attempts: attempts}, nil
		}

		if IsQuota(err) {
			n.log.Warn("normalization degraded, using fallback document", "reason", ReasonQuota, "provider", provider, "error", err)
			return types.FallbackDocument(rawText), Outcome{Degraded: true, Reason: ReasonQuota, Attempts: attempts}, nil
		}

		// A cancelled or expired parent context wins over whatever the
		// backend reported.
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		lastErr = err
		if !isTransient(err) {
			break
		}
	}

	return nil, Outcome{Attempts: attempts}, &NormalizationError{Provider: provider, Attempts: attempts, Err: lastErr}
}
