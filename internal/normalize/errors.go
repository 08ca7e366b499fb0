// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrNormalization matches every hard normalization failure via errors.Is.
var ErrNormalization = errors.New("normalization failed")

// ErrEmptyResponse reports a completion with no text.
var ErrEmptyResponse = errors.New("service returned an empty response")

// NormalizationError is a hard failure: the service was reachable in
// principle but produced no usable document. It is never returned for
// quota-class failures, which degrade instead.
type NormalizationError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalizing notes with %s (%d attempts): %v", e.Provider, e.Attempts, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNormalization) hold for any NormalizationError.
func (e *NormalizationError) Is(target error) bool { return target == ErrNormalization }

// ServiceError is an error response from a text-completion service.
type ServiceError struct {
	Provider   string
	StatusCode int
	// Code is the provider's error code or type, e.g. "insufficient_quota"
	// or "rate_limit_error".
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s API returned %d (%s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.StatusCode, e.Message)
}

var quotaCodes = map[string]bool{
	"insufficient_quota":  true,
	"rate_limit_exceeded": true,
	"rate_limit_error":    true,
}

// IsQuota reports whether err is a quota or rate-limit failure, the only
// class that degrades to the fallback document.
func IsQuota(err error) bool {
	var se *ServiceError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusTooManyRequests || quotaCodes[se.Code]
}

// isTransient reports whether err is worth retrying: server-side errors
// and network failures. Context errors never are.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == http.StatusRequestTimeout
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
