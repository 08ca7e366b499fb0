// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for the raw-HTTP service backends.
package httputil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// RetryMaxDelay caps a single wait, including waits requested by a
// Retry-After header.
var RetryMaxDelay = 30 * time.Second

const defaultMaxRetries = 3

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests). The wait honors a Retry-After header (seconds or HTTP date)
// and otherwise doubles from RetryBaseDelay on each attempt, capped at
// RetryMaxDelay.
//
// When maxRetries is 0 the default (3) is used. Requests with a body must
// be replayable through req.GetBody, which http.NewRequest sets for byte
// and string readers. If the context is cancelled during a backoff wait the
// function returns ctx.Err(). After exhausting retries the last 429
// response is returned so the caller can classify it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, log *slog.Logger) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		wait := backoff(attempt, resp.Header.Get("Retry-After"), time.Now())
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		log.Warn("rate limited, retrying", "url", req.URL.Host, "wait", wait, "attempt", attempt+1, "max", maxRetries)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// backoff returns the wait before retry attempt+1.
func backoff(attempt int, retryAfter string, now time.Time) time.Duration {
	if d, ok := parseRetryAfter(retryAfter, now); ok {
		return min(d, RetryMaxDelay)
	}
	d := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
	return min(d, RetryMaxDelay)
}

// parseRetryAfter reads a Retry-After value given in delay-seconds or as
// an HTTP date.
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
