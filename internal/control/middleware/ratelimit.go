// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/ManuGH/playctl/internal/control/http/problem"
)

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	// RequestLimit is the maximum number of requests allowed in the window.
	RequestLimit int
	WindowSize   time.Duration
	// KeyFunc extracts the rate limit key; defaults to the client IP.
	KeyFunc func(r *http.Request) (string, error)
}

// RateLimit limits requests with httprate's sliding window counter.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}
	window := cfg.WindowSize
	if window <= 0 {
		window = time.Minute
	}

	return httprate.Limit(
		cfg.RequestLimit,
		window,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			problem.Write(w, r, http.StatusTooManyRequests, "system/rate_limited", "Too Many Requests",
				"RATE_LIMITED", "Too many requests. Please try again later.", nil)
		}),
	)
}
