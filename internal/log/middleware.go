// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Middleware logs one line per HTTP request once the handler returns.
// Upgraded connections (websocket event streams) are logged when they close.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if pattern := rc.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			status := ww.Status()
			logger := WithComponentFromContext(r.Context(), "http")
			var ev *zerolog.Event
			switch {
			case status >= 500:
				ev = logger.Error()
			case status >= 400:
				ev = logger.Warn()
			default:
				ev = logger.Debug()
			}
			ev.Str(FieldEvent, "http.request").
				Str(FieldMethod, r.Method).
				Str(FieldPath, route).
				Int(FieldStatus, status).
				Int("bytes", ww.BytesWritten()).
				Int64(FieldLatency, time.Since(start).Milliseconds()).
				Msg("request handled")
		})
	}
}
