// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/playctl/internal/control/http/problem"
	"github.com/ManuGH/playctl/internal/telemetry"
)

// untraced are health endpoints that would drown real traffic in spans.
var untraced = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// Tracing starts a server span per request, continuing inbound W3C trace context.
func Tracing(tracerName string) func(http.Handler) http.Handler {
	tracer := telemetry.Tracer(tracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if untraced[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			// Query values never reach spans.
			urlLabel := r.URL.Path
			if r.URL.RawQuery != "" {
				urlLabel += "?"
			}

			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// The route is only known once chi has matched it.
			route := routePattern(r)
			status := ww.Status()
			span.SetName(r.Method + " " + route)
			attrs := telemetry.HTTPAttributes(r.Method, route, urlLabel, status)
			if reqID := ww.Header().Get(problem.HeaderRequestID); reqID != "" {
				attrs = append(attrs, attribute.String("http.request_id", reqID))
			}
			span.SetAttributes(attrs...)

			if status >= 500 {
				span.SetStatus(codes.Error, http.StatusText(status))
			} else {
				span.SetStatus(codes.Ok, "")
			}
		})
	}
}
