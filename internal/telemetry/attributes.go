// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Playback attributes
	PlaybackSessionIDKey  = "playback.session_id"
	PlaybackStreamTypeKey = "playback.stream_type"
	PlaybackAdBreakKey    = "playback.ad_break"
	PlaybackRemoteKey     = "playback.remote"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// PlaybackAttributes creates session-related span attributes. Empty values are skipped.
func PlaybackAttributes(sessionID, streamType string, remote, adBreak bool) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if sessionID != "" {
		attrs = append(attrs, attribute.String(PlaybackSessionIDKey, sessionID))
	}
	if streamType != "" {
		attrs = append(attrs, attribute.String(PlaybackStreamTypeKey, streamType))
	}
	attrs = append(attrs,
		attribute.Bool(PlaybackRemoteKey, remote),
		attribute.Bool(PlaybackAdBreakKey, adBreak),
	)
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
