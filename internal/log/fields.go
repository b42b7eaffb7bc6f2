// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"
	FieldTextureID = "texture_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldEngine    = "engine"

	// Media fields
	FieldStreamType = "stream_type"
	FieldAdTag      = "ad_tag"
	FieldDuration   = "duration_ms"
	FieldPosition   = "position_ms"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// HTTP fields
	FieldMethod  = "method"
	FieldPath    = "path"
	FieldStatus  = "status"
	FieldLatency = "latency_ms"
)
