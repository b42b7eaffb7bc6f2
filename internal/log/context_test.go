// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextIDs(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		id   string
	}{
		{name: "nil context", ctx: nil, id: "abc"},
		{name: "background context", ctx: context.Background(), id: "def"},
		{name: "empty id", ctx: context.Background(), id: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRequestID(tt.ctx, tt.id)
			if got := RequestIDFromContext(ctx); got != tt.id {
				t.Errorf("RequestIDFromContext() = %q, want %q", got, tt.id)
			}
			ctx = ContextWithSessionID(tt.ctx, tt.id)
			if got := SessionIDFromContext(ctx); got != tt.id {
				t.Errorf("SessionIDFromContext() = %q, want %q", got, tt.id)
			}
		})
	}
}

func TestWithContextAddsCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithSessionID(ctx, "sess-1")

	l := WithContext(ctx, base)
	l.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry[FieldRequestID] != "req-1" {
		t.Errorf("request_id = %v", entry[FieldRequestID])
	}
	if entry[FieldSessionID] != "sess-1" {
		t.Errorf("session_id = %v", entry[FieldSessionID])
	}
}

func TestWithContextWithoutFieldsReturnsSameLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	l := WithContext(context.Background(), base)
	l.Info().Msg("plain")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if _, ok := entry[FieldRequestID]; ok {
		t.Error("unexpected request_id field")
	}
}

func TestSetLevelRejectsUnknown(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel(debug): %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("global level = %v, want debug", zerolog.GlobalLevel())
	}
	if err := SetLevel("loud"); err == nil {
		t.Error("SetLevel(loud) should fail")
	}
}
