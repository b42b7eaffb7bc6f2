// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package problem renders RFC 7807 problem documents.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/playctl/internal/log"
)

const (
	// HeaderRequestID carries the request correlation id.
	HeaderRequestID = "X-Request-ID"
	// JSONKeyRequestID is the problem document key for the request id.
	JSONKeyRequestID = "requestId"
)

// Write writes an RFC 7807 problem details response.
//
// Semantics:
//   - type: Canonical machine identifier (e.g. "players/not_found").
//   - title: Human-readable short label (e.g. "Not Found").
//   - code: Stable machine-readable short code (e.g. "NOT_FOUND").
//   - detail: Human-readable explanation of the specific error.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string, extra map[string]any) {
	instance := ""
	reqID := ""
	if r != nil {
		instance = r.URL.EscapedPath()
		reqID = log.RequestIDFromContext(r.Context())
	}
	if reqID == "" {
		reqID = w.Header().Get(HeaderRequestID)
	}

	res := map[string]any{
		"type":   problemType,
		"title":  title,
		"status": status,
		"code":   code,
	}
	if reqID != "" {
		res[JSONKeyRequestID] = reqID
		w.Header().Set(HeaderRequestID, reqID)
	}
	if detail != "" {
		res["detail"] = detail
	}
	if instance != "" {
		res["instance"] = instance
	}

	for k, v := range extra {
		switch k {
		case "type", "title", "status", "detail", "instance", "code", JSONKeyRequestID:
			log.L().Warn().Str("key", k).Str("problem_type", problemType).Msg("ignoring reserved key in problem extras")
			continue
		}
		res[k] = v
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.L().Error().
			Err(err).
			Str("type", problemType).
			Int("status", status).
			Msg("failed to encode problem response")
	}
}
