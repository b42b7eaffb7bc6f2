// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package v1

import (
	_ "embed"
	"net/http"
)

// OpenAPISpec is the contract of the routes served by Server.
//
//go:embed openapi.yaml
var OpenAPISpec []byte

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(OpenAPISpec); err != nil {
		s.logger.Debug().Err(err).Msg("failed to write openapi document")
	}
}
