// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package v1 serves the player control API under /api/v1.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ManuGH/playctl/internal/domain/playback/session"
	"github.com/ManuGH/playctl/internal/log"
)

const maxBodyBytes = 64 << 10

// Server exposes a session registry over HTTP.
type Server struct {
	registry *session.Registry
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	pingInterval time.Duration
	writeTimeout time.Duration
}

// Option customizes a Server.
type Option func(*Server)

// WithPingInterval sets how often idle event streams are pinged.
func WithPingInterval(d time.Duration) Option {
	return func(s *Server) { s.pingInterval = d }
}

// WithCheckOrigin overrides the websocket origin policy.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) { s.upgrader.CheckOrigin = fn }
}

// NewServer returns a server for registry.
func NewServer(registry *session.Registry, opts ...Option) *Server {
	s := &Server{
		registry: registry,
		logger:   log.WithComponent("api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		pingInterval: 20 * time.Second,
		writeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the /api/v1 subtree.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/openapi.yaml", s.handleOpenAPI)
	r.Route("/players", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDispose)
			r.Post("/play", s.handlePlay)
			r.Post("/pause", s.handlePause)
			r.Put("/looping", s.handleLooping)
			r.Put("/volume", s.handleVolume)
			r.Put("/speed", s.handleSpeed)
			r.Post("/seek", s.handleSeek)
			r.Get("/position", s.handlePosition)
			r.Get("/events", s.handleEvents)
		})
	})
	return r
}

// decode reads a strict JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("request body contains trailing data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Warn().Err(err).Msg("failed to encode response")
	}
}
