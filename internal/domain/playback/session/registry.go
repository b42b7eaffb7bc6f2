// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
	"github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/metrics"
	"github.com/ManuGH/playctl/internal/telemetry"
)

const tracerName = "playctl/session"

type entry struct {
	s   *Session
	seq uint64
}

// Registry is the host-side table of open sessions.
type Registry struct {
	deps Deps

	maxSessions int

	mu       sync.RWMutex
	sessions map[string]entry
	seq      uint64
	closed   bool
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithMaxSessions caps concurrently open sessions; n <= 0 means unlimited.
func WithMaxSessions(n int) RegistryOption {
	return func(r *Registry) { r.maxSessions = n }
}

var (
	// ErrRegistryClosed is returned by Open after DisposeAll.
	ErrRegistryClosed = errors.New("session registry closed")
	// ErrTooManySessions is returned by Open when the session cap is reached.
	ErrTooManySessions = errors.New("too many open sessions")
)

func NewRegistry(deps Deps, opts ...RegistryOption) *Registry {
	r := &Registry{deps: deps, sessions: make(map[string]entry)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open creates and registers a new session.
func (r *Registry) Open(ctx context.Context, opts Options) (*Session, error) {
	id := uuid.NewString()
	ctx = log.ContextWithSessionID(ctx, id)
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "session.open")
	defer span.End()

	logger := log.WithComponentFromContext(ctx, "registry")

	r.mu.RLock()
	closed, full := r.closed, r.maxSessions > 0 && len(r.sessions) >= r.maxSessions
	r.mu.RUnlock()
	if closed {
		return nil, ErrRegistryClosed
	}
	if full {
		metrics.SessionOpenFailed("capacity")
		span.SetStatus(codes.Error, "capacity")
		return nil, ErrTooManySessions
	}

	s, err := Open(ctx, id, r.deps, opts)
	if err != nil {
		reason := openFailureReason(err)
		metrics.SessionOpenFailed(reason)
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		span.SetAttributes(telemetry.ErrorAttributes(reason)...)
		logger.Warn().Err(err).Str(log.FieldEvent, "registry.open_failed").Str("reason", reason).Msg("session open rejected")
		return nil, err
	}
	desc := s.Source()
	span.SetAttributes(telemetry.PlaybackAttributes(id, string(desc.Type), desc.Remote, desc.AdBreak != nil)...)

	r.mu.Lock()
	if r.closed || (r.maxSessions > 0 && len(r.sessions) >= r.maxSessions) {
		err := ErrRegistryClosed
		if !r.closed {
			err = ErrTooManySessions
		}
		r.mu.Unlock()
		_ = s.Dispose()
		return nil, err
	}
	r.seq++
	r.sessions[id] = entry{s: s, seq: r.seq}
	r.mu.Unlock()

	metrics.SessionOpened()
	return s, nil
}

func openFailureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrUnsupportedSource):
		return "unsupported_source"
	case errors.Is(err, model.ErrOverlayUnavailable):
		return "overlay_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "engine"
	}
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return e.s, nil
}

// List returns the open sessions in opening order.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	entries := make([]entry, 0, len(r.sessions))
	for _, e := range r.sessions {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]*Session, len(entries))
	for i, e := range entries {
		out[i] = e.s
	}
	return out
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Dispose removes and disposes one session.
func (r *Registry) Dispose(ctx context.Context, id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return model.ErrSessionNotFound
	}
	return r.dispose(ctx, e.s)
}

func (r *Registry) dispose(ctx context.Context, s *Session) error {
	_, span := telemetry.Tracer(tracerName).Start(ctx, "session.dispose")
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.PlaybackSessionIDKey, s.ID()))

	err := s.Dispose()
	metrics.SessionDisposed()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispose")
	}
	return err
}

// DisposeAll disposes every session and rejects later opens.
func (r *Registry) DisposeAll(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[string]entry)
	r.mu.Unlock()

	var errs []error
	for _, e := range sessions {
		if err := r.dispose(ctx, e.s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
