// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package tracker derives initialized/buffering state from engine
// notifications and turns each notification into playback events.
package tracker

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
	"github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/metrics"
)

// Emitter receives the events produced by the tracker.
type Emitter interface {
	Emit(ev model.Event)
}

// Tracker serializes engine notifications for one session.
// It implements the engine listener contract.
type Tracker struct {
	mu     sync.Mutex
	state  State
	closed bool

	props   Properties
	emitter Emitter
	engine  string
	logger  zerolog.Logger
}

// New returns a tracker reading engine properties from props.
// engine names the engine implementation for metrics.
func New(props Properties, emitter Emitter, engine, sessionID string) *Tracker {
	return &Tracker{
		props:   props,
		emitter: emitter,
		engine:  engine,
		logger: log.WithComponent("tracker").With().
			Str(log.FieldSessionID, sessionID).Logger(),
	}
}

func (t *Tracker) OnPlaybackStateChanged(state model.PlaybackState) {
	t.Handle(Notification{Kind: NoteStateChanged, State: state})
}

func (t *Tracker) OnTimelineChanged(reason model.TimelineReason) {
	t.Handle(Notification{Kind: NoteTimelineChanged, Reason: reason})
}

func (t *Tracker) OnPlayerError(err error) {
	metrics.IncEngineError(t.engine)
	t.Handle(Notification{Kind: NotePlayerError, Err: err})
}

// Handle applies one notification. It is a no-op after Close.
func (t *Tracker) Handle(n Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	prev := t.state
	next, events := t.apply(n)
	t.state = next

	if prev != next {
		t.logger.Debug().
			Str(log.FieldEvent, "tracker.transition").
			Str("notification", string(n.Kind)).
			Str(log.FieldOldState, describe(prev)).
			Str(log.FieldNewState, describe(next)).
			Msg("playback state changed")
	}
	for _, ev := range events {
		t.emitter.Emit(ev)
	}
}

// apply runs Next, converting a panic raised while reading engine properties into an error notification.
func (t *Tracker) apply(n Notification) (next State, events []model.Event) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error().
				Str(log.FieldEvent, "tracker.property_panic").
				Interface("panic_value", r).
				Msg("engine property read panicked")
			next, events = Next(t.state, Notification{Kind: NotePlayerError, Err: fmt.Errorf("%v", r)}, t.props)
		}
	}()
	return Next(t.state, n, t.props)
}

// Close makes every later notification a no-op.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

// State returns a snapshot of the derived state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func describe(s State) string {
	return fmt.Sprintf("initialized=%t buffering=%t", s.Initialized, s.Buffering)
}
