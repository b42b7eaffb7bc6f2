// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fsm provides a small generic finite state machine with
// explicit transition tables.
package fsm

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInvalidTransition is returned when no edge exists for (state, event).
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrConcurrentTransition is returned when another Fire moved the state first.
	ErrConcurrentTransition = errors.New("concurrent transition")
)

// Transition describes a single edge in the FSM.
// Guard may reject the transition; Action performs side-effects.
type Transition[S ~string, E ~string] struct {
	From   S
	Event  E
	To     S
	Guard  func(ctx context.Context, from S, event E) error
	Action func(ctx context.Context, from S, to S, event E) error
}

// Machine is a small, test-friendly FSM runner.
// Unknown transitions are errors.
type Machine[S ~string, E ~string] struct {
	mu    sync.Mutex
	state S
	index map[string]Transition[S, E]
}

func New[S ~string, E ~string](initial S, transitions []Transition[S, E]) (*Machine[S, E], error) {
	idx := make(map[string]Transition[S, E], len(transitions))
	for _, t := range transitions {
		k := key(t.From, t.Event)
		if _, exists := idx[k]; exists {
			return nil, fmt.Errorf("duplicate transition: %s -> %s", t.From, t.Event)
		}
		idx[k] = t
	}
	return &Machine[S, E]{state: initial, index: idx}, nil
}

// MustNew is New for static tables; it panics on a malformed table.
func MustNew[S ~string, E ~string](initial S, transitions []Transition[S, E]) *Machine[S, E] {
	m, err := New(initial, transitions)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Machine[S, E]) State() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Can reports whether event has an edge from the current state.
func (m *Machine[S, E]) Can(event E) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.index[key(m.state, event)]
	return ok
}

// Fire attempts to apply an event atomically.
func (m *Machine[S, E]) Fire(ctx context.Context, event E) (S, error) {
	m.mu.Lock()
	from := m.state
	t, ok := m.index[key(from, event)]
	if !ok {
		m.mu.Unlock()
		return from, fmt.Errorf("%w: state=%s event=%s", ErrInvalidTransition, from, event)
	}

	// Guard and Action run outside the critical section.
	to := t.To
	m.mu.Unlock()

	if t.Guard != nil {
		if err := t.Guard(ctx, from, event); err != nil {
			return from, err
		}
	}
	if t.Action != nil {
		if err := t.Action(ctx, from, to, event); err != nil {
			return from, err
		}
	}

	m.mu.Lock()
	if m.state != from {
		cur := m.state
		m.mu.Unlock()
		return cur, fmt.Errorf("%w: from=%s cur=%s event=%s", ErrConcurrentTransition, from, cur, event)
	}
	m.state = to
	m.mu.Unlock()

	return to, nil
}

func key[S ~string, E ~string](from S, event E) string {
	return string(from) + "|" + string(event)
}
