// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package texture allocates render surfaces with process-unique ids.
package texture

import (
	"errors"
	"sync"

	"github.com/ManuGH/playctl/internal/domain/playback/ports"
)

// ErrReleased is returned when a surface is released twice.
var ErrReleased = errors.New("surface already released")

// Registry hands out surfaces and tracks the live ones.
type Registry struct {
	mu   sync.Mutex
	next int64
	live map[int64]*Surface
}

func NewRegistry() *Registry {
	return &Registry{live: make(map[int64]*Surface)}
}

// CreateSurface implements ports.SurfaceProvider.
func (r *Registry) CreateSurface() (ports.Surface, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	s := &Surface{id: r.next, owner: r}
	r.live[s.id] = s
	return s, nil
}

// Live returns the number of unreleased surfaces.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

func (r *Registry) release(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.live[id]; !ok {
		return ErrReleased
	}
	delete(r.live, id)
	return nil
}

// Surface is a texture entry owned by a Registry.
type Surface struct {
	id    int64
	owner *Registry
}

func (s *Surface) ID() int64 { return s.id }

func (s *Surface) Release() error {
	return s.owner.release(s.id)
}
