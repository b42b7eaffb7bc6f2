// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package overlay keeps the ad overlay views registered per player view.
package overlay

import (
	"fmt"
	"sync"

	"github.com/ManuGH/playctl/internal/domain/playback/ports"
)

// View is a headless overlay view.
type View struct {
	id int64
}

func (v *View) ID() int64 { return v.id }

// Registry is an in-memory ports.OverlayRegistrant.
type Registry struct {
	mu    sync.Mutex
	views map[int64]ports.Overlay
	limit int
}

// NewRegistry returns a registry holding at most limit views (0 = unlimited).
func NewRegistry(limit int) *Registry {
	return &Registry{views: make(map[int64]ports.Overlay), limit: limit}
}

func (r *Registry) FetchOverlay(id int64) (ports.Overlay, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.views[id]
	return o, ok
}

func (r *Registry) CreateOverlay(id int64) (ports.Overlay, error) {
	return &View{id: id}, nil
}

func (r *Registry) RegisterOverlay(id int64, o ports.Overlay) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.views[id]; !exists && r.limit > 0 && len(r.views) >= r.limit {
		return fmt.Errorf("overlay registry full (%d views)", r.limit)
	}
	r.views[id] = o
	return nil
}

func (r *Registry) UnregisterOverlay(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.views, id)
}

// Len returns the number of registered views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
