// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ports

import (
	"context"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
)

// AdEngine inserts ad breaks into playback of the engine it is bound to.
type AdEngine interface {
	// SetPlayer binds the ad engine to a playback engine; nil unbinds.
	SetPlayer(e Engine)
	Release()
}

// AdEventListener receives ad lifecycle signals.
type AdEventListener interface {
	OnAdEvent(ev model.AdEvent)
}

// AdEngineFactory constructs an ad engine for one ad tag.
type AdEngineFactory interface {
	NewAdEngine(ctx context.Context, tagURI string, l AdEventListener) (AdEngine, error)
}

// Overlay is the host-side view hosting ad UI.
type Overlay interface {
	ID() int64
}

// OverlayRegistrant looks up, creates and registers ad overlays by view identity.
type OverlayRegistrant interface {
	FetchOverlay(id int64) (Overlay, bool)
	CreateOverlay(id int64) (Overlay, error)
	RegisterOverlay(id int64, o Overlay) error
	// UnregisterOverlay drops the overlay for id. Unknown ids are ignored.
	UnregisterOverlay(id int64)
}
