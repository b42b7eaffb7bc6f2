// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"github.com/ManuGH/playctl/internal/fsm"
)

// Phase is the lifecycle phase of a session.
type Phase string

// LifecycleEvent drives Phase transitions.
type LifecycleEvent string

const (
	PhaseOpen      Phase = "open"
	PhaseDisposing Phase = "disposing"
	PhaseDisposed  Phase = "disposed"

	EvDispose  LifecycleEvent = "dispose"
	EvReleased LifecycleEvent = "released"
)

// lifecycleTable is the complete set of legal transitions. Dispose from any
// phase other than open has no edge, which makes repeated disposal a no-op.
var lifecycleTable = []fsm.Transition[Phase, LifecycleEvent]{
	{From: PhaseOpen, Event: EvDispose, To: PhaseDisposing},
	{From: PhaseDisposing, Event: EvReleased, To: PhaseDisposed},
}

func newLifecycle() *fsm.Machine[Phase, LifecycleEvent] {
	return fsm.MustNew(PhaseOpen, lifecycleTable)
}
