// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ports

import "github.com/ManuGH/playctl/internal/domain/playback/model"

// Delegate is the external consumer of a session's event stream.
// Deliver must not block for long and must not call back into the session.
type Delegate interface {
	Deliver(ev model.Event)
}

// DelegateFunc adapts a function to Delegate.
type DelegateFunc func(ev model.Event)

func (f DelegateFunc) Deliver(ev model.Event) { f(ev) }
