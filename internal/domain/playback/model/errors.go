// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import "errors"

var (
	// ErrUnsupportedSource is returned when no protocol handler matches a source.
	ErrUnsupportedSource = errors.New("unsupported source")
	// ErrOverlayUnavailable is returned when no ad overlay could be obtained.
	ErrOverlayUnavailable = errors.New("ad overlay unavailable")
	// ErrDisposed is returned by commands issued after disposal.
	ErrDisposed = errors.New("player disposed")
	// ErrInvalidSpeed is returned for non-positive or non-finite playback speeds.
	ErrInvalidSpeed = errors.New("invalid playback speed")
	// ErrSessionNotFound is returned by the registry for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
)
