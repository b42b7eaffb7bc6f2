// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

// PlaybackState is the engine-reported playback state.
type PlaybackState string

const (
	StateIdle      PlaybackState = "idle"
	StateBuffering PlaybackState = "buffering"
	StateReady     PlaybackState = "ready"
	StateEnded     PlaybackState = "ended"
)

// TimelineReason explains a timeline change.
type TimelineReason string

const (
	TimelinePlaylistChanged TimelineReason = "playlist_changed"
	TimelineSourceUpdate    TimelineReason = "source_update"
)

// VideoFormat is the decoded video format reported by the engine.
type VideoFormat struct {
	Width           int
	Height          int
	RotationDegrees int
}

// DisplaySize returns width and height as displayed, swapping for 90/270 rotation.
func (f VideoFormat) DisplaySize() (width, height int) {
	switch f.RotationDegrees {
	case 90, 270:
		return f.Height, f.Width
	}
	return f.Width, f.Height
}

// AdEventKind is an ad engine lifecycle signal.
type AdEventKind string

const (
	AdContentPauseRequested  AdEventKind = "content_pause_requested"
	AdContentResumeRequested AdEventKind = "content_resume_requested"
	AdLoaded                 AdEventKind = "loaded"
	AdStarted                AdEventKind = "started"
	AdCompleted              AdEventKind = "completed"
	AdAllCompleted           AdEventKind = "all_ads_completed"
)

// AdEvent is emitted by the ad engine.
type AdEvent struct {
	Kind AdEventKind
}
