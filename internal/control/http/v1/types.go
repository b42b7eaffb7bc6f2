// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package v1

import "time"

// CreatePlayerRequest opens a player.
type CreatePlayerRequest struct {
	URI           string            `json:"uri"`
	FormatHint    string            `json:"formatHint,omitempty"`
	HTTPHeaders   map[string]string `json:"httpHeaders,omitempty"`
	AdTag         string            `json:"adTag,omitempty"`
	MixWithOthers bool              `json:"mixWithOthers,omitempty"`
}

// CreatePlayerResponse identifies a new player.
type CreatePlayerResponse struct {
	ID         string `json:"id"`
	TextureID  int64  `json:"textureId"`
	StreamType string `json:"streamType"`
}

// PlayerStatus is a point-in-time view of a player.
type PlayerStatus struct {
	ID          string    `json:"id"`
	TextureID   int64     `json:"textureId"`
	StreamType  string    `json:"streamType"`
	URI         string    `json:"uri"`
	OpenedAt    time.Time `json:"openedAt"`
	Phase       string    `json:"phase"`
	Initialized bool      `json:"initialized"`
	Buffering   bool      `json:"buffering"`
	AdActive    bool      `json:"adActive"`
	Position    int64     `json:"position"`
	Duration    int64     `json:"duration"`
	Listening   bool      `json:"listening"`
}

// PlayerList is the response of the list endpoint, ordered by open time.
type PlayerList struct {
	Players []PlayerStatus `json:"players"`
}

// BoolValue is the body of boolean setters.
type BoolValue struct {
	Value *bool `json:"value"`
}

// FloatValue is the body of numeric setters.
type FloatValue struct {
	Value *float64 `json:"value"`
}

// SeekRequest moves the playhead, in milliseconds.
type SeekRequest struct {
	Position *int64 `json:"position"`
}

// PositionResponse reports the playhead, in milliseconds.
type PositionResponse struct {
	Position int64 `json:"position"`
}
