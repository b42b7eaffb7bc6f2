// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
	"github.com/ManuGH/playctl/internal/log"
)

// Watch streams a player's events to fn until ctx is done, the player is
// disposed, or fn returns an error. Event kinds this client does not know
// are skipped.
func (c *Client) Watch(ctx context.Context, id string, fn func(model.Event) error) error {
	target := strings.Replace(c.endpoint(id, "events"), "http", "ws", 1)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			return &Error{Status: resp.StatusCode, Title: resp.Status, Code: "HANDSHAKE_FAILED"}
		}
		return fmt.Errorf("dial events: %w", err)
	}
	defer func() { _ = conn.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	logger := log.WithComponent("client.watch")
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}
		ev, ok, err := model.ParseEvent(data)
		if err != nil {
			return err
		}
		if !ok {
			logger.Debug().Str("raw", string(data)).Msg("skipping unknown event")
			continue
		}
		if err := fn(ev); err != nil {
			if errors.Is(err, ErrStopWatching) {
				return nil
			}
			return err
		}
	}
}

// ErrStopWatching ends Watch without error when returned from the callback.
var ErrStopWatching = errors.New("stop watching")
