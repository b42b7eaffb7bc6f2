// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManuGH/playctl/internal/client"
	"github.com/ManuGH/playctl/internal/domain/playback/model"
)

// clientAPI is the subset of the API client the player commands use.
type clientAPI interface {
	Get(ctx context.Context, id string) (v1Status, error)
	Play(ctx context.Context, id string) error
	Pause(ctx context.Context, id string) error
	Seek(ctx context.Context, id string, ms int64) error
	SetVolume(ctx context.Context, id string, v float64) error
	SetSpeed(ctx context.Context, id string, v float64) error
	SetLooping(ctx context.Context, id string, on bool) error
	Position(ctx context.Context, id string) (int64, error)
	Dispose(ctx context.Context, id string) error
	Watch(ctx context.Context, id string, fn func(model.Event) error) error
}

var _ clientAPI = (*client.Client)(nil)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var until string
	cmd := playerCommand(opts, "watch <id>", "Stream a player's events as JSON lines", 0, func(cmd *cobra.Command, c clientAPI, id string, _ []string) error {
		out := json.NewEncoder(cmd.OutOrStdout())
		return c.Watch(cmd.Context(), id, func(ev model.Event) error {
			if err := out.Encode(ev); err != nil {
				return fmt.Errorf("write event: %w", err)
			}
			if until != "" && string(ev.Kind) == until {
				return client.ErrStopWatching
			}
			return nil
		})
	})
	cmd.Flags().StringVar(&until, "until", "", "Exit after the first event of this kind (e.g. completed)")
	return cmd
}
