// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	v1 "github.com/ManuGH/playctl/internal/control/http/v1"
)

type v1Status = v1.PlayerStatus

func newOpenCommand(opts *rootOptions) *cobra.Command {
	var (
		req     v1.CreatePlayerRequest
		headers []string
	)
	cmd := &cobra.Command{
		Use:   "open <uri>",
		Short: "Open a player for a media URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.URI = args[0]
			if len(headers) > 0 {
				req.HTTPHeaders = make(map[string]string, len(headers))
				for _, h := range headers {
					k, v, ok := strings.Cut(h, "=")
					if !ok || k == "" {
						return fmt.Errorf("invalid header %q, want key=value", h)
					}
					req.HTTPHeaders[k] = v
				}
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			resp, err := c.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&req.FormatHint, "format", "", "Stream type hint: ss, dash, hls or other")
	lo.Must0(cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"ss", "dash", "hls", "other"}, cobra.ShellCompDirectiveNoFileComp
	}))
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "HTTP request header key=value (repeatable)")
	cmd.Flags().StringVar(&req.AdTag, "ad-tag", "", "VAST ad tag URL")
	cmd.Flags().BoolVar(&req.MixWithOthers, "mix", false, "Mix audio with other players")
	return cmd
}

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List open players",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			players, err := c.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tPHASE\tPOSITION\tDURATION\tURI")
			for _, p := range players {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", p.ID, p.StreamType, p.Phase, p.Position, p.Duration, p.URI)
			}
			return tw.Flush()
		},
	}
}

// playerCommand builds a command taking a player id plus extra positional args.
func playerCommand(opts *rootOptions, use, short string, nargs int, run func(cmd *cobra.Command, c clientAPI, id string, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:               use,
		Short:             short,
		Args:              cobra.ExactArgs(1 + nargs),
		ValidArgsFunction: completePlayerIDs(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			return run(cmd, c, args[0], args[1:])
		},
	}
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return playerCommand(opts, "status <id>", "Show a player's status", 0, func(cmd *cobra.Command, c clientAPI, id string, _ []string) error {
		st, err := c.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), st)
	})
}

func newPlayCommand(opts *rootOptions) *cobra.Command {
	return playerCommand(opts, "play <id>", "Start or resume playback", 0, func(cmd *cobra.Command, c clientAPI, id string, _ []string) error {
		return c.Play(cmd.Context(), id)
	})
}

func newPauseCommand(opts *rootOptions) *cobra.Command {
	return playerCommand(opts, "pause <id>", "Pause playback", 0, func(cmd *cobra.Command, c clientAPI, id string, _ []string) error {
		return c.Pause(cmd.Context(), id)
	})
}

func newSeekCommand(opts *rootOptions) *cobra.Command {
	return playerCommand(opts, "seek <id> <ms>", "Move the playhead to a position in milliseconds", 1, func(cmd *cobra.Command, c clientAPI, id string, args []string) error {
		ms, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid position %q: %w", args[0], err)
		}
		return c.Seek(cmd.Context(), id, ms)
	})
}

func newVolumeCommand(opts *rootOptions) *cobra.Command {
	return playerCommand(opts, "volume <id> <0..1>", "Set the output volume", 1, func(cmd *cobra.Command, c clientAPI, id string, args []string) error {
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid volume %q: %w", args[0], err)
		}
		return c.SetVolume(cmd.Context(), id, v)
	})
}

func newSpeedCommand(opts *rootOptions) *cobra.Command {
	return playerCommand(opts, "speed <id> <rate>", "Set the playback speed", 1, func(cmd *cobra.Command, c clientAPI, id string, args []string) error {
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid speed %q: %w", args[0], err)
		}
		return c.SetSpeed(cmd.Context(), id, v)
	})
}

func newLoopCommand(opts *rootOptions) *cobra.Command {
	return playerCommand(opts, "loop <id> <on|off>", "Enable or disable looping", 1, func(cmd *cobra.Command, c clientAPI, id string, args []string) error {
		var on bool
		switch strings.ToLower(args[0]) {
		case "on", "true", "1":
			on = true
		case "off", "false", "0":
		default:
			return fmt.Errorf("invalid loop value %q, want on or off", args[0])
		}
		return c.SetLooping(cmd.Context(), id, on)
	})
}

func newPositionCommand(opts *rootOptions) *cobra.Command {
	return playerCommand(opts, "position <id>", "Print the playhead in milliseconds", 0, func(cmd *cobra.Command, c clientAPI, id string, _ []string) error {
		pos, err := c.Position(cmd.Context(), id)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), pos)
		return err
	})
}

func newDisposeCommand(opts *rootOptions) *cobra.Command {
	cmd := playerCommand(opts, "dispose <id>", "Release a player", 0, func(cmd *cobra.Command, c clientAPI, id string, _ []string) error {
		return c.Dispose(cmd.Context(), id)
	})
	cmd.Aliases = []string{"rm"}
	return cmd
}
