// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ManuGH/playctl/internal/client"
	"github.com/ManuGH/playctl/internal/platform/httpx"
	"github.com/ManuGH/playctl/internal/version"
)

const defaultServer = "http://127.0.0.1:8088"

type rootOptions struct {
	server  string
	timeout time.Duration
}

func (o *rootOptions) client() (*client.Client, error) {
	return client.New(o.server, httpx.NewClient(o.timeout))
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "playctl",
		Short:         "Control video players hosted by playctld",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.String(),
	}

	server := os.Getenv("PLAYCTL_SERVER")
	if server == "" {
		server = defaultServer
	}
	root.PersistentFlags().StringVarP(&opts.server, "server", "s", server, "Base URL of the playctld daemon (env PLAYCTL_SERVER)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Per-request timeout")

	root.AddCommand(
		newOpenCommand(opts),
		newListCommand(opts),
		newStatusCommand(opts),
		newPlayCommand(opts),
		newPauseCommand(opts),
		newSeekCommand(opts),
		newVolumeCommand(opts),
		newSpeedCommand(opts),
		newLoopCommand(opts),
		newPositionCommand(opts),
		newDisposeCommand(opts),
		newWatchCommand(opts),
	)
	return root
}

// completePlayerIDs offers the ids of open players for the first argument.
func completePlayerIDs(opts *rootOptions) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		c, err := opts.client()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		players, err := c.List(cmd.Context())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return lo.Map(players, func(p v1Status, _ int) string { return p.ID }), cobra.ShellCompDirectiveNoFileComp
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
