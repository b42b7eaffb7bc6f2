// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ManuGH/playctl/internal/platform/httpx"
)

// runHealthcheckCLI checks a local daemon; used as a container HEALTHCHECK.
func runHealthcheckCLI(args []string) int {
	fs := flag.NewFlagSet("healthcheck", flag.ExitOnError)
	mode := fs.String("mode", "ready", "healthcheck mode: ready (default) or live")
	port := fs.Int("port", 8088, "API port to check")
	timeout := fs.Duration("timeout", 5*time.Second, "check timeout")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing healthcheck flags: %v\n", err)
		return 1
	}

	path := "/healthz"
	if *mode == "ready" {
		path = "/readyz"
	}

	url := fmt.Sprintf("http://localhost:%d%s", *port, path)
	resp, err := httpx.NewClient(*timeout).Get(url) //nolint:noctx // bounded by client timeout
	if err != nil {
		fmt.Fprintf(os.Stderr, "Healthcheck failed (network): %v\n", err)
		return 1
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Healthcheck failed (status): %s\n", resp.Status)
		return 1
	}

	fmt.Printf("Healthcheck successful (%s)\n", *mode)
	return 0
}
