// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/playctl/internal/config"
	"github.com/ManuGH/playctl/internal/version"
)

func runConfigCLI(args []string) int {
	return configCLI(args, os.Stdout, os.Stderr)
}

func configCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  playctld config validate [--file|-f playctl.yaml]")
	fmt.Fprintln(w, "  playctld config dump [--file|-f playctl.yaml] [--format=yaml|json]")
}

func loadForCLI(fs *flag.FlagSet, args []string, stderr io.Writer) (config.AppConfig, string, int) {
	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return config.AppConfig{}, "", 2
	}

	path := strings.TrimSpace(file)
	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", displayPath(path), err)
		return config.AppConfig{}, path, 1
	}
	return cfg, path, 0
}

func displayPath(path string) string {
	if path == "" {
		return "environment"
	}
	return path
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("playctld config validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	_, path, code := loadForCLI(fs, args, stderr)
	if code != 0 {
		return code
	}
	fmt.Fprintf(stdout, "%s is valid\n", displayPath(path))
	return 0
}

func runConfigDump(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("playctld config dump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "yaml", "output format: yaml or json")

	cfg, _, code := loadForCLI(fs, args, stderr)
	if code != 0 {
		return code
	}

	switch strings.ToLower(strings.TrimSpace(*format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode YAML: %v\n", err)
			return 1
		}
		_ = enc.Close()
		return 0
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(stderr, "Unsupported format: %s (use yaml or json)\n", *format)
		return 2
	}
}
