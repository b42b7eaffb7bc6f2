// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/playctl/internal/log"
)

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "PLAYCTL_"

// lookupEnv resolves key with parse and logs where the value came from.
// Empty and unparsable values fall back to the default.
func lookupEnv[T any](logger zerolog.Logger, key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok {
		logger.Debug().Str("key", key).Interface("default", def).Str("source", "default").Msg("using default value")
		return def
	}
	if raw == "" {
		logger.Debug().Str("key", key).Interface("default", def).Str("source", "default").
			Msg("using default value (environment variable is empty)")
		return def
	}
	v, err := parse(raw)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Str("value", raw).Interface("default", def).
			Msg("invalid environment variable, using default")
		return def
	}
	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if isSensitive(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Interface("value", v)
	}
	ev.Msg("using environment variable")
	return v
}

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "token") || strings.Contains(k, "password") || strings.Contains(k, "secret")
}

func envLogger() zerolog.Logger {
	return log.WithComponent("config")
}

// ParseString reads a string from the environment or returns defaultValue.
func ParseString(key, defaultValue string) string {
	return lookupEnv(envLogger(), key, defaultValue, func(s string) (string, error) { return s, nil })
}

// ParseInt reads an integer from the environment or returns defaultValue.
func ParseInt(key string, defaultValue int) int {
	return lookupEnv(envLogger(), key, defaultValue, strconv.Atoi)
}

// ParseDuration reads a Go duration (e.g. "5s") from the environment or returns defaultValue.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return lookupEnv(envLogger(), key, defaultValue, time.ParseDuration)
}

// ParseFloat reads a float64 from the environment or returns defaultValue.
func ParseFloat(key string, defaultValue float64) float64 {
	return lookupEnv(envLogger(), key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// ParseBool reads a boolean from the environment or returns defaultValue.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	return lookupEnv(envLogger(), key, defaultValue, func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return false, fmt.Errorf("not a boolean: %q", s)
	})
}

// ParseList reads a comma separated list from the environment or returns defaultValue.
func ParseList(key string, defaultValue []string) []string {
	return lookupEnv(envLogger(), key, defaultValue, func(s string) ([]string, error) {
		var out []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	})
}
