// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ManuGH/playctl/internal/config"
	"github.com/ManuGH/playctl/internal/log"
)

// PerformStartupChecks validates the environment before the server starts.
func PerformStartupChecks(_ context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Str(log.FieldEngine, cfg.Engine.Kind).Msg("running pre-flight startup checks")

	if cfg.Engine.Kind == config.EngineMPV {
		path, err := exec.LookPath(cfg.Engine.MPV.Binary)
		if err != nil {
			return fmt.Errorf("mpv binary %q not found: %w", cfg.Engine.MPV.Binary, err)
		}
		logger.Info().Str("path", path).Msg("mpv binary found")

		dir := cfg.Engine.MPV.SocketDir
		if dir == "" {
			dir = os.TempDir()
		}
		if err := checkWritableDir(dir); err != nil {
			return fmt.Errorf("mpv socket dir: %w", err)
		}
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkWritableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	testFile := filepath.Join(path, ".playctl_write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)
	return nil
}
