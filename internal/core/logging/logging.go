// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu       sync.Mutex
	root     *slog.Logger
	levelVar = new(slog.LevelVar)
)

// Init configures the process-wide logger. Logs go to stderr so that
// stdout stays reserved for machine-readable outcome documents.
// Supported levels: debug, info, warn, error.
func Init(level string) error {
	mu.Lock()
	defer mu.Unlock()

	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	levelVar.Set(lvl)

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar})
	root = slog.New(handler)
	return nil
}

// SetVerbose switches between debug and info level logging.
func SetVerbose(enabled bool) {
	if enabled {
		levelVar.Set(slog.LevelDebug)
	} else {
		levelVar.Set(slog.LevelInfo)
	}
}

// Get returns the root logger instance.
func Get() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if root == nil {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar})
		root = slog.New(handler)
	}
	return root
}

// WithComponent returns a logger with the component name attached.
//
// Example:
//
//	log := logging.WithComponent("orchestrator")
//	log.Info("action finished", "action", "pull", "ok", true)
//	// Output: level=INFO msg="action finished" component=orchestrator action=pull ok=true
func WithComponent(component string) *slog.Logger {
	return Get().With("component", component)
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level %q", level)
	}
}
