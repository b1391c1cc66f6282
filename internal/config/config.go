// Package config loads the pipeline's environment-driven configuration
// (§6.4): LOG_DEBUG, LOG_QUEUE, and the test-only COMPOSE_COMMAND. The
// os.Getenv/strconv.ParseBool idiom mirrors how the retrieval pack's own
// services read boolean/string environment toggles (e.g. the
// AZD_DEBUG_SERVER_DEBUG_ENDPOINTS and FLOW_TEST_CATALOG patterns),
// rather than a flags/env framework the teacher itself does not use for
// this concern.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// QueueBackend selects the producer-side queue binding (§6.4 LOG_QUEUE).
type QueueBackend struct {
	// Kind is "memory" or "sqlite".
	Kind string
	// Path is the SQLite file path, set only when Kind == "sqlite".
	Path string
}

// Config is the pipeline's environment-derived configuration.
type Config struct {
	// LogDebug: if false, records with debug severity are dropped at the
	// producer sink.
	LogDebug bool
	// LogQueue is nil unless LOG_QUEUE was set, in which case the
	// producer additionally tees each log into this queue.
	LogQueue *QueueBackend
	// ComposeCommand is test-only: the container runtime command used by
	// integration test helpers. Never read by production code.
	ComposeCommand string
}

// Load reads the recognised environment variables (§6.4). LOG_DEBUG
// defaults to false when absent; an unparsable value is an error rather
// than a silent default, since a misconfigured debug flag would
// silently change which records a producer drops.
func Load() (Config, error) {
	var cfg Config

	if raw, ok := os.LookupEnv("LOG_DEBUG"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: LOG_DEBUG: %w", err)
		}
		cfg.LogDebug = v
	}

	if raw, ok := os.LookupEnv("LOG_QUEUE"); ok {
		backend, err := parseQueueBackend(raw)
		if err != nil {
			return Config{}, err
		}
		cfg.LogQueue = &backend
	}

	cfg.ComposeCommand = os.Getenv("COMPOSE_COMMAND")

	return cfg, nil
}

// parseQueueBackend parses "memory" or "sqlite:<path>".
func parseQueueBackend(raw string) (QueueBackend, error) {
	if raw == "memory" {
		return QueueBackend{Kind: "memory"}, nil
	}
	if path, ok := strings.CutPrefix(raw, "sqlite:"); ok {
		if path == "" {
			return QueueBackend{}, fmt.Errorf("config: LOG_QUEUE: sqlite binding requires a path")
		}
		return QueueBackend{Kind: "sqlite", Path: path}, nil
	}
	return QueueBackend{}, fmt.Errorf("config: LOG_QUEUE: unrecognised binding %q", raw)
}
