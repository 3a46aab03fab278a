// Package observability holds the process-wide span logger and Prometheus
// collectors. Everything is a no-op until Setup runs.
package observability

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Config captures observability toggles.
type Config struct {
	Enabled bool
	// MetricsPath is where the Prometheus handler is mounted. Empty disables it.
	MetricsPath string
}

// ShutdownFunc allows callers to tear down any observability exporters.
type ShutdownFunc func(context.Context) error

type runtimeState struct {
	cfg     Config
	log     *slog.Logger
	metrics *Metrics
}

var current atomic.Pointer[runtimeState]

func load() *runtimeState {
	if st := current.Load(); st != nil {
		return st
	}
	return &runtimeState{}
}

// CurrentMetrics returns the collector set registered by Setup, or nil when
// observability is disabled.
func CurrentMetrics() *Metrics {
	return load().metrics
}

// Setup installs the span logger and, when enabled, a fresh Prometheus registry.
// Calling it again replaces the previous state.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (ShutdownFunc, error) {
	st := &runtimeState{cfg: cfg, log: logger}
	if cfg.Enabled {
		st.metrics = NewMetrics()
	}
	current.Store(st)

	if logger != nil {
		msg := "[OBSERVABILITY] disabled"
		if cfg.Enabled {
			msg = "[OBSERVABILITY] metrics enabled"
		}
		logger.InfoContext(ctx, msg, slog.String("path", cfg.MetricsPath))
	}

	return func(context.Context) error {
		// a later Setup owns the state; leave it alone
		current.CompareAndSwap(st, nil)
		return nil
	}, nil
}
