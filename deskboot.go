// Package deskboot bootstraps a disposable virtual desktop for a headless
// browser-automation worker: stale X state is reaped, Xvfb, x11vnc and a
// websocket bridge are brought up in order with bounded readiness
// probing, and control is handed to the worker by replacing the process
// image.
package deskboot

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/deskboot/deskboot/internal/boot"
	cfg "github.com/deskboot/deskboot/internal/config"
	"github.com/deskboot/deskboot/internal/journal"
	"github.com/deskboot/deskboot/internal/metrics"
	"github.com/deskboot/deskboot/internal/probe"
	iapi "github.com/deskboot/deskboot/internal/server"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = cfg.Config

type Bootstrap = boot.Bootstrap

type State = boot.State

type Transition = boot.Transition

type Target = probe.Target

type ProbePolicy = probe.Policy

type Journal = journal.Journal

func DefaultConfig() *Config { return cfg.Default() }

// LoadConfig builds the effective config from defaults, the optional TOML
// file at path, and DESKBOOT_* environment overrides.
func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

func New(c *Config) *Bootstrap { return boot.New(c) }

// OpenJournal opens the optional SQLite boot journal.
func OpenJournal(dsn string) (*Journal, error) { return journal.Open(dsn) }

// ParseTarget parses a probe target descriptor such as
// "unix:///tmp/.X11-unix/X99" or "tcp://127.0.0.1:5900".
func ParseTarget(s string) (Target, error) { return probe.Parse(s) }

// WaitReady polls target until ready or the policy budget is spent.
func WaitReady(ctx context.Context, t Target, p ProbePolicy) bool {
	return probe.WaitReady(ctx, t, p)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.RegisterDefault() }

// NewStatusServer starts the run-mode status HTTP server on addr.
func NewStatusServer(addr string, b *Bootstrap) *http.Server {
	return iapi.NewServer(addr, b)
}

// StopGrace is the default grace window for subordinate shutdown.
const StopGrace = boot.DefaultStopGrace
