// Package display assembles the virtual framebuffer stage: Xvfb launch
// arguments, the lock/socket paths tied to a display number, and the
// process-wide DISPLAY identifier consumed by later graphical stages.
package display

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/deskboot/deskboot/internal/logger"
	"github.com/deskboot/deskboot/internal/probe"
	"github.com/deskboot/deskboot/internal/proc"
)

// Default X11 runtime locations. Overridable for tests.
const (
	DefaultLockDir   = "/tmp"
	DefaultSocketDir = "/tmp/.X11-unix"
)

type Config struct {
	Number int    `toml:"number" mapstructure:"number"`
	Width  int    `toml:"width" mapstructure:"width"`
	Height int    `toml:"height" mapstructure:"height"`
	Depth  int    `toml:"depth" mapstructure:"depth"`
	Binary string `toml:"binary" mapstructure:"binary"`

	// LockDir/SocketDir default to the X11 conventions under /tmp.
	LockDir   string `toml:"lock_dir" mapstructure:"lock_dir"`
	SocketDir string `toml:"socket_dir" mapstructure:"socket_dir"`
}

func Default() Config {
	return Config{Number: 99, Width: 1440, Height: 900, Depth: 24, Binary: "Xvfb"}
}

// Addr returns the display identifier in X notation, e.g. ":99".
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Number) }

// LockPath is the lock file the X server creates for this display.
func (c Config) LockPath() string {
	dir := c.LockDir
	if dir == "" {
		dir = DefaultLockDir
	}
	return filepath.Join(dir, fmt.Sprintf(".X%d-lock", c.Number))
}

// SocketPath is the socket special file the X server listens on once it
// accepts connections.
func (c Config) SocketPath() string {
	dir := c.SocketDir
	if dir == "" {
		dir = DefaultSocketDir
	}
	return filepath.Join(dir, fmt.Sprintf("X%d", c.Number))
}

// Spec builds the launch spec for the framebuffer subordinate.
func (c Config) Spec(log logger.Config) proc.Spec {
	bin := c.Binary
	if bin == "" {
		bin = "Xvfb"
	}
	return proc.Spec{
		Name:    "xvfb",
		Command: fmt.Sprintf("%s %s -screen 0 %dx%dx%d -nolisten tcp", bin, c.Addr(), c.Width, c.Height, c.Depth),
		Log:     log,
	}
}

// Target is the readiness probe target for this display.
func (c Config) Target() probe.Target { return probe.UnixSocket{Path: c.SocketPath()} }

// Export publishes DISPLAY process-wide. Every graphical subordinate
// launched afterwards inherits it, as does the worker after handoff.
func (c Config) Export() error { return os.Setenv("DISPLAY", c.Addr()) }
