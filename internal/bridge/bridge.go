// Package bridge republishes the remote-screen stream on a
// browser-reachable port. Two modes exist: launching an external
// websockify subordinate (default, matches the container image), or a
// built-in websocket-to-TCP proxy that also serves the noVNC assets.
// Either way the whole feature is gated on the assets being installed; a
// missing asset directory silently skips remote viewing in the browser.
package bridge

import (
	"fmt"
	"os"

	"github.com/deskboot/deskboot/internal/logger"
	"github.com/deskboot/deskboot/internal/probe"
	"github.com/deskboot/deskboot/internal/proc"
)

const (
	ModeWebsockify = "websockify"
	ModeBuiltin    = "builtin"
)

type Config struct {
	Mode      string `toml:"mode" mapstructure:"mode"`
	Port      int    `toml:"port" mapstructure:"port"`
	Binary    string `toml:"binary" mapstructure:"binary"`
	AssetsDir string `toml:"assets_dir" mapstructure:"assets_dir"`
	LogFile   string `toml:"log_file" mapstructure:"log_file"`

	// VNCPort is the loopback port the bridge forwards to.
	VNCPort int `toml:"-" mapstructure:"-"`
}

func Default() Config {
	return Config{
		Mode:      ModeWebsockify,
		Port:      6080,
		Binary:    "websockify",
		AssetsDir: "/usr/share/novnc",
	}
}

// Installed reports whether the bridge's static assets are present. This
// is a capability probe, not a hard dependency.
func (c Config) Installed() bool {
	if c.AssetsDir == "" {
		return false
	}
	st, err := os.Stat(c.AssetsDir)
	return err == nil && st.IsDir()
}

// Spec builds the launch spec for the external websockify subordinate.
func (c Config) Spec(log logger.Config) proc.Spec {
	bin := c.Binary
	if bin == "" {
		bin = "websockify"
	}
	if c.LogFile != "" {
		log.StdoutPath = c.LogFile
		log.StderrPath = c.LogFile
	}
	return proc.Spec{
		Name: "websockify",
		Command: fmt.Sprintf("%s --verbose --web %s %d 127.0.0.1:%d",
			bin, c.AssetsDir, c.Port, c.VNCPort),
		Log: log,
	}
}

// Target is the readiness probe target for the browser-facing port.
func (c Config) Target() probe.Target {
	return probe.TCPPort{Addr: fmt.Sprintf("127.0.0.1:%d", c.Port)}
}
