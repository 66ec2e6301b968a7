// Package vnc assembles the remote-screen stage: an x11vnc server attached
// to the virtual display, listening unauthenticated on all interfaces.
// Unauthenticated is acceptable because the host environment is already
// trusted; the port is only reachable through the container's mappings.
package vnc

import (
	"fmt"

	"github.com/deskboot/deskboot/internal/logger"
	"github.com/deskboot/deskboot/internal/probe"
	"github.com/deskboot/deskboot/internal/proc"
)

type Config struct {
	Port    int    `toml:"port" mapstructure:"port"`
	Binary  string `toml:"binary" mapstructure:"binary"`
	LogFile string `toml:"log_file" mapstructure:"log_file"`
}

func Default() Config {
	return Config{Port: 5900, Binary: "x11vnc"}
}

// Spec builds the launch spec for the screen-share subordinate bound to
// the given display identifier (e.g. ":99").
func (c Config) Spec(displayAddr string, log logger.Config) proc.Spec {
	bin := c.Binary
	if bin == "" {
		bin = "x11vnc"
	}
	if c.LogFile != "" {
		log.StdoutPath = c.LogFile
		log.StderrPath = c.LogFile
	}
	return proc.Spec{
		Name: "x11vnc",
		Command: fmt.Sprintf("%s -display %s -rfbport %d -forever -shared -nopw -listen 0.0.0.0 -xkb",
			bin, displayAddr, c.Port),
		Log: log,
	}
}

// Target is the readiness probe target for the screen-share port. Probing
// goes through loopback; the listener itself binds all interfaces.
func (c Config) Target() probe.Target {
	return probe.TCPPort{Addr: fmt.Sprintf("127.0.0.1:%d", c.Port)}
}
