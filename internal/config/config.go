package config

import (
	"fmt"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/deskboot/deskboot/internal/bridge"
	"github.com/deskboot/deskboot/internal/display"
	"github.com/deskboot/deskboot/internal/logger"
	"github.com/deskboot/deskboot/internal/probe"
	"github.com/deskboot/deskboot/internal/vnc"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// DESKBOOT_DISPLAY_NUMBER=42 or DESKBOOT_WORKER_COMMAND="python3 -m worker".
const EnvPrefix = "deskboot"

// Worker is the external collaborator the bootstrap hands off to. It is
// expected to run indefinitely and to own its own health endpoint.
type Worker struct {
	Command string `toml:"command" mapstructure:"command"`
	Dir     string `toml:"dir" mapstructure:"dir"`
}

// Server configures the status API used by run mode only.
type Server struct {
	Listen string `toml:"listen" mapstructure:"listen"`
}

// Config is the full bootstrap configuration. Precedence: built-in
// defaults < TOML file < DESKBOOT_* environment < CLI flags.
type Config struct {
	LogLevel string `toml:"log_level" mapstructure:"log_level"`
	LogDir   string `toml:"log_dir" mapstructure:"log_dir"`
	RunDir   string `toml:"run_dir" mapstructure:"run_dir"`

	// Journal is a SQLite DSN for the boot journal; empty disables it.
	Journal string `toml:"journal" mapstructure:"journal"`

	Display display.Config `toml:"display" mapstructure:"display"`
	VNC     vnc.Config     `toml:"vnc" mapstructure:"vnc"`
	Bridge  bridge.Config  `toml:"bridge" mapstructure:"bridge"`
	Probe   probe.Policy   `toml:"probe" mapstructure:"probe"`
	Worker  Worker         `toml:"worker" mapstructure:"worker"`
	Server  Server         `toml:"server" mapstructure:"server"`
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		LogDir:   "/var/log/deskboot",
		RunDir:   "/var/run/deskboot",
		Display:  display.Default(),
		VNC:      vnc.Default(),
		Bridge:   bridge.Default(),
		Probe: probe.Policy{
			Attempts: probe.DefaultAttempts,
			Delay:    probe.DefaultDelay,
		},
		Worker: Worker{Command: "python3 main.py", Dir: "/app"},
		Server: Server{Listen: ":8081"},
	}
}

// Load builds the effective config: defaults, then the optional TOML
// file, then DESKBOOT_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize resolves derived fields after all sources merged.
func (c *Config) normalize() {
	if c.VNC.LogFile == "" && c.LogDir != "" {
		c.VNC.LogFile = filepath.Join(c.LogDir, "x11vnc.log")
	}
	if c.Bridge.LogFile == "" && c.LogDir != "" {
		c.Bridge.LogFile = filepath.Join(c.LogDir, "websockify.log")
	}
	// The bridge always forwards to the screen-share port on loopback.
	c.Bridge.VNCPort = c.VNC.Port
}

// SubordinateLog is the base log destination handed to launched stages.
func (c *Config) SubordinateLog() logger.Config {
	return logger.Config{Dir: c.LogDir}
}
