package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Display.Number != 99 {
		t.Fatalf("display number = %d", cfg.Display.Number)
	}
	if cfg.Display.Width != 1440 || cfg.Display.Height != 900 || cfg.Display.Depth != 24 {
		t.Fatalf("geometry = %dx%dx%d", cfg.Display.Width, cfg.Display.Height, cfg.Display.Depth)
	}
	if cfg.VNC.Port != 5900 || cfg.Bridge.Port != 6080 {
		t.Fatalf("ports = %d/%d", cfg.VNC.Port, cfg.Bridge.Port)
	}
	if cfg.Probe.Attempts != 120 || cfg.Probe.Delay != 250*time.Millisecond {
		t.Fatalf("probe policy = %+v", cfg.Probe)
	}
	if cfg.Worker.Command == "" || cfg.Worker.Dir == "" {
		t.Fatalf("worker defaults missing: %+v", cfg.Worker)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Display.Number != 99 {
		t.Fatalf("display number = %d", cfg.Display.Number)
	}
	// normalize must derive the fixed log paths and the bridge backend.
	if cfg.VNC.LogFile != filepath.Join(cfg.LogDir, "x11vnc.log") {
		t.Fatalf("vnc log = %q", cfg.VNC.LogFile)
	}
	if cfg.Bridge.LogFile != filepath.Join(cfg.LogDir, "websockify.log") {
		t.Fatalf("bridge log = %q", cfg.Bridge.LogFile)
	}
	if cfg.Bridge.VNCPort != cfg.VNC.Port {
		t.Fatalf("bridge backend port = %d, want %d", cfg.Bridge.VNCPort, cfg.VNC.Port)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deskboot.toml")
	content := `
log_dir = "/data/logs"
journal = "/data/logs/boot.db"

[display]
number = 42
width = 1920
height = 1080
depth = 24

[vnc]
port = 5901

[bridge]
mode = "builtin"
assets_dir = "/opt/novnc"

[probe]
attempts = 40
delay = "500ms"

[worker]
command = "python3 -m src.workflows.worker"
dir = "/srv/app"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Display.Number != 42 || cfg.Display.Width != 1920 {
		t.Fatalf("display not loaded: %+v", cfg.Display)
	}
	if cfg.VNC.Port != 5901 || cfg.Bridge.VNCPort != 5901 {
		t.Fatalf("vnc port not propagated: vnc=%d bridge backend=%d", cfg.VNC.Port, cfg.Bridge.VNCPort)
	}
	if cfg.Bridge.Mode != "builtin" || cfg.Bridge.AssetsDir != "/opt/novnc" {
		t.Fatalf("bridge not loaded: %+v", cfg.Bridge)
	}
	if cfg.Probe.Attempts != 40 || cfg.Probe.Delay != 500*time.Millisecond {
		t.Fatalf("probe not loaded: %+v", cfg.Probe)
	}
	if cfg.Worker.Command != "python3 -m src.workflows.worker" {
		t.Fatalf("worker not loaded: %+v", cfg.Worker)
	}
	if cfg.VNC.LogFile != "/data/logs/x11vnc.log" {
		t.Fatalf("vnc log not derived from log_dir: %q", cfg.VNC.LogFile)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DESKBOOT_DISPLAY_NUMBER", "7")
	t.Setenv("DESKBOOT_WORKER_COMMAND", "sleep 1")
	t.Setenv("DESKBOOT_VNC_PORT", "5999")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Display.Number != 7 {
		t.Fatalf("env display override lost: %d", cfg.Display.Number)
	}
	if cfg.Worker.Command != "sleep 1" {
		t.Fatalf("env worker override lost: %q", cfg.Worker.Command)
	}
	if cfg.Bridge.VNCPort != 5999 {
		t.Fatalf("env vnc port not propagated to bridge: %d", cfg.Bridge.VNCPort)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
