package vnc

import (
	"testing"

	"github.com/deskboot/deskboot/internal/logger"
)

func TestSpecCommand(t *testing.T) {
	c := Default()
	spec := c.Spec(":99", logger.Config{Dir: "/var/log/deskboot"})
	want := "x11vnc -display :99 -rfbport 5900 -forever -shared -nopw -listen 0.0.0.0 -xkb"
	if spec.Command != want {
		t.Fatalf("command = %q, want %q", spec.Command, want)
	}
}

func TestLogFileOverridesDir(t *testing.T) {
	c := Config{Port: 5901, LogFile: "/var/log/deskboot/x11vnc.log"}
	spec := c.Spec(":99", logger.Config{Dir: "/var/log/deskboot"})
	if spec.Log.StdoutPath != c.LogFile || spec.Log.StderrPath != c.LogFile {
		t.Fatalf("log file not applied: %+v", spec.Log)
	}
}

func TestTargetProbesLoopback(t *testing.T) {
	c := Config{Port: 5902}
	if got := c.Target().Describe(); got != "tcp:127.0.0.1:5902" {
		t.Fatalf("target = %q", got)
	}
}
