package proc

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/deskboot/deskboot/internal/logger"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests require sh/sleep on Unix-like systems")
	}
}

func TestStartWritesPIDFileAndStatus(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	pidfile := filepath.Join(dir, "p1.pid")
	p := New(Spec{Name: "p1", Command: "sleep 0.3", PIDFile: pidfile})
	if err := p.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Stop(time.Second)

	st := p.Snapshot()
	if !st.Running || st.PID <= 0 || st.Name != "p1" {
		t.Fatalf("status not set after start: %+v", st)
	}
	b, err := os.ReadFile(pidfile)
	if err != nil || len(strings.TrimSpace(string(b))) == 0 {
		t.Fatalf("pidfile not written: %v, content=%q", err, string(b))
	}
	if !p.Alive() {
		t.Fatalf("expected alive right after start")
	}
}

func TestStartFailsForMissingBinary(t *testing.T) {
	requireUnix(t)
	p := New(Spec{Name: "ghost", Command: "definitely-not-a-binary-xyz"})
	if err := p.Start(); err == nil {
		t.Fatalf("expected launch failure for missing binary")
	}
}

func TestMonitorReapsExit(t *testing.T) {
	requireUnix(t)
	p := New(Spec{Name: "quick", Command: "sleep 0.05"})
	if err := p.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-p.WaitDone():
	case <-time.After(3 * time.Second):
		t.Fatalf("process was not reaped")
	}
	st := p.Snapshot()
	if st.Running {
		t.Fatalf("still marked running after exit: %+v", st)
	}
	if st.StoppedAt.IsZero() {
		t.Fatalf("StoppedAt not recorded")
	}
	if p.Alive() {
		t.Fatalf("Alive() true after reap")
	}
}

func TestStopTerminatesProcessGroup(t *testing.T) {
	requireUnix(t)
	// The shell spawns a child; killing the group must take both down.
	p := New(Spec{Name: "tree", Command: "sh -c 'sleep 30 & sleep 30'"})
	if err := p.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	p.Stop(time.Second)
	select {
	case <-p.WaitDone():
	case <-time.After(3 * time.Second):
		t.Fatalf("stop did not reap the process")
	}
	if p.Alive() {
		t.Fatalf("process alive after Stop")
	}
}

func TestStopOnUnstartedProcessIsNoop(t *testing.T) {
	p := New(Spec{Name: "never", Command: "sleep 1"})
	p.Stop(10 * time.Millisecond) // must not panic
}

func TestLogRedirection(t *testing.T) {
	requireUnix(t)
	logs := filepath.Join(t.TempDir(), "logs")
	p := New(Spec{
		Name:    "echoer",
		Command: "sh -c 'echo out; echo err 1>&2'",
		Log:     logger.Config{Dir: logs},
	})
	if err := p.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-p.WaitDone():
	case <-time.After(3 * time.Second):
		t.Fatalf("process did not exit")
	}

	out, err := os.ReadFile(filepath.Join(logs, "echoer.stdout.log"))
	if err != nil || !strings.Contains(string(out), "out") {
		t.Fatalf("stdout log missing: %v content=%q", err, string(out))
	}
	errb, err := os.ReadFile(filepath.Join(logs, "echoer.stderr.log"))
	if err != nil || !strings.Contains(string(errb), "err") {
		t.Fatalf("stderr log missing: %v content=%q", err, string(errb))
	}
}

func TestSetReady(t *testing.T) {
	p := New(Spec{Name: "r"})
	if p.Snapshot().Ready {
		t.Fatalf("ready should default to false")
	}
	p.SetReady(true)
	if !p.Snapshot().Ready {
		t.Fatalf("SetReady(true) not recorded")
	}
}

func TestBuildCommandShellDetection(t *testing.T) {
	s := &Spec{Command: "x11vnc -display :99 -rfbport 5900"}
	cmd := s.BuildCommand()
	if strings.Contains(cmd.Path, "sh") && len(cmd.Args) > 0 && cmd.Args[0] == "/bin/sh" {
		t.Fatalf("plain argv command should not be shell-wrapped: %v", cmd.Args)
	}
	if got := len(cmd.Args); got != 5 {
		t.Fatalf("argv length = %d, want 5 (%v)", got, cmd.Args)
	}

	s = &Spec{Command: "echo hi > /tmp/x"}
	cmd = s.BuildCommand()
	if cmd.Args[0] != "/bin/sh" || cmd.Args[1] != "-c" {
		t.Fatalf("metacharacter command should be shell-wrapped: %v", cmd.Args)
	}

	s = &Spec{Command: ""}
	cmd = s.BuildCommand()
	if cmd.Args[0] != "/bin/true" {
		t.Fatalf("empty command should resolve to /bin/true: %v", cmd.Args)
	}
}
