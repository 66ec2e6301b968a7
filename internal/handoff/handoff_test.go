package handoff

import (
	"runtime"
	"strings"
	"testing"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("handoff requires a Unix-like system")
	}
}

func TestArgvSimpleCommand(t *testing.T) {
	requireUnix(t)
	argv, err := Argv("sleep 30")
	if err != nil {
		t.Fatalf("argv: %v", err)
	}
	if len(argv) != 2 || !strings.HasSuffix(argv[0], "/sleep") || argv[1] != "30" {
		t.Fatalf("argv = %v", argv)
	}
}

func TestArgvShellWrap(t *testing.T) {
	requireUnix(t)
	argv, err := Argv("python3 main.py > out.log 2>&1")
	if err != nil {
		t.Fatalf("argv: %v", err)
	}
	want := []string{"/bin/sh", "-c", "python3 main.py > out.log 2>&1"}
	if len(argv) != 3 || argv[0] != want[0] || argv[1] != want[1] || argv[2] != want[2] {
		t.Fatalf("argv = %v, want %v", argv, want)
	}
}

func TestArgvEmpty(t *testing.T) {
	if _, err := Argv("   "); err == nil {
		t.Fatalf("expected error for empty command")
	}
}

func TestArgvMissingBinary(t *testing.T) {
	requireUnix(t)
	if _, err := Argv("definitely-not-a-binary-xyz --flag"); err == nil {
		t.Fatalf("expected lookup error")
	}
}
