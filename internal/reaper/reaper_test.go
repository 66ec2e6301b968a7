package reaper

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReapRemovesStaleArtifacts(t *testing.T) {
	dir := t.TempDir()
	lock := filepath.Join(dir, ".X99-lock")
	sock := filepath.Join(dir, "X99")
	for _, p := range []string{lock, sock} {
		if err := os.WriteFile(p, []byte("stale"), 0o600); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	Reap(lock, sock)

	for _, p := range []string{lock, sock} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("%s still exists after reap", p)
		}
	}
}

func TestReapMissingFilesIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	// Nothing exists; Reap must not panic and must not create anything.
	Reap(filepath.Join(dir, ".X99-lock"), filepath.Join(dir, "X99"), "")
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("reap created files: %v", entries)
	}
}
