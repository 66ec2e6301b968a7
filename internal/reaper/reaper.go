package reaper

import (
	"log/slog"
	"os"
)

// Reap removes stale display artifacts left by an unclean prior shutdown.
// A missing file is success. Any other removal failure is logged and
// ignored: nothing downstream depends on this step, it only reduces the
// odds of an address-already-in-use on restart.
func Reap(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := os.Remove(p)
		switch {
		case err == nil:
			slog.Info("removed stale artifact", "path", p)
		case os.IsNotExist(err):
			slog.Debug("no stale artifact", "path", p)
		default:
			slog.Warn("could not remove stale artifact, continuing", "path", p, "err", err)
		}
	}
}
