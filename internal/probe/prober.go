package probe

import (
	"context"
	"log/slog"
	"time"

	"github.com/deskboot/deskboot/internal/metrics"
)

// Default probe budget: 120 attempts every 250ms, ~30s worst case.
const (
	DefaultAttempts    = 120
	DefaultDelay       = 250 * time.Millisecond
	DefaultDialTimeout = time.Second
)

// Policy bounds a readiness wait.
type Policy struct {
	Attempts    int           `toml:"attempts" mapstructure:"attempts"`
	Delay       time.Duration `toml:"delay" mapstructure:"delay"`
	DialTimeout time.Duration `toml:"dial_timeout" mapstructure:"dial_timeout"`
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultAttempts
	}
	if p.Delay <= 0 {
		p.Delay = DefaultDelay
	}
	if p.DialTimeout <= 0 {
		p.DialTimeout = DefaultDialTimeout
	}
	return p
}

// WaitReady polls target until it accepts a connection or the attempt
// budget is spent. Exhaustion is not an error: the remote-viewing stack is
// diagnostic tooling, so callers proceed either way and only the returned
// flag records the outcome. The first attempt is made immediately; the
// inter-attempt delay applies between attempts, never after the last.
func WaitReady(ctx context.Context, target Target, policy Policy) bool {
	p := policy.withDefaults()
	desc := target.Describe()
	start := time.Now()
	var lastErr error
	for i := 0; i < p.Attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				slog.Warn("readiness wait canceled", "target", desc, "attempts", i)
				return false
			case <-time.After(p.Delay):
			}
		}
		metrics.IncProbeAttempt(desc)
		if err := target.Probe(p.DialTimeout); err == nil {
			metrics.ObserveProbeWait(desc, time.Since(start).Seconds())
			slog.Info("target ready", "target", desc, "attempts", i+1, "waited", time.Since(start))
			return true
		} else {
			lastErr = err
		}
	}
	metrics.IncProbeExhausted(desc)
	slog.Warn("target not ready after budget, continuing best-effort",
		"target", desc, "attempts", p.Attempts, "waited", time.Since(start), "last_err", lastErr)
	return false
}
