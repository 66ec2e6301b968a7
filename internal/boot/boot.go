// Package boot runs the bootstrap chain: reap stale display state, start
// the virtual framebuffer, the screen-share server and the websocket
// bridge in strict order with bounded readiness probing between stages,
// then hand control to the worker. Probes are deliberately sequential;
// only the display launch is fatal, everything else is best-effort.
package boot

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/deskboot/deskboot/internal/bridge"
	"github.com/deskboot/deskboot/internal/config"
	"github.com/deskboot/deskboot/internal/handoff"
	"github.com/deskboot/deskboot/internal/journal"
	"github.com/deskboot/deskboot/internal/logger"
	"github.com/deskboot/deskboot/internal/metrics"
	"github.com/deskboot/deskboot/internal/probe"
	"github.com/deskboot/deskboot/internal/proc"
	"github.com/deskboot/deskboot/internal/reaper"
)

// DefaultStopGrace is how long subordinates get to exit after SIGTERM
// before their process group is killed.
const DefaultStopGrace = 3 * time.Second

// Bootstrap owns the chain. It is not safe for concurrent Up/Run calls;
// accessors (Trace, Statuses) may be called from other goroutines, which
// is how the run-mode status API reads it.
type Bootstrap struct {
	cfg     *config.Config
	jrnl    *journal.Journal
	started time.Time

	mu            sync.Mutex
	trace         []Transition
	handles       []*proc.Process
	builtinBridge *bridge.Server

	// test seams; defaults launch real subordinates and exec for real
	launchFn func(spec proc.Spec) (*proc.Process, error)
	execFn   func(command, dir string, env []string) error
}

func New(cfg *config.Config) *Bootstrap {
	b := &Bootstrap{cfg: cfg, started: time.Now()}
	b.launchFn = func(spec proc.Spec) (*proc.Process, error) {
		p := proc.New(spec)
		if err := p.Start(); err != nil {
			return nil, err
		}
		return p, nil
	}
	b.execFn = handoff.Exec
	return b
}

// SetJournal attaches an optional boot journal.
func (b *Bootstrap) SetJournal(j *journal.Journal) { b.jrnl = j }

// Trace returns a copy of the recorded transitions.
func (b *Bootstrap) Trace() []Transition {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Transition, len(b.trace))
	copy(out, b.trace)
	return out
}

// State returns the most recent state, or "" before the chain starts.
func (b *Bootstrap) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.trace) == 0 {
		return ""
	}
	return b.trace[len(b.trace)-1].State
}

// Statuses returns a snapshot of every launched subordinate in startup order.
func (b *Bootstrap) Statuses() []proc.Status {
	b.mu.Lock()
	handles := make([]*proc.Process, len(b.handles))
	copy(handles, b.handles)
	b.mu.Unlock()
	out := make([]proc.Status, 0, len(handles))
	for _, h := range handles {
		out = append(out, h.Snapshot())
	}
	return out
}

// StartedAt returns when the bootstrap began.
func (b *Bootstrap) StartedAt() time.Time { return b.started }

// Up runs the chain and replaces the process image with the worker. On
// success it never returns. The returned error is always fatal: either a
// required stage could not launch or the exec itself failed.
func (b *Bootstrap) Up(ctx context.Context) error {
	if err := b.chain(ctx); err != nil {
		return err
	}
	b.enter(StateHandingOff, "worker", b.cfg.Worker.Command)
	metrics.IncHandoff()
	// Flush the journal before the image is replaced; nothing runs after.
	if err := b.jrnl.Close(); err != nil {
		slog.Warn("journal close before handoff", "err", err)
	}
	b.jrnl = nil
	if err := b.execFn(b.cfg.Worker.Command, b.cfg.Worker.Dir, nil); err != nil {
		b.enter(StateFailed, "worker", err.Error())
		return fmt.Errorf("handoff to worker: %w", err)
	}
	// Reachable only with a test exec seam; syscall.Exec does not return.
	b.enter(StateDone, "worker", "")
	return nil
}

// Run executes the same chain but keeps the bootstrap resident: the
// worker runs as a tracked child instead of replacing the process. On
// context cancellation every subordinate's process group is terminated.
// The returned error is the worker's exit error, if any.
func (b *Bootstrap) Run(ctx context.Context) error {
	if err := b.chain(ctx); err != nil {
		return err
	}

	spec := proc.Spec{
		Name:    "worker",
		Command: b.cfg.Worker.Command,
		WorkDir: b.cfg.Worker.Dir,
		Log:     b.cfg.SubordinateLog(),
	}
	worker, err := b.launchStage("worker", spec)
	if err != nil {
		b.enter(StateFailed, "worker", err.Error())
		b.Shutdown(DefaultStopGrace)
		return fmt.Errorf("start worker: %w", err)
	}
	b.enter(StateRunning, "worker", b.cfg.Worker.Command)

	select {
	case <-ctx.Done():
		b.enter(StateDone, "worker", "shutdown requested")
		b.Shutdown(DefaultStopGrace)
		return nil
	case <-worker.WaitDone():
		st := worker.Snapshot()
		detail := ""
		if st.ExitErr != nil {
			detail = st.ExitErr.Error()
		}
		b.enter(StateDone, "worker", detail)
		b.Shutdown(DefaultStopGrace)
		return st.ExitErr
	}
}

// Shutdown terminates every tracked subordinate, newest first, and closes
// the built-in bridge if one is serving.
func (b *Bootstrap) Shutdown(grace time.Duration) {
	b.mu.Lock()
	handles := make([]*proc.Process, len(b.handles))
	copy(handles, b.handles)
	bb := b.builtinBridge
	b.mu.Unlock()
	if bb != nil {
		_ = bb.Close()
	}
	for i := len(handles) - 1; i >= 0; i-- {
		handles[i].Stop(grace)
	}
	if err := b.jrnl.Close(); err != nil {
		slog.Warn("journal close", "err", err)
	}
	b.jrnl = nil
}

// chain runs Reaping through the bridge probe. The ordering invariant: a
// stage is never launched before its predecessor's probe has been
// attempted at least once, though the predecessor need not be ready.
func (b *Bootstrap) chain(ctx context.Context) error {
	cfg := b.cfg
	log := cfg.SubordinateLog()

	b.enter(StateReaping, "display", cfg.Display.Addr())
	reaper.Reap(cfg.Display.LockPath(), cfg.Display.SocketPath())

	b.enter(StateStartingDisplay, "xvfb", cfg.Display.Addr())
	displayProc, err := b.launchStage("xvfb", cfg.Display.Spec(log))
	if err != nil {
		// Nothing downstream can function without a display.
		b.enter(StateFailed, "xvfb", err.Error())
		return fmt.Errorf("start virtual framebuffer: %w", err)
	}
	if err := cfg.Display.Export(); err != nil {
		b.enter(StateFailed, "xvfb", err.Error())
		return fmt.Errorf("export DISPLAY: %w", err)
	}

	b.enter(StateProbingDisplay, "xvfb", cfg.Display.Target().Describe())
	displayProc.SetReady(probe.WaitReady(ctx, cfg.Display.Target(), cfg.Probe))

	b.enter(StateStartingScreenShare, "x11vnc", cfg.Display.Addr())
	vncProc, err := b.launchStage("x11vnc", cfg.VNC.Spec(cfg.Display.Addr(), log))
	if err != nil {
		// Diagnostic tooling only; the worker does not depend on it.
		slog.Error("screen-share launch failed, continuing without remote viewing", "err", err)
	} else {
		b.enter(StateProbingScreenShare, "x11vnc", cfg.VNC.Target().Describe())
		vncProc.SetReady(probe.WaitReady(ctx, cfg.VNC.Target(), cfg.Probe))
	}

	b.bridgeStage(ctx, log)
	return nil
}

// bridgeStage launches the web bridge only when its assets are installed;
// absence silently skips the remote-viewing-in-browser feature.
func (b *Bootstrap) bridgeStage(ctx context.Context, log logger.Config) {
	cfg := b.cfg
	if !cfg.Bridge.Installed() {
		b.enter(StateBridgeSkipped, "bridge", cfg.Bridge.AssetsDir)
		slog.Info("bridge assets not installed, skipping", "assets", cfg.Bridge.AssetsDir)
		return
	}

	switch cfg.Bridge.Mode {
	case bridge.ModeBuiltin:
		b.enter(StateStartingBridge, "bridge", "builtin")
		srv := bridge.NewServer(cfg.Bridge)
		if err := srv.Start(); err != nil {
			metrics.IncLaunchFailure("bridge")
			slog.Error("built-in bridge failed to start, continuing", "err", err)
			return
		}
		metrics.IncStageStart("bridge")
		b.mu.Lock()
		b.builtinBridge = srv
		b.mu.Unlock()
	default:
		b.enter(StateStartingBridge, "bridge", cfg.Bridge.Mode)
		if _, err := b.launchStage("websockify", cfg.Bridge.Spec(log)); err != nil {
			slog.Error("bridge launch failed, continuing without browser viewing", "err", err)
			return
		}
	}

	b.enter(StateProbingBridge, "bridge", cfg.Bridge.Target().Describe())
	if h := b.lastHandle(); h != nil && cfg.Bridge.Mode != bridge.ModeBuiltin {
		h.SetReady(probe.WaitReady(ctx, cfg.Bridge.Target(), cfg.Probe))
	} else {
		probe.WaitReady(ctx, cfg.Bridge.Target(), cfg.Probe)
	}
}

func (b *Bootstrap) launchStage(stage string, spec proc.Spec) (*proc.Process, error) {
	if b.cfg.RunDir != "" && spec.PIDFile == "" {
		spec.PIDFile = filepath.Join(b.cfg.RunDir, spec.Name+".pid")
	}
	p, err := b.launchFn(spec)
	if err != nil {
		metrics.IncLaunchFailure(stage)
		return nil, err
	}
	metrics.IncStageStart(stage)
	b.mu.Lock()
	b.handles = append(b.handles, p)
	b.mu.Unlock()
	slog.Info("launched subordinate", "stage", stage, "pid", p.Snapshot().PID, "command", spec.Command)
	return p, nil
}

func (b *Bootstrap) lastHandle() *proc.Process {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.handles) == 0 {
		return nil
	}
	return b.handles[len(b.handles)-1]
}

func (b *Bootstrap) enter(s State, stage, detail string) {
	t := Transition{State: s, At: time.Now(), Detail: detail}
	b.mu.Lock()
	b.trace = append(b.trace, t)
	b.mu.Unlock()
	slog.Info("state", "state", string(s), "stage", stage, "detail", detail)
	if err := b.jrnl.Record(context.Background(), stage, string(s), detail); err != nil {
		slog.Debug("journal record failed", "err", err)
	}
}
