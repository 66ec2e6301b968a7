package proc

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"
)

// Status is a point-in-time snapshot of a launched subordinate.
type Status struct {
	Name      string    `json:"name"`
	Running   bool      `json:"running"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	StoppedAt time.Time `json:"stopped_at,omitempty"`
	Ready     bool      `json:"ready"`
	ExitErr   error     `json:"-"`
}

// Process is one launched subordinate. The subordinate runs in its own
// process group so the whole tree can be signaled together; communication
// with it happens only through the filesystem and its listening sockets.
type Process struct {
	spec      Spec
	mu        sync.Mutex
	cmd       *exec.Cmd
	status    Status
	outCloser io.WriteCloser
	errCloser io.WriteCloser
	waitOnce  sync.Once
	waitDone  chan struct{}
}

func New(spec Spec) *Process { return &Process{spec: spec} }

func (p *Process) Spec() Spec { return p.spec }

// Start configures and launches the subordinate detached: own process
// group, stdio redirected to the configured log files (or /dev/null), and
// pidfile written when configured. A monitor goroutine reaps the child so
// it never lingers as a zombie while the bootstrap is still alive.
func (p *Process) Start() error {
	cmd := p.spec.BuildCommand()
	if p.spec.WorkDir != "" {
		cmd.Dir = p.spec.WorkDir
	}
	if len(p.spec.Env) > 0 {
		cmd.Env = append(os.Environ(), p.spec.Env...)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if p.spec.Log.Dir != "" || p.spec.Log.StdoutPath != "" || p.spec.Log.StderrPath != "" {
		if p.spec.Log.Dir != "" {
			_ = os.MkdirAll(p.spec.Log.Dir, 0o750)
		}
		outW, errW := p.spec.Log.Writers(p.spec.Name)
		p.mu.Lock()
		p.outCloser, p.errCloser = outW, errW
		p.mu.Unlock()
		cmd.Stdout = outW
		cmd.Stderr = errW
	} else {
		null, _ := os.OpenFile(os.DevNull, os.O_RDWR, 0)
		cmd.Stdout = null
		cmd.Stderr = null
	}

	if err := cmd.Start(); err != nil {
		p.closeWriters()
		return err
	}

	p.mu.Lock()
	p.cmd = cmd
	p.waitDone = make(chan struct{})
	p.status = Status{
		Name:      p.spec.Name,
		Running:   true,
		PID:       cmd.Process.Pid,
		StartedAt: time.Now(),
	}
	p.mu.Unlock()

	p.writePIDFile(cmd.Process.Pid)

	go p.monitor(cmd)
	return nil
}

func (p *Process) monitor(cmd *exec.Cmd) {
	err := cmd.Wait()
	p.mu.Lock()
	p.status.Running = false
	p.status.StoppedAt = time.Now()
	p.status.ExitErr = err
	done := p.waitDone
	p.mu.Unlock()
	p.closeWriters()
	p.waitOnce.Do(func() { close(done) })
}

// SetReady records the readiness probe outcome on the handle.
func (p *Process) SetReady(ready bool) {
	p.mu.Lock()
	p.status.Ready = ready
	p.mu.Unlock()
}

// Snapshot returns a copy of the current status.
func (p *Process) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Alive reports whether the subordinate still runs, by signal 0 against
// its process group leader.
func (p *Process) Alive() bool {
	p.mu.Lock()
	cmd := p.cmd
	running := p.status.Running
	p.mu.Unlock()
	if cmd == nil || cmd.Process == nil || !running {
		return false
	}
	err := syscall.Kill(cmd.Process.Pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

// Stop terminates the subordinate's whole process group: SIGTERM, then
// SIGKILL once the grace window expires. Safe to call on a process that
// already exited.
func (p *Process) Stop(grace time.Duration) {
	p.mu.Lock()
	cmd := p.cmd
	done := p.waitDone
	p.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	_ = syscall.Kill(-pid, syscall.SIGTERM)
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(grace):
		_ = syscall.Kill(-pid, syscall.SIGKILL)
		select {
		case <-done:
		case <-time.After(200 * time.Millisecond):
			// best-effort
		}
	}
	p.removePIDFile()
}

// WaitDone returns a channel closed when the subordinate has exited and
// been reaped. Nil before Start.
func (p *Process) WaitDone() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitDone
}

func (p *Process) closeWriters() {
	p.mu.Lock()
	out, errw := p.outCloser, p.errCloser
	p.outCloser, p.errCloser = nil, nil
	p.mu.Unlock()
	if out != nil {
		_ = out.Close()
	}
	if errw != nil && errw != out {
		_ = errw.Close()
	}
}

func (p *Process) writePIDFile(pid int) {
	if p.spec.PIDFile == "" || pid == 0 {
		return
	}
	_ = os.MkdirAll(filepath.Dir(p.spec.PIDFile), 0o750)
	_ = os.WriteFile(p.spec.PIDFile, []byte(strconv.Itoa(pid)), 0o600)
}

// removePIDFile best-effort
func (p *Process) removePIDFile() {
	if p.spec.PIDFile == "" {
		return
	}
	_ = os.Remove(p.spec.PIDFile)
}
