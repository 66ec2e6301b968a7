package proc

import (
	"os/exec"
	"strings"

	"github.com/deskboot/deskboot/internal/logger"
)

// Spec describes one subordinate to launch. The bootstrap launches each
// subordinate exactly once; restart policy belongs to the caller.
type Spec struct {
	Name    string        `json:"name"`
	Command string        `json:"command"`  // command line (shell-aware, see BuildCommand)
	WorkDir string        `json:"work_dir"` // optional working dir
	Env     []string      `json:"env"`      // optional extra env appended to os.Environ()
	PIDFile string        `json:"pid_file"` // optional pidfile path
	Log     logger.Config `json:"log"`      // stdout/stderr destinations
}

// BuildCommand constructs an *exec.Cmd for spec.Command. It avoids invoking
// a shell unless metacharacters require one, so argv-style commands run
// directly and keep their own PID.
func (s *Spec) BuildCommand() *exec.Cmd {
	cmdStr := strings.TrimSpace(s.Command)
	if cmdStr == "" {
		// #nosec G204
		return exec.Command("/bin/true")
	}
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", cmdStr)
	}
	parts := strings.Fields(cmdStr)
	name := parts[0]
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	// ok: intentional execution of a configured command
	// #nosec G204
	return exec.Command(name, args...)
}
