// Package handoff performs the terminal transition: the bootstrap's
// process image is replaced by the long-running worker, so the worker
// inherits the bootstrap's PID and exit status and external process
// managers observe the worker directly rather than a wrapper.
package handoff

import (
	"fmt"
	"os/exec"
	"strings"
)

// Argv splits a worker command line into argv, resolving argv[0] on PATH.
// Commands with shell metacharacters are wrapped in /bin/sh -c so the
// configured line behaves as written.
func Argv(command string) ([]string, error) {
	cmdStr := strings.TrimSpace(command)
	if cmdStr == "" {
		return nil, fmt.Errorf("empty worker command")
	}
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		return []string{"/bin/sh", "-c", cmdStr}, nil
	}
	parts := strings.Fields(cmdStr)
	path, err := exec.LookPath(parts[0])
	if err != nil {
		return nil, fmt.Errorf("worker binary %q: %w", parts[0], err)
	}
	argv := append([]string{path}, parts[1:]...)
	return argv, nil
}
