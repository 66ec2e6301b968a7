//go:build !windows

package handoff

import (
	"os"
	"syscall"
)

// Exec replaces the current process image with the worker. On success it
// never returns; the worker keeps this process's PID. env nil means
// inherit the current environment (including DISPLAY set by the display
// stage).
func Exec(command, workDir string, env []string) error {
	argv, err := Argv(command)
	if err != nil {
		return err
	}
	if workDir != "" {
		if err := os.Chdir(workDir); err != nil {
			return err
		}
	}
	if env == nil {
		env = os.Environ()
	}
	return syscall.Exec(argv[0], argv, env)
}
