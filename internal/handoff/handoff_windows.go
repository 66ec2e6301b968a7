//go:build windows

package handoff

import "errors"

// Exec is unsupported on Windows: there is no process-image replacement.
func Exec(command, workDir string, env []string) error {
	return errors.New("handoff: exec replacement is not supported on windows")
}
