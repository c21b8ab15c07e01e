package baseapp

import (
	"fmt"
	"strings"
)

// ExitError reports a non-zero exit code from a standalone run. The cobra
// command returns it so the caller can exit with Code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// CommandError is returned by ExecuteCommand when an external command fails
// and failure was not allowed.
type CommandError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command '%s' failed with exit code %d", e.Command, e.ExitCode)
	if out := strings.TrimSpace(e.Stderr); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
