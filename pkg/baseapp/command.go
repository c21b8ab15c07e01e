package baseapp

import (
	"bytes"
	"errors"
	"os/exec"
	"time"

	"github.com/briandowns/spinner"

	"stagehand/pkg/config"
)

// CommandResult holds the outcome of an external command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ExecuteCommand runs command through /bin/sh and waits for it to finish.
// A non-zero exit status is reported as a *CommandError unless canFail is
// set. There is no timeout beyond the run context.
func (a *App) ExecuteCommand(rc *RunContext, command string, canFail bool) (*CommandResult, error) {
	rc.Debugf("Executing system command '%s'", command)

	if a.cfg != nil && !a.cfg.Bool(config.KeyQuiet) && a.cfg.Int(config.KeyVerbosity) > 0 {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Writer = rc.Stderr
		s.Suffix = " " + command
		s.Start()
		defer s.Stop()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(rc.Context(), "/bin/sh", "-c", command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	res := &CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return res, &CommandError{Command: command, ExitCode: -1, Stderr: res.Stderr, Err: err}
		}
		res.ExitCode = exitErr.ExitCode()
		if !canFail {
			return res, &CommandError{
				Command:  command,
				ExitCode: res.ExitCode,
				Stdout:   res.Stdout,
				Stderr:   res.Stderr,
				Err:      err,
			}
		}
	}
	rc.Debugf("System command '%s' finished with exit code %d", command, res.ExitCode)
	return res, nil
}
