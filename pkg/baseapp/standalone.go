package baseapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// Command returns the cobra command running the application standalone.
// It may be executed directly or added to a larger command tree.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Main runs the application standalone with args and returns the process
// exit code.
func (a *App) Main(ctx context.Context, args []string) int {
	if args == nil {
		args = []string{}
	}
	a.cmd.SetArgs(args)
	a.cmd.SetOut(a.stdout)
	a.cmd.SetErr(a.stderr)
	err := a.cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	return 1
}

// Embed parses args and runs only the setup stage. The host process then
// drives the remaining stages through Action or Process, Evaluate and
// Teardown.
func (a *App) Embed(ctx context.Context, args []string) error {
	if err := a.cmd.ParseFlags(args); err != nil {
		return err
	}
	if err := a.cmd.ValidateFlagGroups(); err != nil {
		return err
	}
	if rest := a.cmd.Flags().Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}
	return a.Setup(ctx)
}

// Close releases the log sinks opened during setup. Standalone runs close
// them on their own; embedding hosts call Close once they are done.
func (a *App) Close() {
	a.shutdownLogging()
}
