package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stagehand/internal/demo"
	"stagehand/pkg/baseapp"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (failed run, invalid arguments).
	ExitCodeError = 1
)

var version string

// SetVersion sets the version reported by the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return version
}

// newRootCmd builds the demo application and returns its command as the
// root of the command tree.
func newRootCmd() (*cobra.Command, error) {
	app, err := demo.New(baseapp.Options{Version: version})
	if err != nil {
		return nil, err
	}

	rootCmd := app.Command()
	rootCmd.Long = `stagehand runs scripts through a fixed lifecycle of setup, processing,
evaluation and teardown, keeping a runlog of every run and a persistent
state shared between runs.`
	rootCmd.SetVersionTemplate(`{{printf "stagehand version %s\n" .Version}}`)
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd, nil
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd, err := newRootCmd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitCodeError)
	}

	if err := rootCmd.Execute(); err != nil {
		var exitErr *baseapp.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the exit code for an error returned by the root command.
func getExitCode(err error) int {
	var exitErr *baseapp.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCodeError
}
