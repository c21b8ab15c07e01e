package baseapp

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteCommand(t *testing.T) {
	env := newTestEnv(t)
	app := env.newApp(t, &testHandler{})
	rc := &RunContext{Ctx: context.Background(), Stderr: &bytes.Buffer{}}

	res, err := app.ExecuteCommand(rc, "echo hello; echo oops >&2", false)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, "oops\n", res.Stderr)

	res, err = app.ExecuteCommand(rc, "echo nope >&2; exit 3", false)
	require.Error(t, err)
	var ce *CommandError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 3, ce.ExitCode)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "command 'echo nope >&2; exit 3' failed with exit code 3: nope", ce.Error())

	res, err = app.ExecuteCommand(rc, "exit 3", true)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestExecuteCommand_FailureInProcess(t *testing.T) {
	env := newTestEnv(t)
	app := env.newApp(t, &testHandler{})
	app.handler = &testHandler{process: func(rc *RunContext, a *App) error {
		_, err := a.ExecuteCommand(rc, "exit 2", false)
		return err
	}}

	assert.Equal(t, 1, app.Main(context.Background(), []string{"-v"}))
	assert.Equal(t, []string{"System command error: command 'exit 2' failed with exit code 2"}, app.Runlog().Errors)
	assert.Len(t, env.savedRunlogs(t, "testapp"), 1)
}
