package baseapp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagehand/pkg/apperr"
	"stagehand/pkg/config"
	"stagehand/pkg/pstate"
	"stagehand/pkg/runlog"
)

type hookedHandler struct {
	testHandler
	analysis    *runlog.Analysis
	setupErr    error
	teardownErr error
}

func (h *hookedHandler) OnSetup(rc *RunContext, app *App) error {
	h.calls = append(h.calls, "setup")
	return h.setupErr
}

func (h *hookedHandler) OnAnalyze(rl *runlog.Runlog, a *runlog.Analysis) {
	a.Command = "hooked"
}

func (h *hookedHandler) OnEvaluate(rc *RunContext, app *App, a *runlog.Analysis) error {
	h.calls = append(h.calls, "evaluate")
	h.analysis = a
	return nil
}

func (h *hookedHandler) OnTeardown(rc *RunContext, app *App) error {
	h.calls = append(h.calls, "teardown")
	return h.teardownErr
}

func TestRun_Success(t *testing.T) {
	env := newTestEnv(t)
	h := &testHandler{process: func(rc *RunContext, app *App) error {
		app.PState()["counter"] = 1
		return nil
	}}
	app := env.newApp(t, h)

	code := app.Main(context.Background(), nil)
	require.Equal(t, 0, code, env.stderr.String())
	assert.Equal(t, StageDone, app.Stage())
	assert.Equal(t, []string{"process"}, h.calls)

	runlogs := env.savedRunlogs(t, "testapp")
	require.Len(t, runlogs, 1)
	rl := runlogs[0]
	assert.Equal(t, runlog.ResultSuccess, rl.Result)
	assert.Equal(t, 0, rl.RC)
	assert.Empty(t, rl.Errors)
	assert.Equal(t, 4242, rl.PID)
	assert.Equal(t, []string{
		"stage_setup_start", "stage_setup_stop",
		"stage_process_start", "stage_process_stop",
		"stage_evaluate_start", "stage_evaluate_stop",
		"stage_teardown_start", "stage_teardown_stop",
	}, markIdents(rl))
	require.NotNil(t, rl.Resources)
	assert.Equal(t, uint64(1024), rl.Resources.RSS)
	assert.FileExists(t, filepath.Join(env.runlogDir("testapp"), "20240115100000.04242.runlog"))

	state, err := pstate.NewStore(env.pstateFile("testapp")).Load()
	require.NoError(t, err)
	assert.Equal(t, pstate.State{"counter": float64(1)}, state)

	logData, err := os.ReadFile(filepath.Join(env.paths.Log, "testapp.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "Application runtime")
}

func TestRun_ProcessErrorStillPersists(t *testing.T) {
	env := newTestEnv(t)
	h := &testHandler{process: func(rc *RunContext, app *App) error {
		app.PState()["attempts"] = 3
		return apperr.Processf("boom")
	}}
	app := env.newApp(t, h)

	code := app.Main(context.Background(), []string{})
	assert.Equal(t, 1, code)
	assert.Equal(t, StageDone, app.Stage())

	runlogs := env.savedRunlogs(t, "testapp")
	require.Len(t, runlogs, 1)
	assert.Equal(t, runlog.ResultFailure, runlogs[0].Result)
	assert.Equal(t, 1, runlogs[0].RC)
	assert.Equal(t, []string{"Processing exception: boom"}, runlogs[0].Errors)

	state, err := pstate.NewStore(env.pstateFile("testapp")).Load()
	require.NoError(t, err)
	assert.Equal(t, float64(3), state["attempts"])
}

func TestRun_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "process error",
			err:  apperr.Processf("bad input"),
			want: "Processing exception: bad input",
		},
		{
			name: "process error with cause",
			err:  apperr.Processf("bad input").WithCause(errors.New("eof")),
			want: "Processing exception: bad input: eof",
		},
		{
			name: "other application error",
			err:  apperr.Teardownf("late"),
			want: "Application exception: late",
		},
		{
			name: "command error",
			err:  &CommandError{Command: "false", ExitCode: 1},
			want: "System command error: command 'false' failed with exit code 1",
		},
		{
			name: "plain error",
			err:  errors.New("disk full"),
			want: "Application error: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			app := env.newApp(t, &testHandler{process: func(*RunContext, *App) error { return tt.err }})

			assert.Equal(t, 1, app.Main(context.Background(), nil))
			assert.Equal(t, []string{tt.want}, app.Runlog().Errors)
		})
	}
}

func TestRun_UnknownUserWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	h := &testHandler{}
	app := env.newApp(t, h)

	code := app.Main(context.Background(), []string{"--user", "ghost"})
	assert.Equal(t, 1, code)
	assert.Contains(t, env.stderr.String(), "CRITICAL ERROR: Requested unknown user account 'ghost'")
	assert.Equal(t, StageSetup, app.Stage())
	assert.Empty(t, h.calls)
	assert.NoDirExists(t, env.runlogDir("testapp"))
	assert.NoFileExists(t, env.pstateFile("testapp"))
}

func TestRun_SetupHookFailure(t *testing.T) {
	env := newTestEnv(t)
	h := &hookedHandler{setupErr: errors.New("hook failed")}
	app := env.newApp(t, h)

	assert.Equal(t, 1, app.Main(context.Background(), nil))
	assert.Contains(t, env.stderr.String(), "CRITICAL ERROR: hook failed")
	assert.Equal(t, []string{"setup"}, h.calls)
	assert.NoDirExists(t, env.runlogDir("testapp"))
}

func TestRun_Hooks(t *testing.T) {
	env := newTestEnv(t)
	h := &hookedHandler{}
	app := env.newApp(t, h)

	require.Equal(t, 0, app.Main(context.Background(), nil))
	assert.Equal(t, []string{"setup", "process", "evaluate", "teardown"}, h.calls)

	require.NotNil(t, h.analysis)
	assert.Equal(t, "hooked", h.analysis.Command)
	assert.InDelta(t, 1.0, h.analysis.DurProc, 1e-6)
	assert.Contains(t, h.analysis.Durations, "stage_setup")
	assert.Equal(t, []string{"stage_evaluate"}, h.analysis.Open)
	assert.Same(t, h.analysis, app.Analysis())
}

func TestRun_TeardownErrorStillSavesRunlog(t *testing.T) {
	env := newTestEnv(t)
	h := &hookedHandler{teardownErr: apperr.Teardownf("cleanup failed")}
	app := env.newApp(t, h)

	assert.Equal(t, 1, app.Main(context.Background(), nil))

	runlogs := env.savedRunlogs(t, "testapp")
	require.Len(t, runlogs, 1)
	assert.Equal(t, runlog.ResultFailure, runlogs[0].Result)
	assert.Equal(t, []string{"Teardown exception: cleanup failed"}, runlogs[0].Errors)
	assert.FileExists(t, env.pstateFile("testapp"))
}

func TestRun_PersistenceSwitches(t *testing.T) {
	env := newTestEnv(t)
	app := env.newApp(t, &testHandler{})

	code := app.Main(context.Background(), []string{"--runlog-dump", "--pstate-dump"})
	require.Equal(t, 0, code)
	assert.Contains(t, env.stdout.String(), "Application runlog:")
	assert.Contains(t, env.stdout.String(), "Persistent state:")
	assert.DirExists(t, env.runlogDir("testapp"))
}

func TestRun_MetricsFile(t *testing.T) {
	env := newTestEnv(t)
	app := env.newApp(t, &testHandler{})
	path := filepath.Join(env.root, "metrics", "testapp.prom")

	require.Equal(t, 0, app.Main(context.Background(), []string{"--metrics-file", path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `stagehand_run_success{app="testapp"} 1`)
	assert.Contains(t, string(data), "stagehand_run_effectivity_percent")
}

func TestRun_NameOverride(t *testing.T) {
	env := newTestEnv(t)
	app := env.newApp(t, &testHandler{})

	require.Equal(t, 0, app.Main(context.Background(), []string{"--name", "other"}))
	assert.Equal(t, "other", app.Name())

	runlogs := env.savedRunlogs(t, "other")
	require.Len(t, runlogs, 1)
	assert.Equal(t, "other", runlogs[0].Name)
	assert.NoDirExists(t, env.runlogDir("testapp"))
}

func TestRun_InvalidName(t *testing.T) {
	env := newTestEnv(t)
	app := env.newApp(t, &testHandler{})

	assert.Equal(t, 1, app.Main(context.Background(), []string{"--name", "1bad"}))
	assert.Contains(t, env.stderr.String(), "CRITICAL ERROR: Invalid application name '1bad'")
}

func TestRun_QuietAndVerboseExclusive(t *testing.T) {
	env := newTestEnv(t)
	app := env.newApp(t, &testHandler{})

	assert.Equal(t, 1, app.Main(context.Background(), []string{"-q", "-v"}))
	assert.Contains(t, env.stderr.String(), "Error:")
	assert.Equal(t, StageCreated, app.Stage())
}

func TestEmbed_StopsAfterSetup(t *testing.T) {
	env := newTestEnv(t)
	h := &testHandler{}
	app := env.newApp(t, h)
	t.Cleanup(app.Close)

	require.NoError(t, app.Embed(context.Background(), []string{"--debug"}))
	assert.Equal(t, StageSetup, app.Stage())
	assert.Empty(t, h.calls)
	assert.Contains(t, env.stderr.String(), "DBGOUT:")

	assert.ErrorIs(t, app.Config().Set(config.KeyLimit, 1), config.ErrFrozen)
	assert.ErrorIs(t, app.Evaluate(), ErrInvalidTransition)
	assert.ErrorIs(t, app.Setup(context.Background()), ErrInvalidTransition)

	require.NoError(t, app.Process())
	require.NoError(t, app.Evaluate())
	require.NoError(t, app.Teardown())
	assert.Equal(t, StageDone, app.Stage())
	assert.Equal(t, []string{"process"}, h.calls)
	assert.Len(t, env.savedRunlogs(t, "testapp"), 1)
}

func TestEmbed_FrozenNestedValues(t *testing.T) {
	env := newTestEnv(t)
	app := env.newApp(t, &testHandler{}, func(o *Options) {
		o.Defaults["nested"] = map[string]interface{}{"k": "v"}
	})
	t.Cleanup(app.Close)

	require.NoError(t, app.Embed(context.Background(), nil))
	require.True(t, app.Config().Frozen())

	app.Config().Value("nested").(map[string]interface{})["k"] = "mutated"
	assert.Equal(t, map[string]interface{}{"k": "v"}, app.Config().Value("nested"))
}

func TestEmbed_ConfigurationSources(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(filepath.Join(env.paths.Cfg, "testapp"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(env.paths.Cfg, "testapp.conf"),
		[]byte(`{"log_level": "debug", "limit": 3}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(env.paths.Cfg, "testapp", "10-base.json"),
		[]byte(`{"log_level": "warning", "input": "from-dir", "limit": 1}`), 0644))

	tests := []struct {
		name      string
		args      []string
		wantLevel string
		wantLimit int
	}{
		{name: "file over dir", args: []string{}, wantLevel: "debug", wantLimit: 3},
		{name: "cli over file", args: []string{"--limit", "7", "--log-level", "error"}, wantLevel: "error", wantLimit: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := env.newApp(t, &testHandler{})
			t.Cleanup(app.Close)

			require.NoError(t, app.Embed(context.Background(), tt.args))
			cfg := app.Config()
			assert.Equal(t, tt.wantLevel, cfg.String(config.KeyLogLevel))
			assert.Equal(t, tt.wantLimit, cfg.Int(config.KeyLimit))
			assert.Equal(t, "from-dir", cfg.String(config.KeyInput))
			assert.Equal(t, filepath.Join(env.paths.Run, "testapp.pstate"), cfg.String(config.KeyPstateFile))
			assert.Equal(t, 3, int(app.Sources().File["limit"].(float64)))
		})
	}
}

func TestEmbed_MissingConfigFile(t *testing.T) {
	env := newTestEnv(t)
	app := env.newApp(t, &testHandler{})
	path := filepath.Join(env.root, "nowhere.conf")

	err := app.Embed(context.Background(), []string{"--config-file", path, "--config-file-silent=false"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindSetup))
	assert.Equal(t, "Configuration file '"+path+"' does not exist", err.Error())
}

func TestEmbed_DropsPrivileges(t *testing.T) {
	env := newTestEnv(t)
	app := env.newApp(t, &testHandler{})
	t.Cleanup(app.Close)

	require.NoError(t, app.Embed(context.Background(), []string{"--user", "nobody", "--group", "nogroup"}))
	assert.Equal(t, []string{"setgid(65534)", "setuid(65534)"}, env.switcher.Calls)

	core := app.Config().Core()
	require.NotNil(t, core.User)
	assert.Equal(t, 65534, core.User.ID)
}

func TestPrintf_Verbosity(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "default", args: nil, want: "level0\n"},
		{name: "verbose", args: []string{"-vv"}, want: "level0\nlevel1\nlevel2\n"},
		{name: "quiet", args: []string{"--quiet"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			app := env.newApp(t, &testHandler{})
			t.Cleanup(app.Close)
			require.NoError(t, app.Embed(context.Background(), tt.args))

			for level := 0; level < 3; level++ {
				app.Printf(level, "level%d", level)
			}
			assert.Equal(t, tt.want, env.stdout.String())
		})
	}
}

func TestNew_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := New(Options{Name: "x"})
	assert.Error(t, err, "handler is required")

	opts := env.options(&testHandler{})
	opts.Name = "bad name"
	_, err = New(opts)
	assert.ErrorContains(t, err, "invalid application name")

	opts = env.options(&testHandler{})
	opts.Name = ""
	opts.Argv = []string{"/usr/local/bin/fromargv"}
	app, err := New(opts)
	require.NoError(t, err)
	assert.Equal(t, "fromargv", app.Name())
	assert.Equal(t, "fromargv", app.Runlog().Name)
}
