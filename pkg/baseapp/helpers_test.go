package baseapp

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stagehand/pkg/clock"
	"stagehand/pkg/config"
	"stagehand/pkg/identity"
	"stagehand/pkg/runlog"
)

type testHandler struct {
	process func(rc *RunContext, app *App) error
	calls   []string
}

func (h *testHandler) Process(rc *RunContext, app *App) error {
	h.calls = append(h.calls, "process")
	if h.process != nil {
		return h.process(rc, app)
	}
	return nil
}

type testEnv struct {
	root     string
	paths    config.Paths
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	switcher *identity.FakeSwitcher
	clock    *clock.Mock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	clk := clock.NewMock(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))
	clk.SetStep(time.Second)
	return &testEnv{
		root:     root,
		paths:    config.NewPaths(root),
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
		switcher: &identity.FakeSwitcher{},
		clock:    clk,
	}
}

func (e *testEnv) options(h Handler) Options {
	return Options{
		Name:    "testapp",
		Handler: h,
		Paths:   &e.paths,
		Argv:    []string{"testapp"},
		PID:     4242,
		Defaults: map[string]interface{}{
			config.KeyConfigFileSilent: true,
			config.KeyConfigDirSilent:  true,
		},
		Stdout: e.stdout,
		Stderr: e.stderr,
		Clock:  e.clock,
		Resolver: &identity.FakeResolver{
			Users:  []identity.Account{{Name: "nobody", ID: 65534}},
			Groups: []identity.Account{{Name: "nogroup", ID: 65534}},
		},
		Switcher: e.switcher,
		Sampler: func(int) (*runlog.Resources, error) {
			return &runlog.Resources{RSS: 1024, Threads: 3}, nil
		},
	}
}

func (e *testEnv) newApp(t *testing.T, h Handler, modify ...func(*Options)) *App {
	t.Helper()
	opts := e.options(h)
	for _, m := range modify {
		m(&opts)
	}
	app, err := New(opts)
	require.NoError(t, err)
	return app
}

func (e *testEnv) runlogDir(name string) string {
	return filepath.Join(e.paths.Run, name)
}

func (e *testEnv) pstateFile(name string) string {
	return filepath.Join(e.paths.Run, name+".pstate")
}

func (e *testEnv) savedRunlogs(t *testing.T, name string) []*runlog.Runlog {
	t.Helper()
	runlogs, err := runlog.NewStore(e.runlogDir(name)).LoadAll(0)
	require.NoError(t, err)
	return runlogs
}

func markIdents(rl *runlog.Runlog) []string {
	idents := make([]string, 0, len(rl.TimeMarks))
	for _, tm := range rl.TimeMarks {
		idents = append(idents, tm.Ident)
	}
	return idents
}
