package baseapp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"stagehand/pkg/clock"
	"stagehand/pkg/config"
	"stagehand/pkg/identity"
	"stagehand/pkg/pstate"
	"stagehand/pkg/render"
	"stagehand/pkg/runlog"
)

var nameRegex = regexp.MustCompile(`^[_a-zA-Z][-_a-zA-Z0-9.]*$`)

// Options configures a new App. Only Handler is required.
type Options struct {
	Name        string
	Description string
	Version     string
	Handler     Handler
	Plugins     []Plugin

	// Paths defaults to the layout below APP_ROOT_PATH.
	Paths *config.Paths
	// Argv defaults to os.Args.
	Argv []string
	// PID defaults to os.Getpid().
	PID int
	// Defaults override the built-in configuration defaults.
	Defaults map[string]interface{}
	// DotEnv is loaded before the environment is parsed, ".env" when empty.
	DotEnv string

	Stdout   io.Writer
	Stderr   io.Writer
	Clock    clock.Clock
	Resolver identity.Resolver
	Switcher identity.Switcher
	Sampler  runlog.Sampler
}

// App drives an application through its lifecycle stages and owns the
// configuration, runlog and persistent state of the run.
type App struct {
	name        string
	description string
	version     string
	argv        []string
	pid         int

	handler  Handler
	plugins  []Plugin
	paths    config.Paths
	defaults map[string]interface{}

	resolver identity.Resolver
	switcher identity.Switcher
	sampler  runlog.Sampler
	stdout   io.Writer
	stderr   io.Writer
	clock    clock.Clock

	cmd     *cobra.Command
	actions *ActionRegistry
	rc      *RunContext

	stage    Stage
	cfg      *config.Configuration
	sources  *config.Result
	runlog   *runlog.Runlog
	pstate   pstate.State
	pstore   *pstate.Store
	analysis *runlog.Analysis
	retc     int
	closeLog func() error
}

// New creates an App in the created stage. The runlog is started here so
// its timestamp reflects the process start.
func New(opts Options) (*App, error) {
	if opts.Handler == nil {
		return nil, errors.New("handler is required")
	}
	a := &App{
		description: opts.Description,
		version:     opts.Version,
		argv:        opts.Argv,
		pid:         opts.PID,
		handler:     opts.Handler,
		plugins:     opts.Plugins,
		resolver:    opts.Resolver,
		switcher:    opts.Switcher,
		sampler:     opts.Sampler,
		stdout:      opts.Stdout,
		stderr:      opts.Stderr,
		clock:       opts.Clock,
		stage:       StageCreated,
		retc:        runlog.RCSuccess,
	}
	if a.argv == nil {
		a.argv = os.Args
	}
	if a.pid == 0 {
		a.pid = os.Getpid()
	}
	if a.stdout == nil {
		a.stdout = os.Stdout
	}
	if a.stderr == nil {
		a.stderr = os.Stderr
	}
	if a.clock == nil {
		a.clock = clock.Real{}
	}
	if a.resolver == nil {
		a.resolver = identity.OSResolver{}
	}
	if a.switcher == nil {
		a.switcher = identity.OSSwitcher{}
	}
	if a.sampler == nil {
		a.sampler = runlog.SampleResources
	}

	a.name = opts.Name
	if a.name == "" && len(a.argv) > 0 {
		a.name = filepath.Base(a.argv[0])
	}
	if !nameRegex.MatchString(a.name) {
		return nil, fmt.Errorf("invalid application name '%s'", a.name)
	}

	seen := map[string]bool{}
	for _, p := range a.plugins {
		if seen[p.Name()] {
			return nil, fmt.Errorf("plugin '%s' registered more than once", p.Name())
		}
		seen[p.Name()] = true
	}

	if opts.Paths != nil {
		a.paths = *opts.Paths
	} else {
		dotenv := opts.DotEnv
		if dotenv == "" {
			dotenv = ".env"
		}
		environ, err := LoadEnvironment(dotenv)
		if err != nil {
			return nil, err
		}
		a.paths = config.NewPaths(environ.RootPath)
	}

	a.runlog = runlog.New(a.name, a.pid, a.argv, a.clock.Now())
	for _, p := range a.plugins {
		p.InitRunlog(a, a.runlog)
	}

	actions := a.builtinActions()
	if ap, ok := a.handler.(ActionProvider); ok {
		actions = append(actions, ap.Actions()...)
	}
	registry, err := NewActionRegistry(actions...)
	if err != nil {
		return nil, err
	}
	a.actions = registry

	a.defaults = a.buildDefaults(opts.Defaults)
	a.newCommand()
	return a, nil
}

// buildDefaults assembles the default configuration source: built-ins,
// then the caller's overrides, then plugin contributions. Default paths are
// templates so they follow the final application name.
func (a *App) buildDefaults(overrides map[string]interface{}) map[string]interface{} {
	d := map[string]interface{}{
		config.KeyDebug:            false,
		config.KeyQuiet:            false,
		config.KeyVerbosity:        0,
		config.KeyName:             a.name,
		config.KeyAction:           nil,
		config.KeyInput:            nil,
		config.KeyLimit:            nil,
		config.KeyFormat:           render.FormatTree,
		config.KeyUser:             nil,
		config.KeyGroup:            nil,
		config.KeyConfigFile:       "{{ .Paths.Cfg }}/{{ .Name }}.conf",
		config.KeyConfigDir:        "{{ .Paths.Cfg }}/{{ .Name }}",
		config.KeyConfigFileSilent: false,
		config.KeyConfigDirSilent:  false,
		config.KeyLogFile:          "{{ .Paths.Log }}/{{ .Name }}.log",
		config.KeyLogLevel:         "info",
		config.KeyLogLevelConsole:  nil,
		config.KeyLogLevelFile:     nil,
		config.KeyLogJournal:       false,
		config.KeyPidFile:          "{{ .Paths.Run }}/{{ .Name }}.pid",
		config.KeyPstateFile:       "{{ .Paths.Run }}/{{ .Name }}.pstate",
		config.KeyPstateDump:       false,
		config.KeyPstateLog:        false,
		config.KeyRunlogDir:        "{{ .Paths.Run }}/{{ .Name }}",
		config.KeyRunlogDump:       false,
		config.KeyRunlogLog:        false,
		config.KeyMetricsFile:      nil,
	}
	for k, v := range overrides {
		d[k] = v
	}
	for _, p := range a.plugins {
		p.InitConfig(a, d)
	}
	return d
}

// Name returns the application name.
func (a *App) Name() string { return a.name }

// Description returns the application description.
func (a *App) Description() string { return a.description }

// Version returns the application version.
func (a *App) Version() string { return a.version }

// Paths returns the application directories.
func (a *App) Paths() config.Paths { return a.paths }

// Config returns the merged configuration, nil before setup.
func (a *App) Config() *config.Configuration { return a.cfg }

// Sources returns every configuration source of the run, nil before setup.
func (a *App) Sources() *config.Result { return a.sources }

// Runlog returns the runlog of the current run.
func (a *App) Runlog() *runlog.Runlog { return a.runlog }

// PState returns the persistent state. It is nil unless a state file is
// configured.
func (a *App) PState() pstate.State { return a.pstate }

// RC returns the run context, nil before a run starts.
func (a *App) RC() *RunContext { return a.rc }

// Stage returns the current lifecycle stage.
func (a *App) Stage() Stage { return a.stage }

// RetCode returns the current return code.
func (a *App) RetCode() int { return a.retc }

// Analysis returns the analysis computed during evaluation.
func (a *App) Analysis() *runlog.Analysis { return a.analysis }

// Actions returns the action registry.
func (a *App) Actions() *ActionRegistry { return a.actions }

// Clock returns the application clock.
func (a *App) Clock() clock.Clock { return a.clock }

// Printf writes a message to stdout unless quiet is set or verbosity is
// below level.
func (a *App) Printf(level int, format string, args ...interface{}) {
	if !a.printable(level) {
		return
	}
	fmt.Fprintf(a.stdout, format+"\n", args...)
}

// PrintLines writes lines to stdout under the same rules as Printf.
func (a *App) PrintLines(level int, lines []string) {
	if !a.printable(level) || len(lines) == 0 {
		return
	}
	fmt.Fprintln(a.stdout, strings.Join(lines, "\n"))
}

func (a *App) printable(level int) bool {
	if a.cfg == nil {
		return level == 0
	}
	if a.cfg.Bool(config.KeyQuiet) {
		return false
	}
	return a.cfg.Int(config.KeyVerbosity) >= level
}

// Error records msg as a runlog error and fails the run with return code 1.
func (a *App) Error(msg string) {
	a.ErrorCode(msg, runlog.RCFailure)
}

// ErrorCode records msg as a runlog error and fails the run with rc.
func (a *App) ErrorCode(msg string, rc int) {
	a.retc = rc
	logError(msg)
	a.runlog.Fail(msg, rc)
}

// TimeMark appends a time mark to the runlog.
func (a *App) TimeMark(ident, descr string) {
	tm := a.runlog.Mark(ident, descr, a.clock.Now())
	a.rc.Debugf("Time mark '%s' (%s): %f", tm.Ident, tm.Descr, tm.Time)
}
