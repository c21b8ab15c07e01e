package baseapp

import (
	"github.com/spf13/pflag"

	"stagehand/pkg/runlog"
)

// Plugin extends an App with flags, configuration defaults, runlog fields
// and setup work. Plugins run in registration order.
type Plugin interface {
	Name() string
	// InitFlags adds command line options.
	InitFlags(app *App, flags *pflag.FlagSet)
	// InitConfig adds configuration defaults.
	InitConfig(app *App, defaults map[string]interface{})
	// InitRunlog adds fields to the runlog of a new run.
	InitRunlog(app *App, rl *runlog.Runlog)
	// Configure runs after the configuration has been merged and
	// post-processed, and may still adjust it.
	Configure(rc *RunContext, app *App) error
	// Setup runs after logging and persistent state are available.
	Setup(rc *RunContext, app *App) error
}

// PluginDefaults implements the optional Init hooks of Plugin as no-ops.
// Configure and Setup are left out, so every plugin embedding it still has
// to implement both.
type PluginDefaults struct{}

func (PluginDefaults) InitFlags(*App, *pflag.FlagSet)          {}
func (PluginDefaults) InitConfig(*App, map[string]interface{}) {}
func (PluginDefaults) InitRunlog(*App, *runlog.Runlog)         {}

// Handler holds the business logic of an application.
type Handler interface {
	Process(rc *RunContext, app *App) error
}

// SetupHook is implemented by handlers needing custom setup work. It runs
// after every plugin has been set up.
type SetupHook interface {
	OnSetup(rc *RunContext, app *App) error
}

// EvaluateHook replaces the default evaluation, which logs the runtime and
// effectivity of the run.
type EvaluateHook interface {
	OnEvaluate(rc *RunContext, app *App, analysis *runlog.Analysis) error
}

// AnalysisHook may enrich the analysis of the current run before it is
// evaluated.
type AnalysisHook interface {
	OnAnalyze(rl *runlog.Runlog, analysis *runlog.Analysis)
}

// TeardownHook runs first during teardown, before state is persisted.
type TeardownHook interface {
	OnTeardown(rc *RunContext, app *App) error
}

// ActionProvider contributes additional actions selectable with --action.
type ActionProvider interface {
	Actions() []Action
}
