package baseapp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"stagehand/pkg/apperr"
	"stagehand/pkg/config"
	"stagehand/pkg/identity"
	"stagehand/pkg/jsonconf"
	"stagehand/pkg/logging"
	"stagehand/pkg/pstate"
	"stagehand/pkg/runlog"
)

const logSubsystem = "App"

func logError(msg string) {
	logging.Error(logSubsystem, nil, "%s", msg)
}

func (a *App) transition(next Stage) error {
	if !a.stage.CanTransition(next) {
		return fmt.Errorf("%s -> %s: %w", a.stage, next, ErrInvalidTransition)
	}
	a.stage = next
	return nil
}

// Run executes every stage of a standalone run and returns the final
// return code. A setup failure is printed to stderr and ends the run
// immediately, without teardown.
func (a *App) Run(ctx context.Context) int {
	if err := a.Setup(ctx); err != nil {
		fmt.Fprintf(a.stderr, "CRITICAL ERROR: %s\n", err)
		a.retc = runlog.RCFailure
		a.shutdownLogging()
		return a.retc
	}

	var steps []func() error
	if a.cfg.String(config.KeyAction) != "" {
		steps = []func() error{a.Action}
	} else {
		steps = []func() error{a.Process, a.Evaluate, a.Teardown}
	}
	for _, step := range steps {
		if err := step(); err != nil {
			a.Error(err.Error())
			break
		}
	}

	a.rc.Debugf("Exiting with return code '%d'", a.retc)
	a.shutdownLogging()
	return a.retc
}

// Setup bootstraps the application. Its substages run in a fixed order:
// configuration, privileges, logging, persistent state, plugins, the
// handler's setup hook and a diagnostic dump. The configuration is frozen
// once they all succeed. Every error returned is a setup error.
func (a *App) Setup(ctx context.Context) error {
	if err := a.transition(StageSetup); err != nil {
		return err
	}
	a.rc = &RunContext{
		Ctx:    ctx,
		Debug:  a.cliDebug(),
		Stdout: a.stdout,
		Stderr: a.stderr,
		Clock:  a.clock,
	}
	a.TimeMark("stage_setup_start", "Start of the setup stage")

	substages := []func() error{
		a.setupConfiguration,
		a.setupPrivileges,
		a.setupLogging,
		a.setupPState,
		a.setupPlugins,
		a.setupHandler,
		a.setupDump,
	}
	for _, substage := range substages {
		if err := substage(); err != nil {
			if apperr.IsKind(err, apperr.KindSetup) {
				return err
			}
			return apperr.Setup(err.Error(), nil).WithCause(err)
		}
	}
	a.cfg.Freeze()

	a.TimeMark("stage_setup_stop", "End of the setup stage")
	return nil
}

func (a *App) cliDebug() bool {
	v, _ := a.cliConfig()[config.KeyDebug].(bool)
	return v
}

func (a *App) setupConfiguration() error {
	cli := a.cliConfig()
	name := a.name
	if n, ok := cli[config.KeyName].(string); ok && n != "" {
		name = n
	}

	loader := config.NewLoader(a.rc.Debugf)
	res, err := loader.Load(a.defaults, cli, config.TemplateData{Name: name, Paths: a.paths})
	if err != nil {
		return err
	}
	cfg := res.Config

	name = cfg.String(config.KeyName)
	if !nameRegex.MatchString(name) {
		return apperr.Setupf("Invalid application name '%s'", name)
	}
	a.name = name
	a.runlog.Name = name

	if err := config.Postprocess(cfg, a.resolver, config.TemplateData{Name: name, Paths: a.paths}); err != nil {
		return err
	}
	a.cfg = cfg
	a.sources = res
	a.rc.Debug = cfg.Bool(config.KeyDebug)

	for _, p := range a.plugins {
		a.rc.Debugf("Configuring application plugin '%s'", p.Name())
		if err := p.Configure(a.rc, a); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) setupPrivileges() error {
	core := a.cfg.Core()
	if err := identity.Drop(a.resolver, a.switcher, core.User, core.Group, a.rc.Debugf); err != nil {
		return apperr.Setupf("Unable to drop privileges: %v", err).WithCause(err)
	}
	return nil
}

func (a *App) setupLogging() error {
	path := a.cfg.String(config.KeyLogFile)
	if path == "" {
		return nil
	}
	core := a.cfg.Core().Logging
	levels := make([]logging.LogLevel, 3)
	for i, name := range []string{core.LevelConsole, core.LevelFile, core.Level} {
		lvl, err := logging.ParseLevel(name)
		if err != nil {
			return apperr.Setupf("Invalid log severity level '%s'", name).WithCause(err)
		}
		levels[i] = lvl
	}

	closeLog, err := logging.Init(logging.Options{
		AppName: a.name,
		PID:     a.pid,
		Console: logging.ConsoleSink{Enabled: core.ToConsole, Level: levels[0], Writer: a.stderr},
		File:    logging.FileSink{Enabled: core.ToFile, Level: levels[1], Path: path},
		Journal: logging.JournalSink{Enabled: core.ToJournal, Level: levels[2], Identifier: a.name},
	})
	if err != nil {
		return apperr.Setupf("Unable to initialize logging to '%s'", path).WithCause(err)
	}
	a.closeLog = closeLog
	if core.ToConsole {
		a.rc.Debugf("Logging to console with severity threshold '%s'", core.LevelConsole)
	}
	if core.ToFile {
		a.rc.Debugf("Logging to log file '%s' with severity threshold '%s'", path, core.LevelFile)
	}
	return nil
}

func (a *App) setupPState() error {
	path := a.cfg.String(config.KeyPstateFile)
	if path == "" {
		return nil
	}
	a.pstore = pstate.NewStore(path)
	state, err := a.pstore.Load()
	if err != nil {
		return apperr.Setupf("Unable to load persistent state '%s'", path).WithCause(err)
	}
	a.pstate = state
	return nil
}

func (a *App) setupPlugins() error {
	for _, p := range a.plugins {
		a.rc.Debugf("Setting up application plugin '%s'", p.Name())
		if err := p.Setup(a.rc, a); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) setupHandler() error {
	if h, ok := a.handler.(SetupHook); ok {
		return h.OnSetup(a.rc, a)
	}
	return nil
}

func (a *App) setupDump() error {
	if !logging.Enabled(logging.LevelDebug) {
		return nil
	}
	logging.Debug(logSubsystem, "Application name is '%s'", a.name)
	logging.Debug(logSubsystem, "System paths >>>\n%s", jsonconf.Dump(a.paths))
	if a.cfg.String(config.KeyConfigDir) != "" {
		logging.Debug(logSubsystem, "Loaded directory configurations >>>\n%s", jsonconf.Dump(a.sources.Dir))
	}
	if a.cfg.String(config.KeyConfigFile) != "" {
		logging.Debug(logSubsystem, "Loaded file configurations >>>\n%s", jsonconf.Dump(a.sources.File))
	}
	logging.Debug(logSubsystem, "Loaded command line configurations >>>\n%s", jsonconf.Dump(a.sources.CLI))
	logging.Debug(logSubsystem, "Final application configurations >>>\n%s", jsonconf.Dump(a.cfg.ToMap()))
	logging.Debug(logSubsystem, "Loaded persistent state >>>\n%s", pstate.Dump(a.pstate))
	names := make([]string, 0, len(a.plugins))
	for _, p := range a.plugins {
		names = append(names, p.Name())
	}
	logging.Debug(logSubsystem, "Application plugins: %s", strings.Join(names, ", "))
	return nil
}

// barrier runs fn and records any error it returns against the run, so
// the stages after it still execute.
func (a *App) barrier(stage Stage, fn func() error) {
	if err := fn(); err != nil {
		a.Error(describe(stage, err))
	}
}

func describe(stage Stage, err error) string {
	var ce *CommandError
	if errors.As(err, &ce) {
		return "System command error: " + ce.Error()
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Kind == stage.errorKind() {
			return stage.label() + " exception: " + ae.Detail()
		}
		return "Application exception: " + ae.Detail()
	}
	return "Application error: " + err.Error()
}

// Action runs the configured quick action.
func (a *App) Action() error {
	if err := a.transition(StageAction); err != nil {
		return err
	}
	a.TimeMark("stage_action_start", "Start of the action stage")
	name := a.cfg.String(config.KeyAction)
	a.runlog.Action = NormalizeActionName(name)
	a.barrier(StageAction, func() error {
		return a.actions.Dispatch(a.rc, name)
	})
	a.TimeMark("stage_action_stop", "End of the action stage")
	return a.transition(StageDone)
}

// Process runs the handler.
func (a *App) Process() error {
	if err := a.transition(StageProcess); err != nil {
		return err
	}
	a.TimeMark("stage_process_start", "Start of the processing stage")
	a.barrier(StageProcess, func() error {
		return a.handler.Process(a.rc, a)
	})
	a.TimeMark("stage_process_stop", "End of the processing stage")
	return nil
}

// Evaluate analyzes the runlog of the current run.
func (a *App) Evaluate() error {
	if err := a.transition(StageEvaluate); err != nil {
		return err
	}
	a.TimeMark("stage_evaluate_start", "Start of the evaluation stage")
	a.barrier(StageEvaluate, a.evaluate)
	a.TimeMark("stage_evaluate_stop", "End of the evaluation stage")
	return nil
}

func (a *App) evaluate() error {
	analysis, err := runlog.AnalyzeLive(a.runlog, a.clock.Now())
	if err != nil {
		return apperr.Evaluate("Unable to analyze runlog", nil).WithCause(err)
	}
	if h, ok := a.handler.(AnalysisHook); ok {
		h.OnAnalyze(a.runlog, analysis)
	}
	a.analysis = analysis

	if h, ok := a.handler.(EvaluateHook); ok {
		return h.OnEvaluate(a.rc, a, analysis)
	}
	logging.Info(logSubsystem, "Application runtime: '%s' (effectivity %6.2f %%)",
		runlog.FormatDuration(analysis.DurRun), analysis.Effectivity)
	return nil
}

// Teardown persists the state and the runlog. Every step is guarded on its
// own, so a failure in one does not prevent the others.
func (a *App) Teardown() error {
	if err := a.transition(StageTeardown); err != nil {
		return err
	}
	a.TimeMark("stage_teardown_start", "Start of the teardown stage")
	if h, ok := a.handler.(TeardownHook); ok {
		a.barrier(StageTeardown, func() error { return h.OnTeardown(a.rc, a) })
	}
	if a.cfg.String(config.KeyPstateFile) != "" {
		a.barrier(StageTeardown, a.teardownPState)
	}
	a.TimeMark("stage_teardown_stop", "End of the teardown stage")

	a.barrier(StageTeardown, a.finalizeRunlog)
	if a.cfg.String(config.KeyRunlogDir) != "" {
		a.barrier(StageTeardown, a.teardownRunlog)
	}
	if a.cfg.String(config.KeyMetricsFile) != "" {
		a.barrier(StageTeardown, a.writeMetrics)
	}
	return a.transition(StageDone)
}

func (a *App) teardownPState() error {
	if a.cfg.Core().Pstate.Save {
		if err := a.pstore.Save(a.pstate); err != nil {
			return apperr.Teardownf("Unable to save persistent state '%s'", a.pstore.Path()).WithCause(err)
		}
	}
	if a.cfg.Bool(config.KeyPstateDump) {
		a.Printf(0, "Persistent state:\n%s", pstate.Dump(a.pstate))
	}
	if a.cfg.Bool(config.KeyPstateLog) {
		logging.Info(logSubsystem, "Persistent state:\n%s", pstate.Dump(a.pstate))
	}
	return nil
}

func (a *App) finalizeRunlog() error {
	res, err := a.sampler(a.pid)
	if err != nil {
		logging.Debug(logSubsystem, "Unable to sample process resources: %v", err)
	} else {
		a.runlog.Resources = res
	}
	a.runlog.Finalize(a.retc)
	return nil
}

func (a *App) teardownRunlog() error {
	if a.cfg.Core().Runlog.Save {
		if _, err := runlog.NewStore(a.cfg.String(config.KeyRunlogDir)).Save(a.runlog); err != nil {
			return apperr.Teardownf("Unable to save runlog").WithCause(err)
		}
	}
	if a.cfg.Bool(config.KeyRunlogDump) {
		a.Printf(0, "Application runlog:\n%s", jsonconf.Dump(a.runlog))
	}
	if a.cfg.Bool(config.KeyRunlogLog) {
		logging.Info(logSubsystem, "Application runlog:\n%s", jsonconf.Dump(a.runlog))
	}
	return nil
}

func (a *App) writeMetrics() error {
	path := a.cfg.String(config.KeyMetricsFile)
	if err := runlog.WriteMetrics(path, a.runlog, a.analysis); err != nil {
		return apperr.Teardownf("Unable to write metrics to '%s'", path).WithCause(err)
	}
	return nil
}

// shutdownLogging closes the sinks opened during setup and falls back to
// console logging.
func (a *App) shutdownLogging() {
	if a.closeLog == nil {
		return
	}
	if err := a.closeLog(); err != nil {
		fmt.Fprintf(a.stderr, "Unable to close log file: %v\n", err)
	}
	a.closeLog = nil
	logging.InitForCLI(logging.LevelInfo, os.Stderr)
}
