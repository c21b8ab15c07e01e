package baseapp

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"stagehand/pkg/apperr"
	"stagehand/pkg/config"
	"stagehand/pkg/render"
	"stagehand/pkg/runlog"
)

// ActionFunc runs a quick action instead of the regular processing stages.
type ActionFunc func(rc *RunContext) error

// Action is a named quick action.
type Action struct {
	Name string
	Help string
	Run  ActionFunc
}

// ActionRegistry maps normalized action names to actions.
type ActionRegistry struct {
	actions map[string]Action
}

// NormalizeActionName lower-cases name and replaces underscores with dashes,
// so config_view and Config-View both select config-view.
func NormalizeActionName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// NewActionRegistry builds a registry. Empty names, missing functions and
// names colliding after normalization are rejected.
func NewActionRegistry(actions ...Action) (*ActionRegistry, error) {
	r := &ActionRegistry{actions: make(map[string]Action, len(actions))}
	for _, a := range actions {
		name := NormalizeActionName(a.Name)
		if name == "" {
			return nil, errors.New("action name cannot be empty")
		}
		if a.Run == nil {
			return nil, fmt.Errorf("action '%s' has no implementation", name)
		}
		if _, exists := r.actions[name]; exists {
			return nil, fmt.Errorf("action '%s' registered more than once", name)
		}
		a.Name = name
		r.actions[name] = a
	}
	return r, nil
}

// Names returns the sorted action names.
func (r *ActionRegistry) Names() []string {
	names := make([]string, 0, len(r.actions))
	for n := range r.actions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup finds an action by name.
func (r *ActionRegistry) Lookup(name string) (Action, bool) {
	a, ok := r.actions[NormalizeActionName(name)]
	return a, ok
}

// Dispatch runs the named action.
func (r *ActionRegistry) Dispatch(rc *RunContext, name string) error {
	a, ok := r.Lookup(name)
	if !ok {
		return apperr.Processf("Invalid action '%s', available actions: %s", name, strings.Join(r.Names(), ", "))
	}
	rc.Debugf("Executing action '%s'", a.Name)
	return a.Run(rc)
}

func (a *App) builtinActions() []Action {
	return []Action{
		{Name: "config_view", Help: "view current application configuration", Run: a.actionConfigView},
		{Name: "runlog_dump", Help: "dump the given or the most recent runlog", Run: a.actionRunlogDump},
		{Name: "runlog_view", Help: "analyze the given or the most recent runlog", Run: a.actionRunlogView},
		{Name: "runlogs_dump", Help: "dump all runlogs", Run: a.actionRunlogsDump},
		{Name: "runlogs_list", Help: "list all runlogs", Run: a.actionRunlogsList},
		{Name: "runlogs_evaluate", Help: "evaluate all runlogs", Run: a.actionRunlogsEvaluate},
	}
}

func (a *App) actionConfigView(rc *RunContext) error {
	lines, err := render.Format(a.cfg.ToMap(), a.cfg.String(config.KeyFormat))
	if err != nil {
		return apperr.Processf("Unable to render configuration: %v", err)
	}
	a.Printf(0, "Application configurations:")
	a.PrintLines(0, lines)
	return nil
}

func (a *App) runlogStore() *runlog.Store {
	return runlog.NewStore(a.cfg.String(config.KeyRunlogDir))
}

// runlogPath returns --input or the most recent runlog.
func (a *App) runlogPath() (string, error) {
	if input := a.cfg.String(config.KeyInput); input != "" {
		return input, nil
	}
	path, err := a.runlogStore().Latest()
	if err != nil {
		return "", apperr.Processf("No runlogs found in '%s'", a.cfg.String(config.KeyRunlogDir)).WithCause(err)
	}
	return path, nil
}

func (a *App) loadRunlog() (*runlog.Runlog, string, error) {
	path, err := a.runlogPath()
	if err != nil {
		return nil, "", err
	}
	rl, err := runlog.Load(path)
	if err != nil {
		return nil, path, apperr.Processf("Unable to load runlog '%s'", path).WithCause(err)
	}
	return rl, path, nil
}

func (a *App) loadRunlogs() ([]*runlog.Runlog, error) {
	runlogs, err := a.runlogStore().LoadAll(a.cfg.Int(config.KeyLimit))
	if err != nil {
		return nil, apperr.Processf("Unable to load runlogs from '%s'", a.cfg.String(config.KeyRunlogDir)).WithCause(err)
	}
	return runlogs, nil
}

func (a *App) actionRunlogDump(rc *RunContext) error {
	rl, path, err := a.loadRunlog()
	if err != nil {
		return err
	}
	lines, err := render.Format(rl, a.cfg.String(config.KeyFormat))
	if err != nil {
		return apperr.Processf("Unable to render runlog: %v", err)
	}
	a.Printf(0, "Runlog '%s':", path)
	a.PrintLines(0, lines)
	return nil
}

func (a *App) actionRunlogView(rc *RunContext) error {
	rl, path, err := a.loadRunlog()
	if err != nil {
		return err
	}
	analysis, err := runlog.Analyze(rl, a.now())
	if err != nil {
		return apperr.Processf("Unable to analyze runlog '%s'", path).WithCause(err)
	}
	a.Printf(0, "Runlog '%s':", path)
	a.PrintLines(0, runlog.FormatAnalysis(analysis))
	return nil
}

func (a *App) actionRunlogsDump(rc *RunContext) error {
	runlogs, err := a.loadRunlogs()
	if err != nil {
		return err
	}
	lines, err := render.Format(runlogs, a.cfg.String(config.KeyFormat))
	if err != nil {
		return apperr.Processf("Unable to render runlogs: %v", err)
	}
	a.Printf(0, "Runlogs in '%s':", a.cfg.String(config.KeyRunlogDir))
	a.PrintLines(0, lines)
	return nil
}

func (a *App) actionRunlogsList(rc *RunContext) error {
	runlogs, err := a.loadRunlogs()
	if err != nil {
		return err
	}
	a.Printf(0, "Listing existing runlogs in '%s':", a.cfg.String(config.KeyRunlogDir))
	a.PrintLines(0, runlog.FormatList(runlogs))
	a.Printf(0, "Total: %d", len(runlogs))
	return nil
}

func (a *App) actionRunlogsEvaluate(rc *RunContext) error {
	runlogs, err := a.loadRunlogs()
	if err != nil {
		return err
	}
	ev, err := runlog.Evaluate(runlogs, a.now())
	if err != nil {
		return apperr.Processf("Unable to evaluate runlogs").WithCause(err)
	}
	a.Printf(0, "Evaluation of runlogs in '%s':", a.cfg.String(config.KeyRunlogDir))
	a.PrintLines(0, runlog.FormatEvaluation(ev))
	return nil
}

func (a *App) now() time.Time {
	return a.clock.Now()
}
