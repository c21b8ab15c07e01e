// Package demo is a small script application built on the framework. It
// keeps a run counter in its persistent state and shows how output,
// logging and external commands behave in the different modes.
package demo

import (
	"strings"

	"stagehand/pkg/baseapp"
	"stagehand/pkg/config"
	"stagehand/pkg/logging"
	"stagehand/pkg/script"
)

// Name is the default application name.
const Name = "stagehand"

const logSubsystem = "Demo"

// New creates the demo application.
func New(opts baseapp.Options) (*baseapp.App, error) {
	s, err := NewScript()
	if err != nil {
		return nil, err
	}
	if opts.Name == "" {
		opts.Name = Name
	}
	if opts.Description == "" {
		opts.Description = "Demonstration script of the stagehand application framework"
	}
	defaults := map[string]interface{}{
		config.KeyConfigFileSilent: true,
		config.KeyConfigDirSilent:  true,
	}
	for k, v := range opts.Defaults {
		defaults[k] = v
	}
	opts.Defaults = defaults
	return script.NewApp(opts, s)
}

// NewScript creates the demo script with its commands.
func NewScript() (*script.Script, error) {
	s := &demoScript{}
	var err error
	s.Script, err = script.New("default",
		script.Command{Name: "default", Help: "count the run and greet", Run: s.commandDefault},
		script.Command{Name: "alternative", Help: "count the run quietly", Run: s.commandAlternative},
		script.Command{Name: "system", Help: "report the host kernel", Run: s.commandSystem},
	)
	return s.Script, err
}

// demoScript gives the command implementations access to the script for
// the configured time thresholds.
type demoScript struct {
	*script.Script
}

func countRun(app *baseapp.App) int {
	state := app.PState()
	if state == nil {
		return 0
	}
	counter, _ := state["counter"].(float64)
	counter++
	state["counter"] = counter
	return int(counter)
}

func greet(app *baseapp.App) {
	app.Printf(0, "Hello world")
	app.Printf(1, "Hello world, verbosity level 1")
	app.Printf(2, "Hello world, verbosity level 2")
	app.Printf(3, "Hello world, verbosity level 3")
}

func (s *demoScript) commandDefault(rc *baseapp.RunContext, app *baseapp.App) (interface{}, error) {
	runs := countRun(app)
	upper, err := s.UpperThreshold(app)
	if err != nil {
		return nil, err
	}

	logging.Info(logSubsystem, "Demonstration implementation for default script command")
	logging.Info(logSubsystem, "Number of runs from persistent state: '%d'", runs)
	logging.Info(logSubsystem, "Current upper time boundary: '%s'", upper.Format("2006-01-02T15:04:05Z07:00"))
	greet(app)

	return map[string]interface{}{"result": "success", "data": 5, "runs": runs}, nil
}

func (s *demoScript) commandAlternative(rc *baseapp.RunContext, app *baseapp.App) (interface{}, error) {
	runs := countRun(app)
	logging.Info(logSubsystem, "Demonstration implementation for alternative script command")
	logging.Info(logSubsystem, "Number of runs from persistent state: '%d'", runs)
	greet(app)

	return map[string]interface{}{"result": "success", "data": 100, "runs": runs}, nil
}

func (s *demoScript) commandSystem(rc *baseapp.RunContext, app *baseapp.App) (interface{}, error) {
	res, err := app.ExecuteCommand(rc, "uname -sr", false)
	if err != nil {
		return nil, err
	}
	kernel := strings.TrimSpace(res.Stdout)
	app.Printf(0, "Kernel: %s", kernel)
	return map[string]interface{}{"result": "success", "kernel": kernel}, nil
}
