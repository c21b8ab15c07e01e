// Package script turns a baseapp application into a one-shot script with
// named commands, regular and shell execution modes and helpers for the
// time window a regular execution covers.
package script

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"stagehand/pkg/apperr"
	"stagehand/pkg/baseapp"
	"stagehand/pkg/config"
	"stagehand/pkg/logging"
)

// Configuration keys added by the script plugin.
const (
	KeyRegular          = "regular"
	KeyShell            = "shell"
	KeyCommand          = "command"
	KeyInterval         = "interval"
	KeyAdjustThresholds = "adjust_thresholds"
	KeyTimeHigh         = "time_high"
)

const logSubsystem = "Script"

// CommandFunc implements a script command. Its result is stored in the
// runlog under the command name.
type CommandFunc func(rc *baseapp.RunContext, app *baseapp.App) (interface{}, error)

// Command is a named script command.
type Command struct {
	Name string
	Help string
	Run  CommandFunc
}

var (
	_ baseapp.Plugin  = (*Script)(nil)
	_ baseapp.Handler = (*Script)(nil)
)

// Script is both the plugin adding the script options and the handler
// dispatching the selected command.
type Script struct {
	baseapp.PluginDefaults

	commands       map[string]Command
	defaultCommand string
	timeHigh       time.Time
}

// New creates a script from its commands. defaultCommand runs when no
// --command is given.
func New(defaultCommand string, commands ...Command) (*Script, error) {
	s := &Script{commands: make(map[string]Command, len(commands))}
	for _, c := range commands {
		name := baseapp.NormalizeActionName(c.Name)
		if name == "" || c.Run == nil {
			return nil, errors.New("script command needs a name and an implementation")
		}
		if _, exists := s.commands[name]; exists {
			return nil, fmt.Errorf("script command '%s' registered more than once", name)
		}
		c.Name = name
		s.commands[name] = c
	}
	s.defaultCommand = baseapp.NormalizeActionName(defaultCommand)
	if _, ok := s.commands[s.defaultCommand]; !ok {
		return nil, fmt.Errorf("default script command '%s' is not registered", defaultCommand)
	}
	return s, nil
}

// NewApp creates an application running s. The script is registered as
// the handler and as the first plugin.
func NewApp(opts baseapp.Options, s *Script) (*baseapp.App, error) {
	opts.Handler = s
	opts.Plugins = append([]baseapp.Plugin{s}, opts.Plugins...)
	return baseapp.New(opts)
}

// Name identifies the plugin.
func (s *Script) Name() string { return "script" }

// Commands returns the sorted command names.
func (s *Script) Commands() []string {
	names := make([]string, 0, len(s.commands))
	for n := range s.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultCommand returns the name of the default command.
func (s *Script) DefaultCommand() string { return s.defaultCommand }

// TimeHigh returns the upper time threshold of the run.
func (s *Script) TimeHigh() time.Time { return s.timeHigh }

// InitFlags adds the script options.
func (s *Script) InitFlags(app *baseapp.App, fs *pflag.FlagSet) {
	fs.Bool("regular", false, "operational mode: regular script execution")
	fs.Bool("shell", false, "operational mode: manual script execution from shell")
	app.Command().MarkFlagsMutuallyExclusive("regular", "shell")

	commands := s.Commands()
	fs.Var(baseapp.NewEnumValue(commands, baseapp.NormalizeActionName), "command",
		"name of the script command to be executed ("+strings.Join(commands, ", ")+")")
	fs.Var(baseapp.NewEnumValue(IntervalNames(), nil), "interval", "time interval for regular executions")
	fs.Bool("adjust-thresholds", false, "round time interval thresholds down to the interval size")
	fs.String("time-high", "", "upper time interval threshold (RFC 3339 or unix timestamp)")
}

// InitConfig adds the script defaults.
func (s *Script) InitConfig(app *baseapp.App, defaults map[string]interface{}) {
	defaults[KeyRegular] = false
	defaults[KeyShell] = false
	defaults[KeyCommand] = s.defaultCommand
	defaults[KeyInterval] = nil
	defaults[KeyAdjustThresholds] = false
	defaults[KeyTimeHigh] = nil
}

// Configure applies the execution mode to the core configuration and
// validates the script options.
func (s *Script) Configure(rc *baseapp.RunContext, app *baseapp.App) error {
	cfg := app.Config()

	switch {
	case cfg.Bool(KeyShell):
		if err := cfg.UpdateCore(func(c *config.Core) {
			c.Logging.ToFile = false
			c.Runlog.Save = false
			c.Pstate.Save = false
		}); err != nil {
			return err
		}
		rc.Debugf("Logging to log file, runlog saving and persistent state saving are suppressed by '--shell'")
	case cfg.Bool(KeyRegular):
		if err := cfg.Set(config.KeyQuiet, true); err != nil {
			return err
		}
		if err := cfg.UpdateCore(func(c *config.Core) {
			c.Logging.LevelConsole = logging.LevelWarn.String()
			c.Logging.ToFile = true
			c.Runlog.Save = true
			c.Pstate.Save = true
		}); err != nil {
			return err
		}
		rc.Debugf("Console output is suppressed and console logging level is forced to 'WARNING' by '--regular'")
	}

	if interval := cfg.String(KeyInterval); interval != "" {
		if _, err := intervalSeconds(interval); err != nil {
			return apperr.Setupf("Invalid value for '%s': %v", KeyInterval, err)
		}
	}

	s.timeHigh = app.Clock().Now().UTC()
	if raw := cfg.String(KeyTimeHigh); raw != "" {
		t, err := ParseTime(raw)
		if err != nil {
			return apperr.Setupf("Invalid value for '%s': %v", KeyTimeHigh, err)
		}
		s.timeHigh = t
	}
	return nil
}

// Setup reports the resolved script options once logging is available.
func (s *Script) Setup(rc *baseapp.RunContext, app *baseapp.App) error {
	cfg := app.Config()
	logging.Debug("Script", "Script command '%s', interval '%s', upper time boundary '%s'",
		baseapp.NormalizeActionName(cfg.String(KeyCommand)), s.interval(app), s.timeHigh.Format(time.RFC3339))
	return nil
}

// Process runs the configured command.
func (s *Script) Process(rc *baseapp.RunContext, app *baseapp.App) error {
	name := baseapp.NormalizeActionName(app.Config().String(KeyCommand))
	app.Runlog().Command = name
	return s.Execute(rc, app, name)
}

// Execute runs the named command and stores its result in the runlog.
func (s *Script) Execute(rc *baseapp.RunContext, app *baseapp.App, name string) error {
	cmd, ok := s.commands[baseapp.NormalizeActionName(name)]
	if !ok {
		return apperr.Processf("Invalid script command '%s', available commands: %s", name, strings.Join(s.Commands(), ", "))
	}
	logging.Info(logSubsystem, "Executing script command '%s'", cmd.Name)
	result, err := cmd.Run(rc, app)
	if err != nil {
		return err
	}
	app.Runlog().Set(cmd.Name, result)
	return nil
}

func (s *Script) interval(app *baseapp.App) string {
	if interval := app.Config().String(KeyInterval); interval != "" {
		return interval
	}
	return DefaultInterval
}

// Thresholds returns the time window covered by this run, derived from the
// configured upper threshold, interval and adjustment.
func (s *Script) Thresholds(app *baseapp.App) (time.Time, time.Time, error) {
	return Thresholds(s.timeHigh, s.interval(app), app.Config().Bool(KeyAdjustThresholds))
}

// UpperThreshold returns the configured upper threshold, adjusted when
// requested.
func (s *Script) UpperThreshold(app *baseapp.App) (time.Time, error) {
	return UpperThreshold(s.timeHigh, s.interval(app), app.Config().Bool(KeyAdjustThresholds))
}
