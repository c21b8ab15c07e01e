package baseapp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"stagehand/pkg/config"
	"stagehand/pkg/logging"
	"stagehand/pkg/render"
)

// configKeyAnnotation maps a flag to a configuration key other than its
// name with dashes replaced by underscores.
const configKeyAnnotation = "stagehand/config-key"

// EnumValue is a string flag restricted to a fixed set of choices.
type EnumValue struct {
	value     string
	choices   []string
	normalize func(string) string
}

// NewEnumValue creates an EnumValue. Input is passed through normalize,
// strings.ToLower when nil, before it is matched against choices.
func NewEnumValue(choices []string, normalize func(string) string) *EnumValue {
	if normalize == nil {
		normalize = strings.ToLower
	}
	return &EnumValue{choices: choices, normalize: normalize}
}

func (e *EnumValue) String() string { return e.value }

func (e *EnumValue) Set(s string) error {
	v := e.normalize(s)
	for _, c := range e.choices {
		if c == v {
			e.value = v
			return nil
		}
	}
	return fmt.Errorf("invalid choice %q, must be one of: %s", s, strings.Join(e.choices, ", "))
}

func (e *EnumValue) Type() string { return "choice" }

// SetConfigKey makes the flag name store its value under key.
func SetConfigKey(flags *pflag.FlagSet, name, key string) {
	_ = flags.SetAnnotation(name, configKeyAnnotation, []string{key})
}

// newCommand builds the cobra command and assigns it to a.cmd before the
// flags are added, so plugins may register flag groups on it.
func (a *App) newCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.description,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := a.Run(cmd.Context()); code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}
	if a.version != "" {
		cmd.Version = a.version
	}
	a.cmd = cmd
	a.initFlags(cmd.Flags())
	cmd.MarkFlagsMutuallyExclusive("quiet", "verbose")
}

func (a *App) initFlags(fs *pflag.FlagSet) {
	fs.Bool("debug", false, "run in debug mode")
	fs.BoolP("quiet", "q", false, "run in quiet mode")
	fs.CountP("verbose", "v", "increase output verbosity")
	SetConfigKey(fs, "verbose", config.KeyVerbosity)
	fs.String("name", "", "name of the application")

	fs.StringP("user", "u", "", "process privilege drop user")
	fs.StringP("group", "g", "", "process privilege drop group")

	fs.StringP("config-file", "c", "", "name of the config file")
	fs.String("config-dir", "", "name of the config directory")
	fs.Bool("config-file-silent", false, "do not complain about missing config file")
	fs.Bool("config-dir-silent", false, "do not complain about missing config directory")

	levels := logging.LevelNames()
	fs.String("log-file", "", "name of the log file")
	fs.Var(NewEnumValue(levels, nil), "log-level", "logging level ("+strings.Join(levels, ", ")+")")
	fs.Var(NewEnumValue(levels, nil), "log-level-console", "console logging level, defaults to --log-level")
	fs.Var(NewEnumValue(levels, nil), "log-level-file", "file logging level, defaults to --log-level")
	fs.Bool("log-journal", false, "also log to the systemd journal")

	names := a.actions.Names()
	fs.VarP(NewEnumValue(names, NormalizeActionName), "action", "a", "name of the quick action ("+strings.Join(names, ", ")+")")
	fs.StringP("input", "i", "", "name of the input file")
	fs.Int("limit", 0, "apply given limit to the result")
	fs.Var(NewEnumValue(render.Formats(), nil), "format", "output format of dumps ("+strings.Join(render.Formats(), ", ")+")")

	fs.String("pstate-file", "", "name of the persistent state file")
	fs.Bool("pstate-dump", false, "dump persistent state to stdout when done")
	fs.Bool("pstate-log", false, "write persistent state to logger when done")
	fs.String("runlog-dir", "", "name of the runlog directory")
	fs.Bool("runlog-dump", false, "dump runlog to stdout when done")
	fs.Bool("runlog-log", false, "write runlog to logger when done")
	fs.String("metrics-file", "", "write run metrics in Prometheus text format to this file")

	for _, p := range a.plugins {
		p.InitFlags(a, fs)
	}
}

// cliConfig returns the command line configuration source. Only flags set
// by the user are included, so an absent flag never overrides a value from
// another source.
func (a *App) cliConfig() map[string]interface{} {
	fs := a.cmd.Flags()
	out := map[string]interface{}{}
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "help" || f.Name == "version" {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if keys := f.Annotations[configKeyAnnotation]; len(keys) > 0 {
			key = keys[0]
		}
		out[key] = flagValue(fs, f)
	})
	return out
}

func flagValue(fs *pflag.FlagSet, f *pflag.Flag) interface{} {
	switch f.Value.Type() {
	case "bool":
		v, _ := strconv.ParseBool(f.Value.String())
		return v
	case "int", "count":
		v, _ := strconv.Atoi(f.Value.String())
		return v
	case "stringSlice":
		v, _ := fs.GetStringSlice(f.Name)
		return v
	default:
		return f.Value.String()
	}
}
