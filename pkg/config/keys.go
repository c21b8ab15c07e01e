package config

import "path/filepath"

// Configuration keys understood by the framework.
const (
	KeyDebug            = "debug"
	KeyQuiet            = "quiet"
	KeyVerbosity        = "verbosity"
	KeyName             = "name"
	KeyAction           = "action"
	KeyInput            = "input"
	KeyLimit            = "limit"
	KeyFormat           = "format"
	KeyUser             = "user"
	KeyGroup            = "group"
	KeyConfigFile       = "config_file"
	KeyConfigDir        = "config_dir"
	KeyConfigFileSilent = "config_file_silent"
	KeyConfigDirSilent  = "config_dir_silent"
	KeyLogFile          = "log_file"
	KeyLogLevel         = "log_level"
	KeyLogLevelConsole  = "log_level_console"
	KeyLogLevelFile     = "log_level_file"
	KeyLogJournal       = "log_journal"
	KeyPidFile          = "pid_file"
	KeyPstateFile       = "pstate_file"
	KeyPstateDump       = "pstate_dump"
	KeyPstateLog        = "pstate_log"
	KeyRunlogDir        = "runlog_dir"
	KeyRunlogDump       = "runlog_dump"
	KeyRunlogLog        = "runlog_log"
	KeyMetricsFile      = "metrics_file"

	// KeyCore holds the derived core namespace. It is computed during
	// post-processing and ignored when it appears in any source.
	KeyCore = "__core__"
)

// locationKeys are resolved in the first merge phase since they decide
// where the file and directory sources are read from.
var locationKeys = []string{KeyConfigFile, KeyConfigDir, KeyConfigFileSilent, KeyConfigDirSilent}

// fileExcluded keys are never taken from the file or directory sources.
var fileExcluded = map[string]bool{
	KeyConfigFile: true,
	KeyConfigDir:  true,
}

// pathKeys hold filesystem locations and are rendered as templates.
var pathKeys = []string{
	KeyConfigFile, KeyConfigDir, KeyLogFile, KeyPidFile,
	KeyPstateFile, KeyRunlogDir, KeyMetricsFile,
}

// Paths are the well-known application directories.
type Paths struct {
	Bin string `json:"bin"`
	Cfg string `json:"cfg"`
	Var string `json:"var"`
	Log string `json:"log"`
	Run string `json:"run"`
	Tmp string `json:"tmp"`
}

// NewPaths lays out the application directories below root.
func NewPaths(root string) Paths {
	if root == "" {
		root = "/"
	}
	return Paths{
		Bin: filepath.Join(root, "usr", "local", "bin"),
		Cfg: filepath.Join(root, "etc"),
		Var: filepath.Join(root, "var"),
		Log: filepath.Join(root, "var", "log"),
		Run: filepath.Join(root, "var", "run"),
		Tmp: filepath.Join(root, "var", "tmp"),
	}
}

// Map returns the paths keyed by their short names.
func (p Paths) Map() map[string]interface{} {
	return map[string]interface{}{
		"bin": p.Bin,
		"cfg": p.Cfg,
		"var": p.Var,
		"log": p.Log,
		"run": p.Run,
		"tmp": p.Tmp,
	}
}
