package config

import (
	"errors"

	"stagehand/pkg/apperr"
	"stagehand/pkg/jsonconf"
)

// LoadFunc reads one configuration source. A missing path must yield an
// error wrapping jsonconf.ErrNotFound unless silent is set.
type LoadFunc func(path string, silent bool) (map[string]interface{}, error)

// Loader merges the configuration sources in two phases. The first phase
// decides where the file and directory sources live, honouring command line
// overrides; the second reads them and merges everything.
type Loader struct {
	LoadFile LoadFunc
	LoadDir  LoadFunc
	Debugf   func(format string, args ...interface{})
}

// NewLoader creates a loader reading sources from the filesystem.
func NewLoader(debugf func(format string, args ...interface{})) *Loader {
	if debugf == nil {
		debugf = func(string, ...interface{}) {}
	}
	return &Loader{
		LoadFile: jsonconf.ConfigLoad,
		LoadDir:  jsonconf.ConfigLoadDir,
		Debugf:   debugf,
	}
}

// Result holds the merged configuration together with every source it was
// built from.
type Result struct {
	Defaults   map[string]interface{}
	Dir        map[string]interface{}
	File       map[string]interface{}
	CLI        map[string]interface{}
	ConfigFile string
	ConfigDir  string
	Config     *Configuration
}

// Load runs both merge phases.
func (l *Loader) Load(defaults, cli map[string]interface{}, data TemplateData) (*Result, error) {
	res := &Result{Defaults: defaults, CLI: cli}

	// Phase one: locate the file and directory sources.
	loc := Merge(pick(defaults, locationKeys), nil, nil, pick(cli, locationKeys))
	var err error
	if res.ConfigFile, err = RenderPath(loc.String(KeyConfigFile), data); err != nil {
		return nil, apperr.Setupf("Invalid configuration file path '%s'", loc.String(KeyConfigFile)).WithCause(err)
	}
	if res.ConfigDir, err = RenderPath(loc.String(KeyConfigDir), data); err != nil {
		return nil, apperr.Setupf("Invalid configuration directory path '%s'", loc.String(KeyConfigDir)).WithCause(err)
	}

	// Phase two: read the sources and merge.
	if res.ConfigFile != "" {
		l.Debugf("Loading configuration file '%s'", res.ConfigFile)
		res.File, err = l.LoadFile(res.ConfigFile, loc.Bool(KeyConfigFileSilent))
		if err != nil {
			return nil, sourceFailure("file", res.ConfigFile, err)
		}
	}
	if res.ConfigDir != "" {
		l.Debugf("Loading configuration directory '%s'", res.ConfigDir)
		res.Dir, err = l.LoadDir(res.ConfigDir, loc.Bool(KeyConfigDirSilent))
		if err != nil {
			return nil, sourceFailure("dir", res.ConfigDir, err)
		}
	}

	res.Config = Merge(defaults, res.Dir, res.File, cli)
	for _, k := range locationKeys {
		if v := loc.Value(k); v != nil {
			res.Config.set(k, v)
		}
	}
	return res, nil
}

func sourceFailure(source, path string, err error) error {
	se := &SourceError{Source: source, Path: path, Err: err}
	noun := "file"
	if source == "dir" {
		noun = "directory"
	}
	if errors.Is(err, jsonconf.ErrNotFound) {
		se.ErrorType = "missing"
		se.Message = "does not exist"
		se.Suggestions = []string{"create it or set --config-" + source + "-silent"}
		return apperr.Setupf("Configuration %s '%s' does not exist", noun, path).WithCause(se)
	}
	se.ErrorType = "parse"
	se.Message = err.Error()
	return apperr.Setupf("Unable to load configuration %s '%s'", noun, path).WithCause(se)
}
