package config

import (
	"stagehand/pkg/apperr"
	"stagehand/pkg/identity"
	"stagehand/pkg/logging"
)

// Postprocess renders path templates and derives the core namespace:
// logging thresholds, persistence switches and the resolved process
// identity. Unknown accounts and invalid levels are setup errors.
func Postprocess(cfg *Configuration, resolver identity.Resolver, data TemplateData) error {
	if err := renderPaths(cfg, data); err != nil {
		return apperr.Setupf("Invalid path in configuration: %v", err).WithCause(err)
	}

	level, err := parseLevel(cfg, KeyLogLevel, "info")
	if err != nil {
		return err
	}
	levelConsole, err := parseLevel(cfg, KeyLogLevelConsole, level)
	if err != nil {
		return err
	}
	levelFile, err := parseLevel(cfg, KeyLogLevelFile, level)
	if err != nil {
		return err
	}

	core := Core{
		Logging: LoggingCore{
			ToConsole:    true,
			ToFile:       true,
			ToJournal:    cfg.Bool(KeyLogJournal),
			Level:        level,
			LevelConsole: levelConsole,
			LevelFile:    levelFile,
		},
		Pstate: PersistCore{Save: true},
		Runlog: PersistCore{Save: true},
	}

	if name := cfg.String(KeyUser); name != "" {
		acc, err := resolver.LookupUser(name)
		if err != nil {
			return apperr.Setup("Requested unknown user account '"+name+"'", map[string]interface{}{"user": name}).WithCause(err)
		}
		core.User = &acc
	}
	if name := cfg.String(KeyGroup); name != "" {
		acc, err := resolver.LookupGroup(name)
		if err != nil {
			return apperr.Setup("Requested unknown group account '"+name+"'", map[string]interface{}{"group": name}).WithCause(err)
		}
		core.Group = &acc
	}

	return cfg.SetCore(core)
}

// parseLevel returns the canonical upper case name of the level stored
// under key, or fallback when the key is unset.
func parseLevel(cfg *Configuration, key, fallback string) (string, error) {
	raw := cfg.String(key)
	if raw == "" {
		raw = fallback
	}
	lvl, err := logging.ParseLevel(raw)
	if err != nil {
		return "", apperr.Setupf("Invalid log level '%s' for '%s'", raw, key).WithCause(err)
	}
	return lvl.String(), nil
}
