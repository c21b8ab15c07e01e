// Package logging provides the structured logging used by stagehand
// applications.
//
// It is built on log/slog. Every record carries a subsystem attribute naming
// the part of the application that produced it, and messages are formatted
// printf style:
//
//	logging.Info("Setup", "Loaded configuration from %s", path)
//	logging.Error("Teardown", err, "Unable to save persistent state")
//
// # Sinks
//
// A console sink at INFO writing to stderr is active from program start.
// Init replaces it with any combination of:
//
//   - a console sink with its own threshold
//   - a file sink in append mode, records tagged with the application name and pid
//   - a systemd journal sink (github.com/coreos/go-systemd/v22/journal)
//
// Records are fanned out to every sink whose threshold accepts them, so the
// console can stay at WARNING while the log file captures DEBUG.
//
// # Levels
//
// DEBUG, INFO, WARNING, ERROR and CRITICAL. ParseLevel accepts the lower
// case names used by the --log-level option.
package logging
