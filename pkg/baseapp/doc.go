// Package baseapp provides the lifecycle framework for command line
// applications.
//
// An App runs through a fixed sequence of stages:
//
//	created -> setup -> action -> done
//	created -> setup -> process -> evaluate -> teardown -> done
//
// Setup merges the configuration sources (defaults, configuration
// directory, configuration file and command line, in increasing order of
// precedence), drops privileges, initializes logging, loads the persistent
// state and sets up every plugin. A failure during setup ends the run
// immediately. Errors in later stages are recorded in the runlog and fail
// the run, but the remaining stages still execute, so the persistent state
// and the runlog are always written.
//
// When the action option is set, the named quick action runs instead of
// the process stage. Built-in actions inspect the configuration and the
// stored runlogs.
//
// Applications supply a Handler with their business logic and may extend
// the framework with Plugins and the optional handler hooks.
package baseapp
