package baseapp

import (
	"context"
	"fmt"
	"io"
	"os"

	"stagehand/pkg/clock"
)

// RunContext carries per-run state through every hook, action and plugin
// call. Debug output written through Debugf goes to Stderr and is only
// produced when Debug is set, even before logging is configured.
type RunContext struct {
	Ctx    context.Context
	Debug  bool
	Stdout io.Writer
	Stderr io.Writer
	Clock  clock.Clock
}

// Context returns Ctx, or a background context when unset.
func (rc *RunContext) Context() context.Context {
	if rc == nil || rc.Ctx == nil {
		return context.Background()
	}
	return rc.Ctx
}

// Debugf writes a timestamped debug line to Stderr when Debug is set.
func (rc *RunContext) Debugf(format string, args ...interface{}) {
	if rc == nil || !rc.Debug {
		return
	}
	w := rc.Stderr
	if w == nil {
		w = os.Stderr
	}
	now := clock.Clock(clock.Real{})
	if rc.Clock != nil {
		now = rc.Clock
	}
	fmt.Fprintf(w, "* %s DBGOUT: %s\n", now.Now().Format("2006-01-02 15:04:05"), fmt.Sprintf(format, args...))
}
