// Package runlog records what happened during a single application run:
// identity, timing marks, errors and the final result. Runlogs are persisted
// as JSON documents and can later be analyzed and evaluated in bulk.
package runlog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stagehand/pkg/clock"
)

// Run results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Return codes.
const (
	RCSuccess = 0
	RCFailure = 1
)

const (
	fsfLayout = "20060102150405"
	strLayout = "2006-01-02 15:04:05"
)

// TimeMark is one timestamped checkpoint. Idents ending in _start and _stop
// bracket a phase.
type TimeMark struct {
	Ident string  `json:"ident"`
	Descr string  `json:"descr"`
	Time  float64 `json:"time"`
}

// Runlog is the record of a single run.
type Runlog struct {
	UID       string     `json:"uid"`
	Name      string     `json:"name"`
	PID       int        `json:"pid"`
	Argv      []string   `json:"argv"`
	TS        float64    `json:"ts"`
	TSFSF     string     `json:"ts_fsf"`
	TSStr     string     `json:"ts_str"`
	Result    string     `json:"result"`
	RC        int        `json:"rc"`
	Errors    []string   `json:"errors"`
	TimeMarks []TimeMark `json:"time_marks"`
	Action    string     `json:"action,omitempty"`
	Command   string     `json:"command,omitempty"`
	Resources *Resources `json:"resources,omitempty"`

	// Extra holds fields contributed by plugins and handlers. They are
	// inlined at the top level of the JSON document.
	Extra map[string]interface{} `json:"-"`

	finalized bool
}

// knownFields are the JSON keys owned by Runlog itself.
var knownFields = []string{
	"uid", "name", "pid", "argv", "ts", "ts_fsf", "ts_str", "result", "rc",
	"errors", "time_marks", "action", "command", "resources",
}

// New creates a successful, empty runlog started at now.
func New(name string, pid int, argv []string, now time.Time) *Runlog {
	return &Runlog{
		UID:       uuid.New().String(),
		Name:      name,
		PID:       pid,
		Argv:      append([]string(nil), argv...),
		TS:        clock.Seconds(now),
		TSFSF:     now.Format(fsfLayout),
		TSStr:     now.Format(strLayout),
		Result:    ResultSuccess,
		RC:        RCSuccess,
		Errors:    []string{},
		TimeMarks: []TimeMark{},
		Extra:     map[string]interface{}{},
	}
}

// Mark appends a time mark.
func (r *Runlog) Mark(ident, descr string, at time.Time) TimeMark {
	tm := TimeMark{Ident: ident, Descr: descr, Time: clock.Seconds(at)}
	r.TimeMarks = append(r.TimeMarks, tm)
	return tm
}

// Fail records an error message and marks the run as failed with rc.
func (r *Runlog) Fail(msg string, rc int) {
	r.Errors = append(r.Errors, msg)
	r.Result = ResultFailure
	r.RC = rc
}

// Set stores an extra field.
func (r *Runlog) Set(key string, value interface{}) {
	if r.Extra == nil {
		r.Extra = map[string]interface{}{}
	}
	r.Extra[key] = value
}

// Get returns an extra field.
func (r *Runlog) Get(key string) (interface{}, bool) {
	v, ok := r.Extra[key]
	return v, ok
}

// Finalize fixes the return code before the runlog is persisted. Only the
// first call has an effect.
func (r *Runlog) Finalize(rc int) {
	if r.finalized {
		return
	}
	r.finalized = true
	r.RC = rc
	if rc != RCSuccess {
		r.Result = ResultFailure
	}
}

// Finalized reports whether Finalize has been called.
func (r *Runlog) Finalized() bool {
	return r.finalized
}

// Started returns the run start time.
func (r *Runlog) Started() time.Time {
	return clock.FromSeconds(r.TS)
}

type runlogAlias Runlog

// MarshalJSON inlines Extra next to the known fields. Extras never shadow
// known fields.
func (r Runlog) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(runlogAlias(r))
	if err != nil || len(r.Extra) == 0 {
		return base, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, known := fields[k]; known || isKnown(k) {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("runlog field %q: %w", k, err)
		}
		fields[k] = raw
	}
	return json.Marshal(fields)
}

// UnmarshalJSON collects unknown top-level fields into Extra.
func (r *Runlog) UnmarshalJSON(data []byte) error {
	var alias runlogAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var all map[string]interface{}
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range knownFields {
		delete(all, k)
	}
	*r = Runlog(alias)
	r.Extra = all
	if r.Extra == nil {
		r.Extra = map[string]interface{}{}
	}
	if r.Errors == nil {
		r.Errors = []string{}
	}
	if r.TimeMarks == nil {
		r.TimeMarks = []TimeMark{}
	}
	return nil
}

func isKnown(key string) bool {
	for _, k := range knownFields {
		if k == key {
			return true
		}
	}
	return false
}
