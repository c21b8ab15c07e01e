package runlog

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"stagehand/pkg/clock"
)

var (
	// ErrPhaseNotStarted is returned for a _stop mark without a matching _start.
	ErrPhaseNotStarted = errors.New("phase stopped without being started")
	// ErrPhaseRepeated is returned when a phase is opened more than once.
	ErrPhaseRepeated = errors.New("phase started more than once")
	// ErrPhaseOpen is returned for a finished runlog with a phase that was
	// never stopped.
	ErrPhaseOpen = errors.New("phase started but never stopped")
)

// Phase classification used for the pre/proc/post split.
var (
	prePhases  = []string{"stage_configure", "stage_check", "stage_setup"}
	procPhases = []string{"stage_process"}
	postPhases = []string{"stage_evaluate", "stage_teardown"}
)

// Analysis summarizes a single runlog.
type Analysis struct {
	Label       string             `json:"label"`
	Name        string             `json:"name"`
	Command     string             `json:"command"`
	Age         float64            `json:"age"`
	Result      string             `json:"result"`
	RC          int                `json:"rc"`
	Errors      int                `json:"errors"`
	DurRun      float64            `json:"dur_run"`
	DurPre      float64            `json:"dur_pre"`
	DurProc     float64            `json:"dur_proc"`
	DurPost     float64            `json:"dur_post"`
	Durations   map[string]float64 `json:"durations"`
	Effectivity float64            `json:"effectivity"`
	// Open lists phases that were started but not yet stopped, as seen when
	// analyzing the runlog of a run still in progress.
	Open []string `json:"open,omitempty"`
}

// Analyze computes durations and effectivity for a finished runlog. Age is
// measured against now. Every started phase must have been stopped.
func Analyze(rl *Runlog, now time.Time) (*Analysis, error) {
	return analyze(rl, now, false)
}

// AnalyzeLive is Analyze for the runlog of the run in progress. Phases still
// running are listed in Analysis.Open instead of failing the analysis.
func AnalyzeLive(rl *Runlog, now time.Time) (*Analysis, error) {
	return analyze(rl, now, true)
}

func analyze(rl *Runlog, now time.Time, live bool) (*Analysis, error) {
	a := &Analysis{
		Label:     rl.TSStr,
		Name:      rl.Name,
		Command:   commandOf(rl),
		Age:       clock.Seconds(now) - rl.TS,
		Result:    rl.Result,
		RC:        rl.RC,
		Errors:    len(rl.Errors),
		Durations: map[string]float64{},
	}

	open := map[string]float64{}
	for _, tm := range rl.TimeMarks {
		switch {
		case strings.HasSuffix(tm.Ident, "_start"):
			phase := strings.TrimSuffix(tm.Ident, "_start")
			if _, running := open[phase]; running {
				return nil, fmt.Errorf("%s: %w", phase, ErrPhaseRepeated)
			}
			if _, done := a.Durations[phase]; done {
				return nil, fmt.Errorf("%s: %w", phase, ErrPhaseRepeated)
			}
			open[phase] = tm.Time
		case strings.HasSuffix(tm.Ident, "_stop"):
			phase := strings.TrimSuffix(tm.Ident, "_stop")
			start, ok := open[phase]
			if !ok {
				return nil, fmt.Errorf("%s: %w", phase, ErrPhaseNotStarted)
			}
			a.Durations[phase] = tm.Time - start
			delete(open, phase)
		}
	}
	for phase := range open {
		a.Open = append(a.Open, phase)
	}
	sort.Strings(a.Open)
	if len(a.Open) > 0 && !live {
		return nil, fmt.Errorf("%s: %w", strings.Join(a.Open, ", "), ErrPhaseOpen)
	}

	if n := len(rl.TimeMarks); n > 1 {
		a.DurRun = rl.TimeMarks[n-1].Time - rl.TimeMarks[0].Time
	}
	a.DurPre = sumPhases(a.Durations, prePhases)
	a.DurProc = sumPhases(a.Durations, procPhases)
	a.DurPost = sumPhases(a.Durations, postPhases)
	if a.DurRun > 0 {
		a.Effectivity = a.DurProc / a.DurRun * 100
	}
	return a, nil
}

func commandOf(rl *Runlog) string {
	if rl.Command != "" {
		return rl.Command
	}
	if op, ok := rl.Extra["operation"].(string); ok && op != "" {
		return op
	}
	return "unknown"
}

func sumPhases(durations map[string]float64, phases []string) float64 {
	var total float64
	for _, p := range phases {
		total += durations[p]
	}
	return total
}

// Stats aggregates analyses.
type Stats struct {
	MinDurRun      float64 `json:"min_dur_run"`
	MaxDurRun      float64 `json:"max_dur_run"`
	AvgDurRun      float64 `json:"avg_dur_run"`
	MinDurProc     float64 `json:"min_dur_proc"`
	MaxDurProc     float64 `json:"max_dur_proc"`
	AvgDurProc     float64 `json:"avg_dur_proc"`
	MinEffectivity float64 `json:"min_effectivity"`
	MaxEffectivity float64 `json:"max_effectivity"`
	AvgEffectivity float64 `json:"avg_effectivity"`
}

// Evaluation is the result of evaluating a set of runlogs. Stats is nil
// when there are no analyses.
type Evaluation struct {
	Analyses []*Analysis `json:"analyses"`
	Stats    *Stats      `json:"stats,omitempty"`
}

// Evaluate analyzes every runlog and aggregates the results.
func Evaluate(runlogs []*Runlog, now time.Time) (*Evaluation, error) {
	ev := &Evaluation{Analyses: make([]*Analysis, 0, len(runlogs))}
	for _, rl := range runlogs {
		a, err := Analyze(rl, now)
		if err != nil {
			return nil, fmt.Errorf("runlog %s: %w", rl.TSStr, err)
		}
		ev.Analyses = append(ev.Analyses, a)
	}
	if len(ev.Analyses) == 0 {
		return ev, nil
	}

	s := &Stats{
		MinDurRun: math.Inf(1), MaxDurRun: math.Inf(-1),
		MinDurProc: math.Inf(1), MaxDurProc: math.Inf(-1),
		MinEffectivity: math.Inf(1), MaxEffectivity: math.Inf(-1),
	}
	for _, a := range ev.Analyses {
		s.MinDurRun = math.Min(s.MinDurRun, a.DurRun)
		s.MaxDurRun = math.Max(s.MaxDurRun, a.DurRun)
		s.AvgDurRun += a.DurRun
		s.MinDurProc = math.Min(s.MinDurProc, a.DurProc)
		s.MaxDurProc = math.Max(s.MaxDurProc, a.DurProc)
		s.AvgDurProc += a.DurProc
		s.MinEffectivity = math.Min(s.MinEffectivity, a.Effectivity)
		s.MaxEffectivity = math.Max(s.MaxEffectivity, a.Effectivity)
		s.AvgEffectivity += a.Effectivity
	}
	n := float64(len(ev.Analyses))
	s.AvgDurRun /= n
	s.AvgDurProc /= n
	s.AvgEffectivity /= n
	ev.Stats = s
	return ev, nil
}
