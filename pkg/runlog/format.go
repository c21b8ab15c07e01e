package runlog

import (
	"fmt"
	"math"
	"sort"

	"github.com/jedib0t/go-pretty/v6/text"

	"stagehand/pkg/render"
)

// FormatDuration renders seconds as H:MM:SS, with microseconds when the
// value is fractional.
func FormatDuration(secs float64) string {
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	// round to microseconds
	secs = math.Round(secs*1e6) / 1e6
	hours := int(secs) / 3600
	minutes := (int(secs) % 3600) / 60
	rest := secs - float64(hours*3600+minutes*60)
	if rest == math.Trunc(rest) {
		return fmt.Sprintf("%s%d:%02d:%02d", sign, hours, minutes, int(rest))
	}
	return fmt.Sprintf("%s%d:%02d:%09.6f", sign, hours, minutes, rest)
}

// FormatAnalysis renders a single analysis as a table.
func FormatAnalysis(a *Analysis) []string {
	rows := [][]interface{}{
		{"Label", a.Label},
		{"Command", a.Command},
		{"Age", FormatDuration(a.Age)},
		{"Result", a.Result},
		{"Return code", a.RC},
		{"Errors", a.Errors},
		{"Runtime", FormatDuration(a.DurRun)},
		{"Preprocessing", FormatDuration(a.DurPre)},
		{"Processing", FormatDuration(a.DurProc)},
		{"Postprocessing", FormatDuration(a.DurPost)},
		{"Effectivity", fmt.Sprintf("%.2f %%", a.Effectivity)},
	}

	phases := make([]string, 0, len(a.Durations))
	for p := range a.Durations {
		phases = append(phases, p)
	}
	sort.Strings(phases)
	for _, p := range phases {
		rows = append(rows, []interface{}{"  " + p, FormatDuration(a.Durations[p])})
	}

	return render.Table(
		[]render.Column{{Label: "Metric"}, {Label: "Value", Align: text.AlignRight}},
		rows, nil,
	)
}

// FormatEvaluation renders an evaluation as a table of runs followed by
// the aggregated statistics.
func FormatEvaluation(ev *Evaluation) []string {
	if len(ev.Analyses) == 0 {
		return []string{"No runlogs available"}
	}

	rows := make([][]interface{}, 0, len(ev.Analyses))
	for _, a := range ev.Analyses {
		rows = append(rows, []interface{}{
			a.Label,
			a.Command,
			a.Result,
			a.Errors,
			FormatDuration(a.Age),
			FormatDuration(a.DurRun),
			FormatDuration(a.DurProc),
			fmt.Sprintf("%.2f %%", a.Effectivity),
		})
	}
	right := text.AlignRight
	lines := render.Table([]render.Column{
		{Label: "Label"},
		{Label: "Command", MaxWidth: 20},
		{Label: "Result"},
		{Label: "Errors", Align: right},
		{Label: "Age", Align: right},
		{Label: "Runtime", Align: right},
		{Label: "Processing", Align: right},
		{Label: "Effectivity", Align: right},
	}, rows, nil)

	if s := ev.Stats; s != nil {
		lines = append(lines, render.Table(
			[]render.Column{{Label: "Statistic"}, {Label: "Min", Align: right}, {Label: "Max", Align: right}, {Label: "Avg", Align: right}},
			[][]interface{}{
				{"Runtime", FormatDuration(s.MinDurRun), FormatDuration(s.MaxDurRun), FormatDuration(s.AvgDurRun)},
				{"Processing", FormatDuration(s.MinDurProc), FormatDuration(s.MaxDurProc), FormatDuration(s.AvgDurProc)},
				{"Effectivity", fmt.Sprintf("%.2f %%", s.MinEffectivity), fmt.Sprintf("%.2f %%", s.MaxEffectivity), fmt.Sprintf("%.2f %%", s.AvgEffectivity)},
			},
			nil,
		)...)
	}
	return lines
}

// FormatList renders runlogs as one line per run.
func FormatList(runlogs []*Runlog) []string {
	if len(runlogs) == 0 {
		return []string{"No runlogs available"}
	}
	rows := make([][]interface{}, 0, len(runlogs))
	for _, rl := range runlogs {
		rows = append(rows, []interface{}{rl.TSStr, rl.PID, commandOf(rl), rl.Result, len(rl.Errors)})
	}
	return render.Table([]render.Column{
		{Label: "Label"},
		{Label: "PID", Align: text.AlignRight},
		{Label: "Command", MaxWidth: 20},
		{Label: "Result"},
		{Label: "Errors", Align: text.AlignRight},
	}, rows, nil)
}
