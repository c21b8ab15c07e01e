package runlog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "stagehand"

// WriteMetrics exports the outcome of a run in the Prometheus text format
// to path, suitable for the node exporter textfile collector. The analysis
// may be nil when the run could not be analyzed.
func WriteMetrics(path string, rl *Runlog, a *Analysis) error {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"app": rl.Name}

	gauge := func(name, help string, value float64) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
		g.Set(value)
		reg.MustRegister(g)
	}

	success := 0.0
	if rl.Result == ResultSuccess {
		success = 1
	}
	gauge("run_timestamp_seconds", "Start time of the last run.", rl.TS)
	gauge("run_success", "Whether the last run succeeded.", success)
	gauge("run_return_code", "Return code of the last run.", float64(rl.RC))
	gauge("run_errors", "Number of errors recorded during the last run.", float64(len(rl.Errors)))

	if a != nil {
		gauge("run_duration_seconds", "Wall clock duration of the last run.", a.DurRun)
		gauge("run_process_duration_seconds", "Time spent processing during the last run.", a.DurProc)
		gauge("run_effectivity_percent", "Share of the run spent processing.", a.Effectivity)
	}
	if r := rl.Resources; r != nil {
		gauge("run_cpu_seconds", "CPU time consumed by the last run.", r.CPUUser+r.CPUSystem)
		gauge("run_rss_bytes", "Resident memory at the end of the last run.", float64(r.RSS))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory for %s: %w", path, err)
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
