package runlog

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// Resources is a snapshot of the resources consumed by the run.
type Resources struct {
	CPUUser   float64 `json:"cpu_user"`
	CPUSystem float64 `json:"cpu_system"`
	RSS       uint64  `json:"rss"`
	Threads   int32   `json:"threads"`
}

// Sampler collects Resources for a process.
type Sampler func(pid int) (*Resources, error)

// SampleResources reads CPU times, resident memory and thread count of pid.
func SampleResources(pid int) (*Resources, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect process %d: %w", pid, err)
	}
	times, err := p.Times()
	if err != nil {
		return nil, fmt.Errorf("failed to read cpu times of %d: %w", pid, err)
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to read memory usage of %d: %w", pid, err)
	}
	threads, err := p.NumThreads()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread count of %d: %w", pid, err)
	}
	return &Resources{
		CPUUser:   times.User,
		CPUSystem: times.System,
		RSS:       mem.RSS,
		Threads:   threads,
	}, nil
}
