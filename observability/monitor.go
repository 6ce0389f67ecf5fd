// Package observability exposes instance self-metrics for the stats
// endpoint: process-level numbers from the OS plus Go runtime counters.
package observability

import (
	"log/slog"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/process"
)

// Stats is the point-in-time snapshot served by /stats.
type Stats struct {
	InstanceID  string  `json:"instance_id"`
	Connections int     `json:"connections"`
	PidStatus   string  `json:"pid_status"`
	CPUPercent  float64 `json:"cpu_percent"`
	RSSBytes    uint64  `json:"rss_bytes"`
	AllocMemMB  uint64  `json:"alloc_mem_mb"`
	NumGC       uint32  `json:"num_gc"`
	Goroutines  int     `json:"goroutines"`
}

// Monitor samples the current process.
type Monitor struct {
	log        *slog.Logger
	instanceID string
	proc       *process.Process
}

func NewMonitor(log *slog.Logger, instanceID string) (*Monitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Monitor{log: log, instanceID: instanceID, proc: proc}, nil
}

// Snapshot collects memory, CPU and scheduler numbers. Connections is
// filled in by the caller holding the registry.
func (m *Monitor) Snapshot(connections int) (Stats, error) {
	memInfo, err := m.proc.MemoryInfo()
	if err != nil {
		return Stats{}, err
	}
	cpuPercent, err := m.proc.CPUPercent()
	if err != nil {
		return Stats{}, err
	}
	status, err := m.proc.Status()
	if err != nil {
		return Stats{}, err
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return Stats{
		InstanceID:  m.instanceID,
		Connections: connections,
		PidStatus:   status,
		CPUPercent:  cpuPercent,
		RSSBytes:    memInfo.RSS,
		AllocMemMB:  memStats.Alloc / 1024 / 1024,
		NumGC:       memStats.NumGC,
		Goroutines:  runtime.NumGoroutine(),
	}, nil
}
