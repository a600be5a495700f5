package health

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats is a snapshot of the running service.
type ProcessStats struct {
	Goroutines int     `json:"goroutines"`
	RSSMB      float64 `json:"rss_mb"`
	CPUPercent float64 `json:"cpu_percent"`
	RAMUsedMB  float64 `json:"ram_used_mb"`
	RAMTotalMB float64 `json:"ram_total_mb"`
}

// StatsCollector reads process and host memory through gopsutil. Failures
// leave the affected fields at zero.
type StatsCollector struct {
	proc *process.Process
}

func NewStatsCollector() (*StatsCollector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &StatsCollector{proc: proc}, nil
}

func (c *StatsCollector) Collect() ProcessStats {
	stats := ProcessStats{Goroutines: runtime.NumGoroutine()}

	// RSS only: shared libraries and swap are not ours.
	if memInfo, err := c.proc.MemoryInfo(); err == nil {
		stats.RSSMB = bytesToMB(memInfo.RSS)
	}
	if cpu, err := c.proc.Percent(0); err == nil {
		stats.CPUPercent = cpu
	}

	// Used = Total - Available, otherwise the page cache counts as used.
	if vMem, err := mem.VirtualMemory(); err == nil {
		stats.RAMUsedMB = bytesToMB(vMem.Total - vMem.Available)
		stats.RAMTotalMB = bytesToMB(vMem.Total)
	}

	return stats
}

func bytesToMB(b uint64) float64 {
	return float64(b) / 1024.0 / 1024.0
}
