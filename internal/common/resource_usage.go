package common

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// cpuSampleWindow is how long CPU usage is sampled for.
const cpuSampleWindow = 100 * time.Millisecond

// ResourceUsage represents current process and system resource usage
type ResourceUsage struct {
	AllocMB              int64   `json:"alloc_mb"`   // Currently allocated memory by application
	SysMB                int64   `json:"sys_mb"`     // System memory used by Go runtime
	Goroutines           int     `json:"goroutines"` // Number of goroutines
	GCCount              int64   `json:"gc_count"`
	NextGCMB             int64   `json:"next_gc_mb"`
	ProcessRSSMB         int64   `json:"process_rss_mb"`
	SystemMemUsedMB      int64   `json:"system_mem_used_mb"`
	SystemMemTotalMB     int64   `json:"system_mem_total_mb"`
	SystemMemUsedPercent float64 `json:"system_mem_used_percent"`
	CPUUsagePercent      float64 `json:"cpu_usage_percent"`
}

// GetResourceUsage returns current resource usage statistics. System figures that
// cannot be read on this platform are left at zero.
func GetResourceUsage(ctx context.Context) ResourceUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	usage := ResourceUsage{
		AllocMB:    int64(m.Alloc / 1024 / 1024),
		SysMB:      int64(m.Sys / 1024 / 1024),
		Goroutines: runtime.NumGoroutine(),
		GCCount:    int64(m.NumGC),
		NextGCMB:   int64(m.NextGC / 1024 / 1024),
	}

	if proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if memInfo, err := proc.MemoryInfoWithContext(ctx); err == nil {
			usage.ProcessRSSMB = int64(memInfo.RSS / 1024 / 1024)
		}
	}

	if vmStat, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		usage.SystemMemUsedMB = int64(vmStat.Used / 1024 / 1024)
		usage.SystemMemTotalMB = int64(vmStat.Total / 1024 / 1024)
		usage.SystemMemUsedPercent = vmStat.UsedPercent
	}

	if cpuPercents, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false); err == nil && len(cpuPercents) > 0 {
		usage.CPUUsagePercent = cpuPercents[0]
	}

	return usage
}
