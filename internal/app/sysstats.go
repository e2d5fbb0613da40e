package app

import (
	"os"

	"github.com/montanaflynn/stats"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
)

// SystemStats is a snapshot of host load and of this process.
type SystemStats struct {
	CPUPercent   float64 `json:"cpuPercent"`
	MemPercent   float64 `json:"memPercent"`
	MemUsedMB    uint64  `json:"memUsedMb"`
	ProcCPU      float64 `json:"procCpuPercent"`
	ProcMemRSSMB uint64  `json:"procMemRssMb"`
}

// CollectSystemStats samples host CPU and memory plus the CPU and RSS of the
// running process. A reading that fails is left at zero.
func CollectSystemStats() SystemStats {
	var st SystemStats

	if cpuuse, err := cpu.Percent(0, false); err == nil && len(cpuuse) > 0 {
		st.CPUPercent, _ = stats.Round(cpuuse[0], 2)
	}
	if meminfo, err := mem.VirtualMemory(); err == nil {
		st.MemPercent, _ = stats.Round(meminfo.UsedPercent, 2)
		st.MemUsedMB = meminfo.Used / 1024 / 1024
	}

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return st
	}
	if cpuuse, err := p.CPUPercent(); err == nil {
		st.ProcCPU, _ = stats.Round(cpuuse, 2)
	}
	if meminfo, err := p.MemoryInfo(); err == nil {
		st.ProcMemRSSMB = meminfo.RSS / 1024 / 1024
	}
	return st
}
