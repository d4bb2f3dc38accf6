// Package sysinfo collects a description of the host a benchmark ran on.
package sysinfo

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/docker/go-units"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Info describes the benchmark host.
type Info struct {
	Hostname           string  `json:"hostname"`
	OS                 string  `json:"os"`
	Platform           string  `json:"platform"`
	PlatformVersion    string  `json:"platform_version"`
	KernelVersion      string  `json:"kernel_version"`
	Arch               string  `json:"arch"`
	Virtualization     string  `json:"virtualization,omitempty"`
	VirtualizationRole string  `json:"virtualization_role,omitempty"`
	CPUVendor          string  `json:"cpu_vendor"`
	CPUModel           string  `json:"cpu_model"`
	CPUCores           int     `json:"cpu_cores"`
	CPUThreads         int     `json:"cpu_threads"`
	CPUMhz             float64 `json:"cpu_mhz"`
	MemoryTotalBytes   uint64  `json:"memory_total_bytes"`
	GoVersion          string  `json:"go_version"`
}

// MemoryTotal returns the total memory in human readable form.
func (i *Info) MemoryTotal() string {
	if i.MemoryTotalBytes == 0 {
		return ""
	}

	return units.BytesSize(float64(i.MemoryTotalBytes))
}

// Collect gathers host, CPU and memory information. Partial information is
// returned alongside an error when some probes fail.
func Collect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		GoVersion: runtime.Version(),
	}

	var errs []error

	if h, err := host.InfoWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("reading host info: %w", err))
	} else {
		info.Hostname = h.Hostname
		info.Platform = h.Platform
		info.PlatformVersion = h.PlatformVersion
		info.KernelVersion = h.KernelVersion
		info.Virtualization = h.VirtualizationSystem
		info.VirtualizationRole = h.VirtualizationRole

		if h.OS != "" {
			info.OS = h.OS
		}

		if h.KernelArch != "" {
			info.Arch = h.KernelArch
		}
	}

	if cpus, err := cpu.InfoWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("reading cpu info: %w", err))
	} else if len(cpus) > 0 {
		info.CPUVendor = cpus[0].VendorID
		info.CPUModel = cpus[0].ModelName
		info.CPUMhz = cpus[0].Mhz
	}

	if cores, err := cpu.CountsWithContext(ctx, false); err != nil {
		errs = append(errs, fmt.Errorf("counting cpu cores: %w", err))
	} else {
		info.CPUCores = cores
	}

	if threads, err := cpu.CountsWithContext(ctx, true); err != nil {
		errs = append(errs, fmt.Errorf("counting cpu threads: %w", err))
	} else {
		info.CPUThreads = threads
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("reading memory info: %w", err))
	} else {
		info.MemoryTotalBytes = vm.Total
	}

	return info, errors.Join(errs...)
}
