package system

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/mem"
)

// InitResourceLimits raises the open file limit. Large photo folders are
// scanned and decoded one file at a time, but the PDF rasterizer and ffmpeg
// keep their own descriptors open.
func InitResourceLimits(logger *slog.Logger) {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		logger.Warn("cannot read open file limit", "err", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		logger.Warn("cannot raise open file limit", "err", err)
	} else {
		logger.Debug("open file limit raised", "limit", rLimit.Cur)
	}
}

// MemoryStats is a snapshot of process and host memory.
type MemoryStats struct {
	HeapAlloc      uint64
	HostTotal      uint64
	HostAvailable  uint64
	HostUsedPerc   float64
	ActiveBitmaps  int
	PendingDecodes int
}

// MemoryReport collects host memory via gopsutil and heap usage via runtime.
func MemoryReport() (MemoryStats, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	vm, err := mem.VirtualMemory()
	if err != nil {
		return MemoryStats{HeapAlloc: ms.HeapAlloc}, fmt.Errorf("virtual memory: %w", err)
	}
	return MemoryStats{
		HeapAlloc:     ms.HeapAlloc,
		HostTotal:     vm.Total,
		HostAvailable: vm.Available,
		HostUsedPerc:  vm.UsedPercent,
	}, nil
}

// LogValue renders the stats as a structured group.
func (s MemoryStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("heap", formatBytes(s.HeapAlloc)),
		slog.String("host_available", formatBytes(s.HostAvailable)),
		slog.String("host_total", formatBytes(s.HostTotal)),
		slog.Float64("host_used_pct", s.HostUsedPerc),
		slog.Int("active", s.ActiveBitmaps),
		slog.Int("pending", s.PendingDecodes),
	)
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func GetBestH264Encoder() (string, string) {
	// Priority:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)

	encoders := []struct {
		name string
		args string
	}{
		{"h264_videotoolbox", ""},
		{"h264_nvenc", ""},
	}

	cmd := exec.Command("ffmpeg", "-hide_banner", "-encoders")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "libx264", ""
	}
	for _, enc := range encoders {
		if strings.Contains(string(out), enc.name) {
			return enc.name, enc.args
		}
	}

	return "libx264", ""
}

// DefaultQuality maps an encoder to a sensible quality value.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}
