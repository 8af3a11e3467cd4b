package metrics

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
)

const mib = 1 << 20

// SysHealth is a point-in-time view of the process and its data directory.
type SysHealth struct {
	AllocMB       uint64 `json:"alloc_mb"`
	TotalAllocMB  uint64 `json:"total_alloc_mb"`
	SysMB         uint64 `json:"sys_mb"`
	NumGC         uint32 `json:"num_gc"`
	Goroutines    int    `json:"goroutines"`
	DataDiskBytes int64  `json:"data_disk_bytes"`
	DataDiskSize  string `json:"data_disk_size"`
}

// GetSysHealth reads runtime memory stats and sizes dataPath, the directory
// holding the database and local exports.
func GetSysHealth(dataPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	disk := dirSize(dataPath)
	return SysHealth{
		AllocMB:       m.Alloc / mib,
		TotalAllocMB:  m.TotalAlloc / mib,
		SysMB:         m.Sys / mib,
		NumGC:         m.NumGC,
		Goroutines:    runtime.NumGoroutine(),
		DataDiskBytes: disk,
		DataDiskSize:  FormatBytes(disk),
	}
}

// dirSize sums regular files under root. Unreadable or missing entries
// count as empty.
func dirSize(root string) int64 {
	var total int64
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
