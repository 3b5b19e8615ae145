package util

import (
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// SystemInfo contains information about the host system.
type SystemInfo struct {
	Hostname string
	NumCPU   int
	OS       string
	Arch     string
}

// GetSystemInfo collects system information.
func GetSystemInfo() SystemInfo {
	hostname, _ := os.Hostname()
	return SystemInfo{
		Hostname: hostname,
		NumCPU:   runtime.NumCPU(),
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
	}
}

// FreeSpaceBytes returns the free space on the filesystem holding path.
// Returns 0 if the filesystem cannot be queried.
func FreeSpaceBytes(path string) uint64 {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0
	}
	return uint64(st.Bavail) * uint64(st.Bsize)
}

// HasFreeSpaceFor reports whether the filesystem holding dir has at least
// need bytes available. An unqueryable filesystem counts as having space,
// so that unusual mounts don't block repair outright.
func HasFreeSpaceFor(dir string, need uint64) (bool, uint64) {
	free := FreeSpaceBytes(dir)
	if free == 0 {
		return true, 0
	}
	return free >= need, free
}
