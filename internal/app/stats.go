package app

import (
	"math"
	"runtime"

	"golang.org/x/sys/unix"
)

// peakMemoryMB returns the peak resident set size of the process in MB.
func peakMemoryMB() (int64, bool) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, false
	}
	// Linux reports kilobytes, darwin bytes.
	mb := math.Round(float64(ru.Maxrss) / 1024)
	if runtime.GOOS == "darwin" {
		mb = math.Round(mb / 1024)
	}
	return int64(mb), true
}
