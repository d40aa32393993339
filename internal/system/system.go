// Package system reports host resources used to size worker pools.
package system

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// DefaultWorkers returns the number of physical cores, falling back to the
// logical CPU count when the host does not report them.
func DefaultWorkers() int {
	n, err := cpu.Counts(false)
	if err != nil || n < 1 {
		n = runtime.NumCPU()
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Workers resolves a configured worker count, where 0 or less means
// DefaultWorkers.
func Workers(configured int) int {
	if configured > 0 {
		return configured
	}
	return DefaultWorkers()
}
