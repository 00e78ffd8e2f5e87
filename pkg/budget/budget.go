package budget

import (
	"fmt"
)

// InsufficientMemoryError means the host is too small for the requested
// reserves: nothing is left to allocate after they are taken off the top.
type InsufficientMemoryError struct {
	TotalMB    int
	ReservedMB int
}

func (e *InsufficientMemoryError) Error() string {
	return fmt.Sprintf("insufficient memory: %d MB total, %d MB reserved, nothing left to allocate",
		e.TotalMB, e.ReservedMB)
}

// ClusterProfile describes a permanent cluster memory split: a fixed OS and
// page-cache reserve plus one reserve for each of the two engine daemons.
type ClusterProfile struct {
	TotalMB         int
	OSReserveMB     int
	DaemonReserveMB int
}

// Budget is the per-role allocation written into the engine's environment
// file. It is derived fresh on every call and never persisted elsewhere.
type Budget struct {
	DaemonMB   int
	ExecutorMB int
	DriverMB   int
}

// ForCluster splits what remains after the reserves evenly between executor
// and driver. Both daemons get DaemonReserveMB each, so the sum of all
// allocations plus the OS reserve never exceeds the host total.
func ForCluster(p ClusterProfile) (Budget, error) {
	reserved := p.OSReserveMB + 2*p.DaemonReserveMB
	remainder := p.TotalMB - reserved
	if remainder <= 0 {
		return Budget{}, &InsufficientMemoryError{TotalMB: p.TotalMB, ReservedMB: reserved}
	}
	half := remainder / 2
	return Budget{
		DaemonMB:   p.DaemonReserveMB,
		ExecutorMB: half,
		DriverMB:   half,
	}, nil
}

// LocalProfile describes the ad-hoc split used for single-node runs, where
// the engine runs inside one JVM and only the driver ceiling matters.
type LocalProfile struct {
	TotalMB        int
	DriverFraction float64
	ResultFraction float64
}

// LocalBudget bounds a single-node run: the driver heap and the largest
// result the driver will collect.
type LocalBudget struct {
	DriverMB    int
	MaxResultMB int
}

// ForLocal gives the driver a fixed fraction of total host memory and caps
// collected results at a fraction of that.
func ForLocal(p LocalProfile) (LocalBudget, error) {
	driver := int(float64(p.TotalMB) * p.DriverFraction)
	result := int(float64(driver) * p.ResultFraction)
	if driver <= 0 || result <= 0 {
		return LocalBudget{}, &InsufficientMemoryError{TotalMB: p.TotalMB, ReservedMB: 0}
	}
	return LocalBudget{DriverMB: driver, MaxResultMB: result}, nil
}
