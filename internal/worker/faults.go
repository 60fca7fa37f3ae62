package worker

import "sync/atomic"

// FaultPoint names a place in the pipeline where a failure can be simulated.
type FaultPoint int

const (
	FaultInit FaultPoint = iota
	FaultLogin
	FaultSetsMTGAH
	FaultSetsScryfall
	FaultTemplate
	FaultStatistics
	FaultCalculation
	FaultUpload

	faultPointCount
)

var faultNames = [faultPointCount]string{
	FaultInit:         "init",
	FaultLogin:        "login",
	FaultSetsMTGAH:    "sets_mtgah",
	FaultSetsScryfall: "sets_scryfall",
	FaultTemplate:     "template",
	FaultStatistics:   "statistics",
	FaultCalculation:  "calculation",
	FaultUpload:       "upload",
}

func (p FaultPoint) String() string {
	if p < 0 || p >= faultPointCount {
		return "unknown"
	}
	return faultNames[p]
}

// ParseFaultPoint returns the fault point with the given name.
func ParseFaultPoint(name string) (FaultPoint, bool) {
	for i, n := range faultNames {
		if n == name {
			return FaultPoint(i), true
		}
	}
	return 0, false
}

// FaultInjector decides whether a fault point should fail.
type FaultInjector interface {
	Active(point FaultPoint) bool
}

// Faults is a FaultInjector with one settable flag per fault point.
// The zero value has every fault disabled and is safe for concurrent use.
type Faults struct {
	flags [faultPointCount]atomic.Bool
}

// Set enables or disables a fault point.
func (f *Faults) Set(point FaultPoint, enabled bool) {
	if point < 0 || point >= faultPointCount {
		return
	}
	f.flags[point].Store(enabled)
}

// Active reports whether a fault point is enabled.
func (f *Faults) Active(point FaultPoint) bool {
	if f == nil || point < 0 || point >= faultPointCount {
		return false
	}
	return f.flags[point].Load()
}

type noFaults struct{}

func (noFaults) Active(FaultPoint) bool { return false }
