package app

import (
	"runtime"
	"runtime/debug"
)

// GCStats is a snapshot of the runtime's garbage collector counters, useful
// for an operator checking whether ApplyGC's tuning is paying off.
type GCStats struct {
	NumGC        uint32
	AllocBytes   uint64
	TotalAlloc   uint64
	Sys          uint64
	NumGoroutine int
}

// ApplyGC sets GOGC to percent, skipping the call entirely for percent <= 0
// (an Options value with GOGC left at 0 leaves the runtime default alone). A
// thread-per-connection server under sustained load benefits from a looser
// GOGC the same way the teacher's engine startup path tunes it.
func ApplyGC(percent int) {
	if percent > 0 {
		debug.SetGCPercent(percent)
	}
}

// ReadGCStats reads the current runtime.MemStats into a GCStats snapshot.
func ReadGCStats() GCStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return GCStats{
		NumGC:        ms.NumGC,
		AllocBytes:   ms.Alloc,
		TotalAlloc:   ms.TotalAlloc,
		Sys:          ms.Sys,
		NumGoroutine: runtime.NumGoroutine(),
	}
}
