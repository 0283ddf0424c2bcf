package ts

import "time"

// Metadata rides alongside each packet through the input path. The input
// timestamp is in 27 MHz ticks, the same unit as the PCR, so queued samples
// from the two inputs can be checked for contemporaneity directly.
type Metadata struct {
	InputTimestamp uint64
	HasTimestamp   bool
}

func (m *Metadata) Reset() {
	m.InputTimestamp = 0
	m.HasTimestamp = false
}

func (m *Metadata) SetInputTimestamp(ticks uint64) {
	m.InputTimestamp = ticks
	m.HasTimestamp = true
}

// DurationToTicks converts a monotonic clock reading into 27 MHz ticks.
func DurationToTicks(d time.Duration) uint64 {
	return uint64(d.Nanoseconds()) * 27 / 1000
}

// TicksToMs converts 27 MHz ticks into milliseconds.
func TicksToMs(ticks uint64) float64 {
	return float64(ticks) / ClockFrequency * 1000
}
