package compare

import (
	"fmt"

	"github.com/tsdiag/pcrdelta/av"
)

const (
	// The comparison is strictly pairwise, so the engine works on exactly
	// two inputs.
	inputCount = 2

	minBufferPackets   = 16
	minMaxInputPackets = 1
)

// Args carries the session options. Built from the command line in main,
// or directly by tests.
type Args struct {
	Inputs          []av.Source
	OutputFile      string
	CSVSeparator    string
	LatencyMs       int64
	BufferPackets   int
	MaxInputPackets int
	AlignMs         int64
	Watermark       int
}

// EnforceDefaults validates the options and clamps them to their minimums.
func (a *Args) EnforceDefaults() error {
	if len(a.Inputs) != inputCount {
		return fmt.Errorf("number of inputs must be %d, got %d", inputCount, len(a.Inputs))
	}
	if a.CSVSeparator == "" {
		a.CSVSeparator = ","
	}
	if a.BufferPackets < minBufferPackets {
		a.BufferPackets = minBufferPackets
	}
	if a.MaxInputPackets < minMaxInputPackets {
		a.MaxInputPackets = minMaxInputPackets
	}
	if a.MaxInputPackets > a.BufferPackets/2 {
		a.MaxInputPackets = a.BufferPackets / 2
	}
	if a.AlignMs <= 0 {
		a.AlignMs = 5
	}
	if a.Watermark <= 0 {
		a.Watermark = 10
	}
	return nil
}
