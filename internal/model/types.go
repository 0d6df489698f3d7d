// Package model defines shared data structures.
package model

import "time"

// DeviceProfile identifies one physical device under analysis.
type DeviceProfile struct {
	Name       string
	Dir        string
	MemoryBits int
	DumpPaths  []string
}

// Dumps reports the number of discovered dump files.
func (d DeviceProfile) Dumps() int {
	return len(d.DumpPaths)
}

// BitCounts holds exact per-bit-position aggregates for one device.
// Ones[i] is the number of power cycles in which bit i read as 1.
type BitCounts struct {
	Ones       []uint32
	TotalDumps int
}

// Clone returns an independent copy of the counts.
func (c BitCounts) Clone() BitCounts {
	ones := make([]uint32, len(c.Ones))
	copy(ones, c.Ones)
	return BitCounts{Ones: ones, TotalDumps: c.TotalDumps}
}

// BitStatistics holds derived per-bit measures, both in [0, 1].
type BitStatistics struct {
	Probability []float64
	Entropy     []float64
}

// CachedDevice describes one persisted cache entry.
type CachedDevice struct {
	Name       string
	MemoryBits int
	TotalDumps int
	UpdatedAt  time.Time
}

// AnalyzeResult summarizes a completed device analysis.
type AnalyzeResult struct {
	Device      string
	Dumps       int
	MeanEntropy float64
}
