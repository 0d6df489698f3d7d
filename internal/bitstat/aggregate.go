// Package bitstat aggregates per-bit-position statistics across power cycles.
package bitstat

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/sramscan/internal/hexdump"
	"github.com/verte-zerg/sramscan/internal/model"
)

// ErrNoDumps is returned when statistics are requested over zero dumps.
var ErrNoDumps = errors.New("no dumps aggregated")

// Aggregator accumulates exact integer ones-counts per bit position.
// Counts are order-independent, so dumps may be added in any order.
type Aggregator struct {
	ones  []uint32
	dumps int
}

// NewAggregator creates an aggregator for dumps of the given bit length.
func NewAggregator(bits int) *Aggregator {
	return &Aggregator{ones: make([]uint32, bits)}
}

// Add folds one dump into the counts. All dumps must have the same length.
func (a *Aggregator) Add(d hexdump.Dump) error {
	if d.Bits() != len(a.ones) {
		return fmt.Errorf("dump %s holds %d bits, aggregator expects %d", d.Path, d.Bits(), len(a.ones))
	}
	for i, b := range d.Data {
		if b == 0 {
			continue
		}
		base := i * 8
		for j := 0; j < 8; j++ {
			a.ones[base+j] += uint32(b >> (7 - j) & 1)
		}
	}
	a.dumps++
	return nil
}

// Counts returns a copy of the accumulated counts.
func (a *Aggregator) Counts() model.BitCounts {
	return model.BitCounts{Ones: a.ones, TotalDumps: a.dumps}.Clone()
}
