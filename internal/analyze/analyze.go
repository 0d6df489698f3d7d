// Package analyze orchestrates the per-device statistics pipeline.
package analyze

import (
	"context"
	"fmt"

	"github.com/verte-zerg/sramscan/internal/bitstat"
	"github.com/verte-zerg/sramscan/internal/hexdump"
	"github.com/verte-zerg/sramscan/internal/model"
	"github.com/verte-zerg/sramscan/internal/store"
)

// Device parses every dump of one device, aggregates the counts, persists
// them, and returns the derived summary. Any parse error aborts the whole
// device without writing a cache entry: silently excluding a bad dump would
// skew the dump total behind the caller's back. A failed device does not
// affect other devices in the same run.
func Device(ctx context.Context, st *store.Store, profile model.DeviceProfile) (model.AnalyzeResult, error) {
	if profile.Dumps() == 0 {
		return model.AnalyzeResult{}, fmt.Errorf("device %s: %w", profile.Name, bitstat.ErrNoDumps)
	}

	agg := bitstat.NewAggregator(profile.MemoryBits)
	for _, path := range profile.DumpPaths {
		dump, err := hexdump.ParseFile(path, profile.MemoryBits)
		if err != nil {
			return model.AnalyzeResult{}, fmt.Errorf("device %s: %w", profile.Name, err)
		}
		if err := agg.Add(dump); err != nil {
			return model.AnalyzeResult{}, fmt.Errorf("device %s: %w", profile.Name, err)
		}
	}

	counts := agg.Counts()
	stats, err := bitstat.Compute(counts)
	if err != nil {
		return model.AnalyzeResult{}, fmt.Errorf("device %s: %w", profile.Name, err)
	}
	if err := st.Save(ctx, profile.Name, counts); err != nil {
		return model.AnalyzeResult{}, err
	}

	return model.AnalyzeResult{
		Device:      profile.Name,
		Dumps:       counts.TotalDumps,
		MeanEntropy: bitstat.MeanEntropy(stats),
	}, nil
}

// Statistics loads cached counts for a device and recomputes the derived
// probability and entropy arrays.
func Statistics(ctx context.Context, st *store.Store, name string) (model.BitStatistics, error) {
	counts, err := st.Load(ctx, name)
	if err != nil {
		return model.BitStatistics{}, err
	}
	return bitstat.Compute(counts)
}
