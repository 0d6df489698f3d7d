package bitstat

import (
	"math"

	"github.com/verte-zerg/sramscan/internal/model"
)

// Probability derives the per-bit probability of reading 1 from counts.
// It fails with ErrNoDumps when no dumps were aggregated.
func Probability(c model.BitCounts) ([]float64, error) {
	if c.TotalDumps == 0 {
		return nil, ErrNoDumps
	}
	p := make([]float64, len(c.Ones))
	n := float64(c.TotalDumps)
	for i, ones := range c.Ones {
		p[i] = float64(ones) / n
	}
	return p, nil
}

// BinaryEntropy computes the Shannon entropy of a Bernoulli variable with
// parameter p. It is 0 at p = 0 and p = 1, and 1 at p = 0.5.
func BinaryEntropy(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	return -p*math.Log2(p) - (1-p)*math.Log2(1-p)
}

// Compute derives probability and entropy arrays from counts. Both are pure
// functions of the counts and can be recomputed from a cache entry at any
// time.
func Compute(c model.BitCounts) (model.BitStatistics, error) {
	p, err := Probability(c)
	if err != nil {
		return model.BitStatistics{}, err
	}
	h := make([]float64, len(p))
	for i, v := range p {
		h[i] = BinaryEntropy(v)
	}
	return model.BitStatistics{Probability: p, Entropy: h}, nil
}

// MeanEntropy reports the average per-bit entropy as a fraction in [0, 1].
func MeanEntropy(s model.BitStatistics) float64 {
	if len(s.Entropy) == 0 {
		return 0
	}
	var sum float64
	for _, h := range s.Entropy {
		sum += h
	}
	return sum / float64(len(s.Entropy))
}
