package bitstat

import (
	"fmt"
	"math/bits"

	"github.com/verte-zerg/sramscan/internal/hexdump"
)

// HammingDistance counts the bit positions at which two dumps differ.
func HammingDistance(a, b hexdump.Dump) (int, error) {
	if len(a.Data) != len(b.Data) {
		return 0, fmt.Errorf("dump sizes differ: %d vs %d bits", a.Bits(), b.Bits())
	}
	total := 0
	for i := range a.Data {
		total += bits.OnesCount8(a.Data[i] ^ b.Data[i])
	}
	return total, nil
}
