package primes

import "github.com/bits-and-blooms/bitset"

// windowSize is the span of integers sieved per extension.
const windowSize = 1 << 16

// sieveNext appends the primes of the next window after the current maximum.
// The window never extends past max², so every composite in it has a factor
// already present in ps.
func sieveNext(ps []uint64) []uint64 {
	if len(ps) == 0 {
		return append(ps, 2, 3)
	}

	last := ps[len(ps)-1]
	lo := last + 1
	span := uint64(windowSize)
	if last < 1<<32 && last*last-lo < span {
		span = last*last - lo
	}
	hi := lo + span

	composite := bitset.New(uint(span))
	for _, p := range ps {
		if p*p >= hi {
			break
		}
		start := (lo + p - 1) / p * p
		if start < p*p {
			start = p * p
		}
		for m := start; m < hi; m += p {
			composite.Set(uint(m - lo))
		}
	}

	for i := uint64(0); i < span; i++ {
		if !composite.Test(uint(i)) {
			ps = append(ps, lo+i)
		}
	}
	return ps
}
