// Package canonical assigns a deterministic prime to every directed edge of a
// graph snapshot. The prime of (source, target) is the n-th prime, where n is
// the 1-based position of target among the source's neighbors sorted by byte
// order. The mapping is only stable while the source's neighbor set is.
package canonical

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/kittclouds/primepath/pkg/primes"
)

// Neighborhood is the adjacency query supplied by the graph collaborator.
type Neighborhood interface {
	NeighborIDs(id string) []string
}

// Indexer derives canonical edge primes on demand.
type Indexer struct {
	g   Neighborhood
	reg *primes.Registry
}

// NewIndexer creates an indexer over g backed by reg.
func NewIndexer(g Neighborhood, reg *primes.Registry) *Indexer {
	return &Indexer{g: g, reg: reg}
}

// SortedNeighbors returns the neighbors of node in byte order.
func (ix *Indexer) SortedNeighbors(node string) []string {
	ns := append([]string(nil), ix.g.NeighborIDs(node)...)
	sort.Strings(ns)
	return dedupe(ns)
}

// EdgeRank returns the 1-based position of target in SortedNeighbors(source).
func (ix *Indexer) EdgeRank(source, target string) (int, error) {
	ns := ix.SortedNeighbors(source)
	i := sort.SearchStrings(ns, target)
	if i == len(ns) || ns[i] != target {
		return 0, fmt.Errorf("canonical: %q is not a neighbor of %q: %w", target, source, primes.ErrNotFound)
	}
	return i + 1, nil
}

// EdgePrime returns the canonical prime of the directed edge source -> target.
func (ix *Indexer) EdgePrime(source, target string) (*big.Int, error) {
	rank, err := ix.EdgeRank(source, target)
	if err != nil {
		return nil, err
	}
	p, err := ix.reg.NthPrime(rank)
	if err != nil {
		return nil, fmt.Errorf("canonical: edge %q -> %q: %w", source, target, err)
	}
	return p, nil
}

// PathPrimes returns the edge primes of consecutive label pairs, in path
// order. A path needs at least two labels.
func (ix *Indexer) PathPrimes(labels []string) ([]*big.Int, error) {
	if len(labels) < 2 {
		return nil, fmt.Errorf("canonical: path of %d labels has no edges: %w", len(labels), primes.ErrInvalidArgument)
	}
	out := make([]*big.Int, 0, len(labels)-1)
	for i := 1; i < len(labels); i++ {
		p, err := ix.EdgePrime(labels[i-1], labels[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func dedupe(sorted []string) []string {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, s := range sorted[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
