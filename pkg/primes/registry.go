// Package primes provides the prime registry behind path encoding: an
// append-only cache of the ascending prime sequence supporting n-th prime
// lookup, index lookup and factorization over arbitrary-precision integers.
package primes

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Config bounds the registry cache.
type Config struct {
	// PreseedCount is the number of primes generated by Preseed.
	PreseedCount int `yaml:"preseed_count" envconfig:"PRESEED_COUNT"`
	// MaxPrimes caps the cache length. Requests that would need more primes
	// fail instead of consuming unbounded CPU.
	MaxPrimes int `yaml:"max_primes" envconfig:"MAX_PRIMES"`
}

// DefaultConfig returns the standard registry bounds.
func DefaultConfig() Config {
	return Config{
		PreseedCount: 1000,
		MaxPrimes:    2_000_000,
	}
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report cache growth.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Registry) {
		r.log = log
	}
}

// Registry owns the prime cache. It is safe for concurrent use: growth is
// serialized behind the write lock, lookups and factorization only read.
type Registry struct {
	mu     sync.RWMutex
	primes []uint64 // ascending, gap-free, primes[i] is the (i+1)-th prime
	cfg    Config
	log    zerolog.Logger
}

// NewRegistry creates an empty registry. Call Preseed to warm the cache.
func NewRegistry(cfg Config, opts ...Option) *Registry {
	if cfg.MaxPrimes <= 0 {
		cfg.MaxPrimes = DefaultConfig().MaxPrimes
	}
	if cfg.PreseedCount > cfg.MaxPrimes {
		cfg.PreseedCount = cfg.MaxPrimes
	}
	r := &Registry{
		cfg: cfg,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the bounds the registry was created with.
func (r *Registry) Config() Config {
	return r.cfg
}

// Preseed grows the cache to PreseedCount primes.
func (r *Registry) Preseed() error {
	if r.cfg.PreseedCount <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.growLocked(func() bool { return len(r.primes) >= r.cfg.PreseedCount })
	r.log.Debug().Int("primes", len(r.primes)).Msg("prime registry preseeded")
	return nil
}

// Len returns the number of cached primes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.primes)
}

// Max returns the largest cached prime, or 0 for an empty cache.
func (r *Registry) Max() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.primes) == 0 {
		return 0
	}
	return r.primes[len(r.primes)-1]
}

// Reset drops the cache.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	cachedPrimes.Sub(float64(len(r.primes)))
	r.primes = nil
}

// NthPrime returns the n-th prime, 1-indexed (NthPrime(1) == 2).
func (r *Registry) NthPrime(n int) (*big.Int, error) {
	if n <= 0 {
		return nil, fmt.Errorf("primes: nth prime index %d: %w", n, ErrInvalidArgument)
	}
	if n > r.cfg.MaxPrimes {
		return nil, fmt.Errorf("primes: nth prime index %d exceeds cache bound %d: %w",
			n, r.cfg.MaxPrimes, ErrResourceLimitExceeded)
	}

	r.mu.RLock()
	if n <= len(r.primes) {
		p := r.primes[n-1]
		r.mu.RUnlock()
		return new(big.Int).SetUint64(p), nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.growLocked(func() bool { return len(r.primes) >= n })
	if n > len(r.primes) {
		return nil, fmt.Errorf("primes: nth prime index %d: %w", n, ErrResourceLimitExceeded)
	}
	return new(big.Int).SetUint64(r.primes[n-1]), nil
}

// PrimeIndex returns the 1-based position of p in the prime sequence.
func (r *Registry) PrimeIndex(p *big.Int) (int, error) {
	if p == nil || p.Cmp(bigTwo) < 0 || !p.ProbablyPrime(20) {
		return 0, fmt.Errorf("primes: index of %v: %w", p, ErrNotPrime)
	}
	if !p.IsUint64() || p.Uint64() > r.reachable() {
		return 0, fmt.Errorf("primes: %s lies beyond the %d-prime cache bound: %w",
			p, r.cfg.MaxPrimes, ErrNotFound)
	}
	v := p.Uint64()

	r.mu.RLock()
	if idx, ok := search(r.primes, v); ok {
		r.mu.RUnlock()
		return idx, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.growLocked(func() bool {
		return len(r.primes) > 0 && r.primes[len(r.primes)-1] >= v
	})
	if idx, ok := search(r.primes, v); ok {
		return idx, nil
	}
	return 0, fmt.Errorf("primes: %s not reached within %d primes: %w", p, len(r.primes), ErrNotFound)
}

// reachable is an upper bound on the MaxPrimes-th prime,
// p_n < n(ln n + ln ln n) for n >= 6.
func (r *Registry) reachable() uint64 {
	n := float64(r.cfg.MaxPrimes)
	if n < 6 {
		return 13
	}
	bound := n * (math.Log(n) + math.Log(math.Log(n)))
	if bound >= math.MaxUint64/2 {
		return math.MaxUint64
	}
	return uint64(bound) + 1
}

func search(ps []uint64, v uint64) (int, bool) {
	if len(ps) == 0 || ps[len(ps)-1] < v {
		return 0, false
	}
	i := sort.Search(len(ps), func(i int) bool { return ps[i] >= v })
	if ps[i] != v {
		return 0, false
	}
	return i + 1, true
}

// growLocked appends sieve windows until done reports true or the cache
// reaches MaxPrimes. Caller holds the write lock.
func (r *Registry) growLocked(done func() bool) {
	before := len(r.primes)
	for !done() && len(r.primes) < r.cfg.MaxPrimes {
		r.primes = sieveNext(r.primes)
		cacheExtensions.Inc()
	}
	if len(r.primes) > r.cfg.MaxPrimes {
		r.primes = r.primes[:r.cfg.MaxPrimes:r.cfg.MaxPrimes]
	}
	if len(r.primes) != before {
		cachedPrimes.Add(float64(len(r.primes) - before))
		r.log.Debug().
			Int("from", before).
			Int("to", len(r.primes)).
			Uint64("max", r.primes[len(r.primes)-1]).
			Msg("prime cache extended")
	}
}

var bigTwo = big.NewInt(2)
