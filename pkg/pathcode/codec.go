// Package pathcode compresses a path of canonical edge primes into a single
// arbitrary-precision integer and back.
//
// A path is multiplied into a product of primes. Lifting treats a product m
// as an index into the prime sequence and replaces it with the m-th prime.
// Long paths are lifted in blocks: the sorted edge primes are partitioned
// into BlockSize groups, every group product is lifted, and the lifted primes
// form the next level. Each level increments the depth. Decoding reverses the
// levels with PrimeIndex and factorization, so the multiset of edge primes is
// recovered exactly. The original edge order is not.
package pathcode

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/kittclouds/primepath/pkg/primes"
	"github.com/rs/zerolog"
)

// Config bounds the codec.
type Config struct {
	// BlockSize is the number of primes multiplied into one lifted block.
	BlockSize int `yaml:"block_size" envconfig:"BLOCK_SIZE"`
	// DepthLimit is the default lift budget used by callers that do not pass
	// their own.
	DepthLimit int `yaml:"depth_limit" envconfig:"DEPTH_LIMIT"`
	// MaxLiftIndex is the largest block product that may be lifted. Larger
	// products stop lifting at the current level.
	MaxLiftIndex int64 `yaml:"max_lift_index" envconfig:"MAX_LIFT_INDEX"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		BlockSize:    5,
		DepthLimit:   3,
		MaxLiftIndex: 1_000_000,
	}
}

// Validate checks the bounds.
func (c Config) Validate() error {
	switch {
	case c.BlockSize < 2:
		return fmt.Errorf("pathcode: block size %d < 2: %w", c.BlockSize, primes.ErrInvalidArgument)
	case c.DepthLimit < 0:
		return fmt.Errorf("pathcode: depth limit %d < 0: %w", c.DepthLimit, primes.ErrInvalidArgument)
	case c.MaxLiftIndex < 1:
		return fmt.Errorf("pathcode: max lift index %d < 1: %w", c.MaxLiftIndex, primes.ErrInvalidArgument)
	}
	return nil
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Codec) {
		c.log = log.With().Str("component", "pathcode").Logger()
	}
}

// Codec encodes and decodes path codes against a shared prime registry.
// It holds no mutable state of its own and is safe for concurrent use.
type Codec struct {
	reg     *primes.Registry
	cfg     Config
	maxLift *big.Int
	log     zerolog.Logger
}

// NewCodec creates a codec. The registry must not be nil.
func NewCodec(reg *primes.Registry, cfg Config, opts ...Option) (*Codec, error) {
	if reg == nil {
		return nil, fmt.Errorf("pathcode: nil registry: %w", primes.ErrInvalidArgument)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Codec{
		reg:     reg,
		cfg:     cfg,
		maxLift: big.NewInt(cfg.MaxLiftIndex),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the codec configuration.
func (c *Codec) Config() Config {
	return c.cfg
}

// Encode compresses edgePrimes into a PathCode using at most depthLimit lift
// levels. Input order does not affect the result.
//
// When a block product exceeds MaxLiftIndex, or the registry cannot resolve
// it, lifting stops at the current level and the result has Capped set. A
// guard hit before the first lift yields the plain product at depth 0.
func (c *Codec) Encode(edgePrimes []*big.Int, depthLimit int) (PathCode, error) {
	if len(edgePrimes) == 0 {
		return PathCode{}, ErrEmptyPath
	}
	if depthLimit < 0 {
		return PathCode{}, fmt.Errorf("pathcode: depth limit %d < 0: %w", depthLimit, primes.ErrInvalidArgument)
	}

	list := make([]*big.Int, len(edgePrimes))
	for i, p := range edgePrimes {
		if p == nil || p.Cmp(big.NewInt(2)) < 0 || !p.ProbablyPrime(20) {
			return PathCode{}, fmt.Errorf("pathcode: edge value %v at %d is not prime: %w", p, i, primes.ErrInvalidArgument)
		}
		list[i] = new(big.Int).Set(p)
	}
	sortInts(list)

	var (
		depth  int
		capped bool
	)
	for len(list) > 1 && depth < depthLimit {
		next, err := c.lift(list)
		if errors.Is(err, errCapped) {
			capped = true
			c.log.Warn().
				Int("depth", depth).
				Int("limit", depthLimit).
				Int("width", len(list)).
				Msg("lift guard reached")
			break
		}
		if err != nil {
			return PathCode{}, err
		}
		list = next
		depth++
	}

	pc := PathCode{Code: Product(list), Depth: depth, Capped: capped}
	observeEncode(pc)
	return pc, nil
}

var errCapped = errors.New("pathcode: lift capped")

// lift replaces every block of the sorted list with the prime indexed by the
// block product. The whole level is rejected if any block cannot be lifted.
func (c *Codec) lift(list []*big.Int) ([]*big.Int, error) {
	size := c.cfg.BlockSize
	out := make([]*big.Int, 0, (len(list)+size-1)/size)

	for start := 0; start < len(list); start += size {
		end := min(start+size, len(list))
		m := Product(list[start:end])
		if m.Cmp(c.maxLift) > 0 {
			return nil, errCapped
		}
		p, err := c.reg.NthPrime(int(m.Int64()))
		if errors.Is(err, primes.ErrResourceLimitExceeded) {
			return nil, errCapped
		}
		if err != nil {
			return nil, fmt.Errorf("pathcode: lift block %s: %w", m, err)
		}
		out = append(out, p)
	}

	sortInts(out)
	return out, nil
}

// Decode recovers the ascending multiset of edge primes from code after
// reversing depth lift levels.
func (c *Codec) Decode(code *big.Int, depth int) ([]*big.Int, error) {
	res, err := c.decode(code, depth)
	if err != nil {
		decodeErrors.WithLabelValues(ErrorCode(err)).Inc()
		return nil, err
	}
	return res, nil
}

func (c *Codec) decode(code *big.Int, depth int) ([]*big.Int, error) {
	if depth < 0 {
		return nil, fmt.Errorf("pathcode: depth %d < 0: %w", depth, primes.ErrInvalidArgument)
	}
	if code == nil || code.Cmp(big.NewInt(2)) < 0 {
		return nil, fmt.Errorf("pathcode: code %v < 2: %w", code, ErrDecode)
	}

	list := c.reg.Factorize(code)
	for level := depth; level > 0; level-- {
		var next []*big.Int
		for _, v := range list {
			m, err := c.reg.PrimeIndex(v)
			if err != nil {
				return nil, fmt.Errorf("pathcode: unlift %s at level %d: %w: %w", v, level, ErrDecode, err)
			}
			if m < 2 {
				return nil, fmt.Errorf("pathcode: unlift %s at level %d gives index %d: %w", v, level, m, ErrDecode)
			}
			next = append(next, c.reg.Factorize(big.NewInt(int64(m)))...)
		}
		list = next
	}

	sortInts(list)
	return list, nil
}

// DecodePathCode decodes pc.
func (c *Codec) DecodePathCode(pc PathCode) ([]*big.Int, error) {
	return c.Decode(pc.Code, pc.Depth)
}

func observeEncode(pc PathCode) {
	result := "plain"
	switch {
	case pc.Capped:
		result = "capped"
	case pc.Depth > 0:
		result = "lifted"
	}
	encodeTotal.WithLabelValues(result).Inc()
	encodeDepth.Observe(float64(pc.Depth))
}

func sortInts(xs []*big.Int) {
	sort.Slice(xs, func(i, j int) bool { return xs[i].Cmp(xs[j]) < 0 })
}
