package primes_test

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/kittclouds/primepath/pkg/primes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *primes.Registry {
	t.Helper()
	reg := primes.NewRegistry(primes.Config{PreseedCount: 200, MaxPrimes: 50_000})
	require.NoError(t, reg.Preseed())
	return reg
}

func product(fs []*big.Int) *big.Int {
	p := big.NewInt(1)
	for _, f := range fs {
		p.Mul(p, f)
	}
	return p
}

func TestNthPrimeKnownValues(t *testing.T) {
	reg := newRegistry(t)

	known := map[int]int64{
		1:     2,
		2:     3,
		6:     13,
		10:    29,
		25:    97,
		35:    149,
		100:   541,
		1000:  7919,
		10000: 104729,
	}
	for n, want := range known {
		got, err := reg.NthPrime(n)
		require.NoError(t, err)
		assert.Equal(t, want, got.Int64(), "NthPrime(%d)", n)
	}
}

func TestNthPrimeInvalid(t *testing.T) {
	reg := newRegistry(t)

	_, err := reg.NthPrime(0)
	assert.ErrorIs(t, err, primes.ErrInvalidArgument)

	_, err = reg.NthPrime(-3)
	assert.ErrorIs(t, err, primes.ErrInvalidArgument)

	_, err = reg.NthPrime(50_001)
	assert.ErrorIs(t, err, primes.ErrResourceLimitExceeded)
}

func TestPreseed(t *testing.T) {
	reg := primes.NewRegistry(primes.Config{PreseedCount: 1000, MaxPrimes: 5000})
	assert.Equal(t, 0, reg.Len())

	require.NoError(t, reg.Preseed())
	assert.GreaterOrEqual(t, reg.Len(), 1000)
	assert.GreaterOrEqual(t, reg.Max(), uint64(7919))

	reg.Reset()
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, uint64(0), reg.Max())
}

func TestCacheIsBoundedByMaxPrimes(t *testing.T) {
	reg := primes.NewRegistry(primes.Config{MaxPrimes: 100})

	p, err := reg.NthPrime(100)
	require.NoError(t, err)
	assert.Equal(t, int64(541), p.Int64())
	assert.Equal(t, 100, reg.Len())
}

func TestPrimeIndexRoundTrip(t *testing.T) {
	reg := newRegistry(t)

	for n := 1; n <= 2000; n++ {
		p, err := reg.NthPrime(n)
		require.NoError(t, err)
		assert.True(t, p.ProbablyPrime(20), "NthPrime(%d)=%s is not prime", n, p)

		idx, err := reg.PrimeIndex(p)
		require.NoError(t, err)
		require.Equal(t, n, idx)
	}
}

func TestPrimeIndexExtendsCache(t *testing.T) {
	reg := primes.NewRegistry(primes.Config{MaxPrimes: 50_000})
	require.Equal(t, 0, reg.Len())

	idx, err := reg.PrimeIndex(big.NewInt(104729))
	require.NoError(t, err)
	assert.Equal(t, 10000, idx)
	assert.GreaterOrEqual(t, reg.Max(), uint64(104729))
}

func TestPrimeIndexErrors(t *testing.T) {
	reg := newRegistry(t)

	for _, v := range []int64{-7, 0, 1, 4, 6, 91, 7917} {
		_, err := reg.PrimeIndex(big.NewInt(v))
		assert.ErrorIs(t, err, primes.ErrNotPrime, "PrimeIndex(%d)", v)
	}

	_, err := reg.PrimeIndex(nil)
	assert.ErrorIs(t, err, primes.ErrNotPrime)

	// 2^61-1 is prime but far beyond a 50k-prime cache.
	mersenne := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 61), big.NewInt(1))
	_, err = reg.PrimeIndex(mersenne)
	assert.ErrorIs(t, err, primes.ErrNotFound)
	assert.Less(t, reg.Len(), 50_001)
}

func TestFactorize(t *testing.T) {
	reg := newRegistry(t)

	tests := []struct {
		n    int64
		want []int64
	}{
		{-5, nil},
		{0, nil},
		{1, nil},
		{2, []int64{2}},
		{12, []int64{2, 2, 3}},
		{30, []int64{2, 3, 5}},
		{1937, []int64{13, 149}},
		{7919, []int64{7919}},
		{1 << 20, []int64{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2}},
		// product of two primes above the 200-prime preseed
		{104723 * 104729, []int64{104723, 104729}},
	}

	for _, tt := range tests {
		got := reg.Factorize(big.NewInt(tt.n))
		ints := make([]int64, len(got))
		for i, f := range got {
			ints[i] = f.Int64()
		}
		if tt.want == nil {
			assert.Empty(t, got, "Factorize(%d)", tt.n)
			continue
		}
		assert.Equal(t, tt.want, ints, "Factorize(%d)", tt.n)
	}
}

func TestFactorizeProductAndOrder(t *testing.T) {
	reg := newRegistry(t)

	for m := int64(2); m <= 5000; m++ {
		n := big.NewInt(m)
		fs := reg.Factorize(n)
		require.NotEmpty(t, fs)
		require.Zero(t, product(fs).Cmp(n), "product(Factorize(%d))", m)
		for i := 1; i < len(fs); i++ {
			require.LessOrEqual(t, fs[i-1].Cmp(fs[i]), 0, "Factorize(%d) not ascending", m)
		}
		for _, f := range fs {
			require.True(t, f.ProbablyPrime(20))
		}
	}
}

func TestFactorizePrimes(t *testing.T) {
	reg := newRegistry(t)

	for n := 1; n <= 500; n++ {
		p, err := reg.NthPrime(n)
		require.NoError(t, err)
		fs := reg.Factorize(p)
		require.Len(t, fs, 1)
		assert.Zero(t, fs[0].Cmp(p))
	}
}

func TestFactorizeBeyondUint64(t *testing.T) {
	reg := newRegistry(t)

	// 2^64 * 3^5 * 1000003
	n := new(big.Int).Lsh(big.NewInt(1), 64)
	n.Mul(n, big.NewInt(243))
	n.Mul(n, big.NewInt(1000003))

	fs := reg.Factorize(n)
	assert.Zero(t, product(fs).Cmp(n))
	assert.Len(t, fs, 64+5+1)
	assert.Equal(t, int64(1000003), fs[len(fs)-1].Int64())

	// a large prime factor is kept whole
	big1 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 89), big.NewInt(1))
	m := new(big.Int).Mul(big1, big.NewInt(6))
	fs = reg.Factorize(m)
	require.Len(t, fs, 3)
	assert.Equal(t, int64(2), fs[0].Int64())
	assert.Equal(t, int64(3), fs[1].Int64())
	assert.Zero(t, fs[2].Cmp(big1))
}

func TestFactorizeLargePrimeProductFinishes(t *testing.T) {
	reg := newRegistry(t)

	// three primes near 2^22; the product exceeds uint64
	n := product([]*big.Int{big.NewInt(4194301), big.NewInt(4194287), big.NewInt(4194277)})
	require.False(t, n.IsUint64())

	done := make(chan []*big.Int, 1)
	go func() { done <- reg.Factorize(n) }()

	select {
	case fs := <-done:
		require.Len(t, fs, 3)
		assert.Equal(t, int64(4194277), fs[0].Int64())
		assert.Equal(t, int64(4194287), fs[1].Int64())
		assert.Equal(t, int64(4194301), fs[2].Int64())
	case <-time.After(10 * time.Second):
		t.Fatalf("Factorize(%s) still running after 10s", n)
	}
}

func TestFactorizeWithoutCache(t *testing.T) {
	reg := primes.NewRegistry(primes.DefaultConfig())

	fs := reg.Factorize(big.NewInt(2 * 2 * 3 * 97 * 101))
	require.Len(t, fs, 5)
	assert.Equal(t, int64(101), fs[4].Int64())
	assert.Equal(t, 0, reg.Len(), "factorization must not grow the cache")
}

func TestConcurrentGrowth(t *testing.T) {
	reg := primes.NewRegistry(primes.Config{MaxPrimes: 50_000})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for n := 1 + w; n <= 20_000; n += 997 {
				p, err := reg.NthPrime(n)
				if !assert.NoError(t, err) {
					return
				}
				idx, err := reg.PrimeIndex(p)
				if assert.NoError(t, err) {
					assert.Equal(t, n, idx)
				}
				reg.Factorize(new(big.Int).Mul(p, big.NewInt(6)))
			}
		}(w)
	}
	wg.Wait()

	p, err := reg.NthPrime(10000)
	require.NoError(t, err)
	assert.Equal(t, int64(104729), p.Int64())
}
