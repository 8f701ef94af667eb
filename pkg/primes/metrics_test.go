package primes

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedPrimesGaugeSumsRegistries(t *testing.T) {
	base := testutil.ToFloat64(cachedPrimes)

	a := NewRegistry(Config{MaxPrimes: 100})
	b := NewRegistry(Config{MaxPrimes: 50})
	_, err := a.NthPrime(100)
	require.NoError(t, err)
	_, err = b.NthPrime(50)
	require.NoError(t, err)
	assert.Equal(t, base+150, testutil.ToFloat64(cachedPrimes))

	// resetting one registry leaves the other's primes counted
	a.Reset()
	assert.Equal(t, base+50, testutil.ToFloat64(cachedPrimes))

	b.Reset()
	assert.Equal(t, base, testutil.ToFloat64(cachedPrimes))
}
