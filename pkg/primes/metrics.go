package primes

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cachedPrimes sums the cache lengths of every registry in the process;
	// Reset takes a registry's share back out
	cachedPrimes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "primepath_registry_cached_primes",
		Help: "Number of primes held by all registry caches",
	})

	// cacheExtensions counts sieve windows appended to a cache
	cacheExtensions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "primepath_registry_extensions_total",
		Help: "Total sieve windows appended to the prime cache",
	})
)
