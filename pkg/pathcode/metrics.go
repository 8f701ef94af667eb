package pathcode

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// encodeTotal counts encodings by outcome: plain (no lift requested or
	// possible), lifted, or capped by the lift guard
	encodeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "primepath_encode_total",
		Help: "Total path encodings by result",
	}, []string{"result"})

	// encodeDepth tracks the lift depth reached per encoding
	encodeDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "primepath_encode_depth",
		Help:    "Lift depth reached per path encoding",
		Buckets: []float64{0, 1, 2, 3, 4, 6, 8},
	})

	// decodeErrors counts failed decodings by error code
	decodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "primepath_decode_errors_total",
		Help: "Total failed path decodings by error code",
	}, []string{"code"})
)
