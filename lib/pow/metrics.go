package pow

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	candidatesTested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateproof_pow_candidates_tested",
		Help: "The total number of candidate nonces tested across all searches",
	})

	searchesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateproof_pow_searches",
		Help: "The total number of finished searches by outcome",
	}, []string{"outcome"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gateproof_pow_search_duration_seconds",
		Help:    "The time taken to finish a solution search",
		Buckets: prometheus.ExponentialBucketsRange(0.001, math.Pow(2, 10), 20),
	})
)
