package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evolveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "automata_evolve_duration_seconds",
		Help:    "Wall time of one Evolve call by rule",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
	}, []string{"rule"})

	evolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automata_evolve_total",
		Help: "Evolve calls by rule and result",
	}, []string{"rule", "result"})

	memoLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automata_memo_lookups_total",
		Help: "Memoized transition lookups by result",
	}, []string{"result"})
)
