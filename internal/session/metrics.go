package session

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"automata/internal/engine"
)

var tracer = otel.Tracer("automata.session")

var (
	roundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automata_rounds_total",
		Help: "Requester rounds by result",
	}, []string{"result"})

	responsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automata_responses_total",
		Help: "Executor responses by outcome",
	}, []string{"outcome"})

	roundDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "automata_round_duration_seconds",
		Help:    "Wall time of one requester round",
		Buckets: prometheus.DefBuckets,
	})
)

func startRoundSpan(ctx context.Context, id string, p engine.Params, executors int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Requester.RunRound",
		trace.WithAttributes(
			attribute.String("round.id", id),
			attribute.String("round.rule", p.Rule.String()),
			attribute.Int("round.steps", p.Steps),
			attribute.Int("round.executors", executors),
		),
	)
}
