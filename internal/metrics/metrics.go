package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	DecisionsRecorded *prometheus.CounterVec
	MatchesDetected   prometheus.Counter
	CandidatesServed  prometheus.Counter
	EmptyDeckReplies  prometheus.Counter
}

// New registers collectors on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers collectors on reg. Tests pass a throwaway registry so
// repeated construction does not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DecisionsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "matchdeck_decisions_recorded_total",
			Help: "Total decisions written to the action ledger, by decision value",
		}, []string{"decision"}),
		MatchesDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "matchdeck_matches_detected_total",
			Help: "Total mutual matches detected at decision time",
		}),
		CandidatesServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "matchdeck_candidates_served_total",
			Help: "Total candidates returned by deck fetches",
		}),
		EmptyDeckReplies: factory.NewCounter(prometheus.CounterOpts{
			Name: "matchdeck_empty_deck_replies_total",
			Help: "Total deck fetches answered with an empty result",
		}),
	}
}
