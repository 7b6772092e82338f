// Package metrics exposes Prometheus counters for game activity. The
// counters register with the default registry served by promhttp.Handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "calmgames"

var (
	SessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_created_total",
		Help:      "Game sessions created, by game kind.",
	}, []string{"kind"})

	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Sessions currently held in memory.",
	})

	Actions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_total",
		Help:      "Player actions, by game kind and outcome.",
	}, []string{"kind", "outcome"})

	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "memory_resolutions_total",
		Help:      "Memory pair resolutions, by result.",
	}, []string{"result"})

	GamesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_completed_total",
		Help:      "Games played to completion, by game kind.",
	}, []string{"kind"})
)

// Outcome labels for Actions.
const (
	OutcomeAccepted = "accepted"
	OutcomeIgnored  = "ignored"
)

// Result labels for Resolutions.
const (
	ResultMatch     = "match"
	ResultMismatch  = "mismatch"
	ResultCancelled = "cancelled"
)

// RecordAction counts one player action.
func RecordAction(kind string, accepted bool) {
	outcome := OutcomeIgnored
	if accepted {
		outcome = OutcomeAccepted
	}
	Actions.WithLabelValues(kind, outcome).Inc()
}

// RecordResolution counts one memory resolution.
func RecordResolution(matched bool) {
	if matched {
		Resolutions.WithLabelValues(ResultMatch).Inc()
		return
	}
	Resolutions.WithLabelValues(ResultMismatch).Inc()
}
