// Copyright 2025 Certen Protocol
//
// Prometheus metrics for the notarization runner.

package runner

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the counters the scheduler and tracker report.
type Metrics struct {
	NotarizationsEmitted   prometheus.Counter
	SignaturesCollected    prometheus.Counter
	FinalizationsConfirmed prometheus.Counter
	FinalizationsRejected  prometheus.Counter
	StaleBlockRetries      prometheus.Counter
	ConfirmedTipHeight     *prometheus.GaugeVec
}

// NewMetrics builds and registers the runner metrics on reg. Pass
// prometheus.DefaultRegisterer outside tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NotarizationsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notarycore",
			Name:      "notarizations_emitted_total",
			Help:      "Earned notarizations emitted for inclusion.",
		}),
		SignaturesCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notarycore",
			Name:      "signatures_collected_total",
			Help:      "Notary evidence signatures added by the confirm/reject pass.",
		}),
		FinalizationsConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notarycore",
			Name:      "finalizations_confirmed_total",
			Help:      "Finalizations advanced to CONFIRMED.",
		}),
		FinalizationsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notarycore",
			Name:      "finalizations_rejected_total",
			Help:      "Finalizations advanced to REJECTED.",
		}),
		StaleBlockRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notarycore",
			Name:      "stale_block_retries_total",
			Help:      "Operations abandoned because the chain tip moved during a peer RPC.",
		}),
		ConfirmedTipHeight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "notarycore",
			Name:      "confirmed_tip_height",
			Help:      "Height of the confirmed notarization tip per system.",
		}, []string{"system_id"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.NotarizationsEmitted,
			m.SignaturesCollected,
			m.FinalizationsConfirmed,
			m.FinalizationsRejected,
			m.StaleBlockRetries,
			m.ConfirmedTipHeight,
		)
	}
	return m
}
