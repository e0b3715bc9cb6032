// Package services – Prometheus instrumentation for the scoring pipeline.
package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messages_ingested_total",
		Help: "Ingested message events by type and duplicate status.",
	}, []string{"type", "duplicate"})

	rankChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rank_changes_total",
		Help: "Number of rank promotions applied by the scoring pipeline.",
	})
)
