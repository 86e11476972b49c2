package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync outcomes used as the "outcome" label.
const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeRejected  = "rejected"
)

var (
	syncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saron_sales_sync_runs_total",
		Help: "Sales sync runs by store and outcome",
	}, []string{"store", "outcome"})

	syncSalesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saron_sales_sync_sales_total",
		Help: "Sales handled by the sync engine, by store and result (stored, duplicate, skipped)",
	}, []string{"store", "result"})

	syncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "saron_sales_sync_duration_seconds",
		Help:    "Duration of one store sync run",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"store"})

	scheduledTriggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saron_scheduler_triggers_total",
		Help: "Scheduled tasks enqueued, by schedule and outcome",
	}, []string{"schedule", "outcome"})
)
