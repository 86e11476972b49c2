package dapic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saron_dapic_requests_total",
		Help: "Dapic data requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saron_dapic_logins_total",
		Help: "Dapic logins by store and outcome",
	}, []string{"store", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "saron_dapic_request_duration_seconds",
		Help:    "Dapic data request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
