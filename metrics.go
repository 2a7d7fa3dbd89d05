package main

import "github.com/prometheus/client_golang/prometheus"

type controllerMetrics struct {
	events           prometheus.Counter
	transitions      *prometheus.CounterVec
	failures         *prometheus.CounterVec
	analysisDuration prometheus.Histogram
}

func newControllerMetrics(reg prometheus.Registerer) *controllerMetrics {
	m := &controllerMetrics{
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saa_events_total",
			Help: "Change events received for the reports collection.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saa_transitions_total",
			Help: "Events by classified transition.",
		}, []string{"transition"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saa_transition_failures_total",
			Help: "Transition failures by reason.",
		}, []string{"reason"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "saa_analysis_duration_seconds",
			Help:    "Wall time of analysis service calls.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
	reg.MustRegister(m.events, m.transitions, m.failures, m.analysisDuration)
	return m
}
