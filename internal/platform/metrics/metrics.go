// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics owns the Prometheus collectors exported by contactbook.

A [Metrics] value is created once per process against a registerer and passed
to the components that record into it. Every recording method is safe to call
on a nil *Metrics, so tests and tools can omit instrumentation entirely.
*/
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "contactbook"

// Outcome labels shared by the auth and mail counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics groups the application collectors.
type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	authEvents   *prometheus.CounterVec
	sessionCache *prometheus.CounterVec
	mailJobs     *prometheus.CounterVec
}

// New creates and registers the application collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),

		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "events_total",
			Help:      "Authentication events (login, refresh, logout) by outcome.",
		}, []string{"event", "outcome"}),

		sessionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "snapshot_lookups_total",
			Help:      "Identity snapshot lookups by result (hit, miss, error).",
		}, []string{"result"}),

		mailJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "jobs_total",
			Help:      "Mail jobs by stage (published, delivered), kind and outcome.",
		}, []string{"stage", "kind", "outcome"}),
	}

	reg.MustRegister(m.httpRequests, m.httpDuration, m.authEvents, m.sessionCache, m.mailJobs)
	return m
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// AuthEvent records the outcome of an authentication event such as "login".
func (m *Metrics) AuthEvent(event string, err error) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(event, outcome(err)).Inc()
}

// SnapshotLookup records a session snapshot lookup; result is "hit", "miss" or "error".
func (m *Metrics) SnapshotLookup(result string) {
	if m == nil {
		return
	}
	m.sessionCache.WithLabelValues(result).Inc()
}

// MailJob records a mail job transition.
func (m *Metrics) MailJob(stage, kind string, err error) {
	if m == nil {
		return
	}
	m.mailJobs.WithLabelValues(stage, kind, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
