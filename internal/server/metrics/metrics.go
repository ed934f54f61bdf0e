// Package metrics collects the service's Prometheus metrics and exposes
// them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the HTTP layer and the archiver report to.
type Recorder interface {
	RecordRequest(method, route string, status int, d time.Duration)
	RecordAuth(grant string, success bool)
	RecordFactMutation(op string, success bool)
	RecordRateLimited()
	RecordArchive(success bool, facts int)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	auth          *prometheus.CounterVec
	mutations     *prometheus.CounterVec
	rateLimited   prometheus.Counter
	archives      *prometheus.CounterVec
	archivedFacts prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factfeed_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "factfeed_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		auth: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factfeed_auth_attempts_total",
			Help: "Sign-up, sign-in and refresh attempts by grant and outcome.",
		}, []string{"grant", "outcome"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factfeed_fact_mutations_total",
			Help: "Fact inserts, vote updates and deletes by outcome.",
		}, []string{"op", "outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "factfeed_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factfeed_archive_runs_total",
			Help: "Archive snapshot uploads by outcome.",
		}, []string{"outcome"}),
		archivedFacts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "factfeed_archive_last_facts",
			Help: "Number of facts in the last successful snapshot.",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.latency,
		c.auth,
		c.mutations,
		c.rateLimited,
		c.archives,
		c.archivedFacts,
	)

	return c
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func (c *Collector) RecordRequest(method, route string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) RecordAuth(grant string, success bool) {
	c.auth.WithLabelValues(grant, outcome(success)).Inc()
}

func (c *Collector) RecordFactMutation(op string, success bool) {
	c.mutations.WithLabelValues(op, outcome(success)).Inc()
}

func (c *Collector) RecordRateLimited() {
	c.rateLimited.Inc()
}

// RecordArchive counts an archive run; successful runs also set the
// last snapshot size.
func (c *Collector) RecordArchive(success bool, facts int) {
	c.archives.WithLabelValues(outcome(success)).Inc()
	if success {
		c.archivedFacts.Set(float64(facts))
	}
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRequest(string, string, int, time.Duration) {}
func (Nop) RecordAuth(string, bool)                          {}
func (Nop) RecordFactMutation(string, bool)                  {}
func (Nop) RecordRateLimited()                               {}
func (Nop) RecordArchive(bool, int)                          {}
