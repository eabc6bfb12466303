// Package metrics collects Prometheus metrics for the auth flows and serves
// them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidInput       = "invalid_input"
	OutcomeDuplicate          = "duplicate"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeError              = "error"

	GateAllowed = "allowed"
	GateMissing = "missing"
	GateInvalid = "invalid"
	GateExpired = "expired"
)

// Recorder is what services and middleware report to
type Recorder interface {
	RecordSignup(outcome string)
	RecordLogin(outcome string)
	RecordGateDecision(outcome string)
	RecordHashDuration(op string, d time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordRateLimited(route string)
}

// Collector is the Prometheus implementation of Recorder
type Collector struct {
	signups      *prometheus.CounterVec
	logins       *prometheus.CounterVec
	gate         *prometheus.CounterVec
	hashDuration *prometheus.HistogramVec
	httpStatus   *prometheus.CounterVec
	rateLimited  *prometheus.CounterVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_signups_total",
			Help: "Signup attempts by outcome",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		gate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_gate_decisions_total",
			Help: "Authorization gate decisions by outcome",
		}, []string{"outcome"}),
		hashDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lostfound_password_hash_seconds",
			Help:    "Time spent hashing or verifying passwords, including wait for a worker",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"op"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_http_responses_total",
			Help: "HTTP responses by status code",
		}, []string{"status_code"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.signups,
		c.logins,
		c.gate,
		c.hashDuration,
		c.httpStatus,
		c.rateLimited,
	)

	return c
}

func (c *Collector) RecordSignup(outcome string) {
	c.signups.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordGateDecision(outcome string) {
	c.gate.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordHashDuration(op string, d time.Duration) {
	c.hashDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordRateLimited(route string) {
	c.rateLimited.WithLabelValues(route).Inc()
}

// Nop discards everything. Used where no registry is wired, mostly tests.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) RecordSignup(string)                      {}
func (Nop) RecordLogin(string)                       {}
func (Nop) RecordGateDecision(string)                {}
func (Nop) RecordHashDuration(string, time.Duration) {}
func (Nop) RecordHTTPStatus(int)                     {}
func (Nop) RecordRateLimited(string)                 {}

// Handler returns the scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
