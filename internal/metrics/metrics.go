package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	stageStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskboot",
			Subsystem: "boot",
			Name:      "stage_starts_total",
			Help:      "Number of subordinate launches per stage.",
		}, []string{"stage"},
	)
	launchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskboot",
			Subsystem: "boot",
			Name:      "launch_failures_total",
			Help:      "Number of failed subordinate launches per stage.",
		}, []string{"stage"},
	)
	probeAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskboot",
			Subsystem: "probe",
			Name:      "attempts_total",
			Help:      "Number of readiness probe connection attempts per target.",
		}, []string{"target"},
	)
	probeExhausted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskboot",
			Subsystem: "probe",
			Name:      "exhausted_total",
			Help:      "Number of probes that used their whole attempt budget without success.",
		}, []string{"target"},
	)
	probeWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "deskboot",
			Subsystem: "probe",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for a target to become ready.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 11),
		}, []string{"target"},
	)
	handoffs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "deskboot",
			Subsystem: "boot",
			Name:      "handoffs_total",
			Help:      "Number of process-image handoffs into the worker.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{stageStarts, launchFailures, probeAttempts, probeExhausted, probeWait, handoffs}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// RegisterDefault registers with the default prometheus registry.
func RegisterDefault() error { return Register(prometheus.DefaultRegisterer) }

// Handler returns an http.Handler serving metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Lightweight helpers used by internal packages. They no-op before Register.

func IncStageStart(stage string) {
	if regOK.Load() {
		stageStarts.WithLabelValues(stage).Inc()
	}
}

func IncLaunchFailure(stage string) {
	if regOK.Load() {
		launchFailures.WithLabelValues(stage).Inc()
	}
}

func IncProbeAttempt(target string) {
	if regOK.Load() {
		probeAttempts.WithLabelValues(target).Inc()
	}
}

func IncProbeExhausted(target string) {
	if regOK.Load() {
		probeExhausted.WithLabelValues(target).Inc()
	}
}

func ObserveProbeWait(target string, seconds float64) {
	if regOK.Load() {
		probeWait.WithLabelValues(target).Observe(seconds)
	}
}

func IncHandoff() {
	if regOK.Load() {
		handoffs.Inc()
	}
}
