package wake

import "github.com/prometheus/client_golang/prometheus"

var (
	wakeAttempts prometheus.Histogram
	wakeFailures prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Histogram, prometheus.Counter) {
	att := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vehicle_wake_attempts",
		Help:    "Number of wake attempts needed before a valid state snapshot",
		Buckets: []float64{0, 1, 2, 5, 10, 20},
	})
	fail := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vehicle_wake_failures_total",
		Help: "Number of wake sequences exhausted without a valid snapshot",
	})
	return att, fail
}

func init() {
	wakeAttempts, wakeFailures = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers wake metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(wakeAttempts, wakeFailures)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	wakeAttempts, wakeFailures = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
