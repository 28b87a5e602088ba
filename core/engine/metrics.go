package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	commandsTotal     *prometheus.CounterVec
	safetyDenials     *prometheus.CounterVec
	dispatchRetries   prometheus.Counter
	notificationsSent prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter) {
	cmds := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commands_total",
			Help: "Number of command invocations by terminal result",
		},
		[]string{"command", "result"},
	)
	den := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safety_denials_total",
			Help: "Number of commands denied by the safety gate",
		},
		[]string{"command"},
	)
	ret := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_retries_total",
			Help: "Number of automatic dispatch retries",
		},
	)
	sent := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Number of notifications handed to the sender",
		},
	)
	return cmds, den, ret, sent
}

func init() {
	commandsTotal, safetyDenials, dispatchRetries, notificationsSent = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers engine metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(commandsTotal, safetyDenials, dispatchRetries, notificationsSent)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	commandsTotal, safetyDenials, dispatchRetries, notificationsSent = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
