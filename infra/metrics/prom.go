package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/evsched/evsched/core/metrics"
)

// PromSink records command events in Prometheus metrics.
type PromSink struct {
	results *prometheus.CounterVec
	wakes   *prometheus.HistogramVec
	denials *prometheus.CounterVec
}

// NewPromSink registers command metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusAddr.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "command_results_total",
		Help: "Total number of terminal command outcomes",
	}, []string{"command", "success", "retried"})
	wakes := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wake_sequence_attempts",
		Help:    "Wake attempts per sequence by outcome",
		Buckets: []float64{0, 1, 2, 5, 10, 20},
	}, []string{"woken"})
	denials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gate_denials_total",
		Help: "Safety gate denials per command",
	}, []string{"command"})

	if err := reg.Register(results); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			results = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(wakes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			wakes = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(denials); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			denials = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{results: results, wakes: wakes, denials: denials}, nil
}

// RecordCommandResult increments the counter for each terminal outcome.
func (s *PromSink) RecordCommandResult(res []coremetrics.CommandResult) error {
	for _, r := range res {
		s.results.WithLabelValues(r.Command.String(), strconv.FormatBool(r.Success), strconv.FormatBool(r.Retried)).Inc()
	}
	return nil
}

// RecordWake observes the attempt count of one wake sequence.
func (s *PromSink) RecordWake(ev coremetrics.WakeEvent) error {
	s.wakes.WithLabelValues(strconv.FormatBool(ev.Woken)).Observe(float64(ev.Attempts))
	return nil
}

// RecordDenial counts a safety-gate denial.
func (s *PromSink) RecordDenial(ev coremetrics.DenialEvent) error {
	s.denials.WithLabelValues(ev.Command.String()).Inc()
	return nil
}
