package metrics

import coremetrics "github.com/evsched/evsched/core/metrics"

// MultiSink fans out command events to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCommandResult forwards the records to all sinks, returning the first error encountered.
func (m *MultiSink) RecordCommandResult(res []coremetrics.CommandResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordCommandResult(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordWake forwards wake events when supported by the sink.
func (m *MultiSink) RecordWake(ev coremetrics.WakeEvent) error {
	for _, s := range m.Sinks {
		if wr, ok := s.(coremetrics.WakeRecorder); ok {
			if err := wr.RecordWake(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDenial forwards denial events when supported by the sink.
func (m *MultiSink) RecordDenial(ev coremetrics.DenialEvent) error {
	for _, s := range m.Sinks {
		if dr, ok := s.(coremetrics.DenialRecorder); ok {
			if err := dr.RecordDenial(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
