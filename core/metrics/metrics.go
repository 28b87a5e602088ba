// Package metrics defines the observability sinks fed by the engine's
// terminal events.
package metrics

import (
	"time"

	"github.com/evsched/evsched/core/model"
)

// CommandResult represents one terminal command outcome to be recorded.
type CommandResult struct {
	Command     model.Command
	Value       float64
	Success     bool
	Explanation string
	Retried     bool
	Time        time.Time
}

// Sink records command results for observability purposes.
type Sink interface {
	RecordCommandResult(results []CommandResult) error
}

// WakeEvent captures the result of one wake sequence.
type WakeEvent struct {
	Attempts int
	Woken    bool
	Time     time.Time
}

// WakeRecorder records wake sequences.
type WakeRecorder interface {
	RecordWake(ev WakeEvent) error
}

// DenialEvent captures a safety-gate denial.
type DenialEvent struct {
	Command model.Command
	Reason  string
	Time    time.Time
}

// DenialRecorder records safety-gate denials.
type DenialRecorder interface {
	RecordDenial(ev DenialEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordCommandResult([]CommandResult) error { return nil }
func (NopSink) RecordWake(WakeEvent) error                { return nil }
func (NopSink) RecordDenial(DenialEvent) error            { return nil }
