package events

import (
	"time"

	"github.com/evsched/evsched/core/model"
)

// ActivityEvent is published for each reportable activity entry. Entries for
// the Unplugged and Message commands are written to the log but never emitted
// as ActivityEvents.
type ActivityEvent struct {
	Timestamp time.Time
	Entry     string
}

// CommandEvent is published when a command reaches its terminal state.
type CommandEvent struct {
	Command model.Command
	Value   float64
	Outcome model.Outcome
	Retried bool
}

// WakeEvent reports the result of a wake attempt sequence.
type WakeEvent struct {
	Attempts int
	Woken    bool
}

// DenialEvent is published when the safety gate blocks a command.
type DenialEvent struct {
	Command model.Command
	Reason  string
}
