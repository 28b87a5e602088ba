package model

// PilotSignal is the three-valued plug-in state derived from the pilot
// current reported by the vehicle's charge port.
type PilotSignal int

const (
	PilotUnknown PilotSignal = iota - 1
	PilotNotPluggedIn
	PilotPluggedIn
)

// String returns a human-readable representation of the signal.
func (p PilotSignal) String() string {
	switch p {
	case PilotUnknown:
		return "unknown"
	case PilotNotPluggedIn:
		return "not_plugged_in"
	case PilotPluggedIn:
		return "plugged_in"
	default:
		return "unknown"
	}
}

// StateSnapshot is a point-in-time read of the vehicle's charge and
// connectivity state. Each engine invocation fetches its own snapshot; a
// snapshot is never shared or cached across invocations.
type StateSnapshot struct {
	// Valid reports whether the read succeeded. A sleeping vehicle returns
	// invalid snapshots until woken.
	Valid bool `json:"valid"`
	// BatteryPercent is the state of charge between 0 and 100.
	BatteryPercent int `json:"battery_percent"`
	// Range is the estimated remaining range in the vehicle's units.
	Range float64 `json:"range"`
	// PilotCurrent is the current in amps available from an attached power
	// source: -1 when unknown, 0 when unplugged, positive when plugged in.
	PilotCurrent int `json:"pilot_current"`
}

// PilotSignal derives the three-valued plug-in signal from the snapshot.
func (s StateSnapshot) PilotSignal() PilotSignal {
	switch {
	case s.PilotCurrent < 0:
		return PilotUnknown
	case s.PilotCurrent == 0:
		return PilotNotPluggedIn
	default:
		return PilotPluggedIn
	}
}
