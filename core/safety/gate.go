// Package safety implements the policy gate evaluated against a freshly
// fetched state snapshot before a gated command is dispatched.
package safety

import (
	"fmt"

	"github.com/evsched/evsched/core/model"
)

// Decision is the result of one gate evaluation. When the command is denied,
// Reason carries the activity-log text naming the single failing check; the
// engine writes the entry.
type Decision struct {
	Allowed bool
	Reason  string
}

var allowed = Decision{Allowed: true}

// Evaluate checks whether the command may run given the snapshot and policy.
// Only commands in the policy's safe-mode set are checked; all others are
// unconditionally safe. Checks short-circuit in order: minimum charge first,
// then plug-in state, so at most one reason is ever reported.
func Evaluate(cmd model.Command, value float64, snap model.StateSnapshot, policy model.PolicyConfig) Decision {
	if !policy.RequiresSafeMode(cmd) {
		return allowed
	}

	name := cmd.Name(value)
	if policy.RequireMinCharge {
		threshold := policy.MinChargeThreshold
		if threshold <= 0 {
			threshold = model.DefaultMinChargeThreshold
		}
		if snap.BatteryPercent < threshold {
			return Decision{Reason: fmt.Sprintf("%s: Insufficient charge - aborted", name)}
		}
	}

	if policy.RequirePluggedIn {
		switch snap.PilotSignal() {
		case model.PilotUnknown:
			return Decision{Reason: fmt.Sprintf("%s: Can't tell if vehicle is plugged in - aborted", name)}
		case model.PilotNotPluggedIn:
			return Decision{Reason: fmt.Sprintf("%s: Vehicle is not plugged in - aborted", name)}
		default:
			return allowed
		}
	}

	return allowed
}
