package engine

import (
	"context"
	"fmt"

	"github.com/evsched/evsched/core/device"
	"github.com/evsched/evsched/core/inactivity"
	"github.com/evsched/evsched/core/model"
)

// dispatch maps one command to its device-API calls and normalizes the result.
// For multi-call commands the outcome of the last call issued is the one
// reported; snap is the snapshot fetched by this invocation's wake step.
func (e *Engine) dispatch(ctx context.Context, cmd model.Command, value float64, target *model.MessageTarget, snap model.StateSnapshot) attempt {
	switch cmd {
	case model.CommandChargeSet:
		r := e.setChargeTarget(ctx, value)
		return attempt{out: r, ok: r.OKForSet()}
	case model.CommandChargeOn:
		// The start-charging outcome supersedes the target-set outcome.
		e.setChargeTarget(ctx, value)
		r := e.device.StartCharging(ctx)
		return attempt{out: r, ok: r.Success}
	case model.CommandChargeOff:
		r := e.device.StopCharging(ctx)
		return attempt{out: r, ok: r.Success}
	case model.CommandHVACOn:
		if value > 0 {
			// Set the target temperature first; a failure here aborts
			// before climate control is started.
			var r model.Outcome
			if e.prefs.TemperatureUnit() == device.UnitFahrenheit {
				r = e.device.SetTempF(ctx, value, value)
			} else {
				r = e.device.SetTempC(ctx, value, value)
			}
			if !r.Success {
				return attempt{out: r}
			}
		}
		r := e.device.StartClimate(ctx)
		return attempt{out: r, ok: r.Success}
	case model.CommandHVACOff:
		r := e.device.StopClimate(ctx)
		return attempt{out: r, ok: r.Success}
	case model.CommandAwake:
		e.sink.SetMode(inactivity.ModeAwake)
		return attempt{out: model.Succeeded, ok: true}
	case model.CommandSleep:
		e.sink.SetMode(inactivity.ModeSleep)
		return attempt{out: model.Succeeded, ok: true}
	case model.CommandUnplugged:
		r := e.unpluggedTrigger(snap)
		return attempt{out: r, ok: r.Success}
	case model.CommandMessage:
		r := e.sendMessage(target)
		return attempt{out: r, ok: r.Success}
	default:
		return attempt{out: model.Failed(fmt.Sprintf("unknown command %d", cmd))}
	}
}

// setChargeTarget requests the charge target when value is positive. A
// failure other than already_set produces an intermediate activity entry; the
// raw outcome is returned either way.
func (e *Engine) setChargeTarget(ctx context.Context, value float64) model.Outcome {
	if value <= 0 {
		return model.Succeeded
	}
	r := e.device.SetChargeTarget(ctx, int(value))
	if !r.OKForSet() {
		e.activity.Append(fmt.Sprintf("Unable to set charge target: %s", r.Explanation), true)
	}
	return r
}

// unpluggedTrigger evaluates the plug-in state and notifies when the vehicle
// is unplugged. It never fails; only the explanation varies. The trigger path
// is mutually exclusive with itself so concurrent evaluations never interleave
// their reads of charge state.
func (e *Engine) unpluggedTrigger(snap model.StateSnapshot) model.Outcome {
	e.unpluggedMu.Lock()
	defer e.unpluggedMu.Unlock()

	switch snap.PilotSignal() {
	case model.PilotNotPluggedIn:
		subject := fmt.Sprintf("Your vehicle is not plugged in. Range = %d", int(snap.Range))
		e.sender.Send(e.prefs.NotificationAddress(), subject, "")
		notificationsSent.Inc()
		return model.Outcome{Success: true, Explanation: "Vehicle is unplugged. Notification sent"}
	case model.PilotUnknown:
		return model.Outcome{Success: true, Explanation: "Can't tell if vehicle is plugged in. No notification sent"}
	default:
		return model.Outcome{Success: true, Explanation: "Vehicle is plugged-in. No notification sent"}
	}
}

// sendMessage delivers the Message command. A nil target falls back to the
// configured notification address with placeholder subject and body.
func (e *Engine) sendMessage(target *model.MessageTarget) model.Outcome {
	if target == nil {
		e.sender.Send(e.prefs.NotificationAddress(),
			"No subject was specified",
			"No body was specified")
		notificationsSent.Inc()
		return model.Succeeded
	}
	subject, err := e.renderer.Render(target.SubjectTemplate)
	if err != nil {
		return model.Failed(fmt.Sprintf("message render failed: %v", err))
	}
	body, err := e.renderer.Render(target.BodyTemplate)
	if err != nil {
		return model.Failed(fmt.Sprintf("message render failed: %v", err))
	}
	if !e.sender.Send(target.Address, subject, body) {
		return model.Failed("notification send failed")
	}
	notificationsSent.Inc()
	return model.Succeeded
}
