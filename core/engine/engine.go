package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/evsched/evsched/core/activity"
	"github.com/evsched/evsched/core/device"
	"github.com/evsched/evsched/core/events"
	"github.com/evsched/evsched/core/inactivity"
	"github.com/evsched/evsched/core/logger"
	"github.com/evsched/evsched/core/model"
	"github.com/evsched/evsched/core/notify"
	"github.com/evsched/evsched/core/safety"
	"github.com/evsched/evsched/core/wake"
	"github.com/evsched/evsched/internal/eventbus"
)

// Engine is the command execution engine. It is safe for concurrent use; each
// invocation owns its own freshly fetched state snapshot and the wake polling
// loop blocks only its own invocation.
type Engine struct {
	device   device.Client
	wake     *wake.Controller
	sink     inactivity.Sink
	sender   notify.Sender
	renderer notify.Renderer
	prefs    Preferences
	activity *activity.Log
	bus      eventbus.EventBus
	log      logger.Logger

	// unpluggedMu serializes concurrent unplugged-trigger evaluations so two
	// triggers never interleave their reads of charge state.
	unpluggedMu sync.Mutex
}

// New creates an Engine. bus may be nil when no observer is attached; renderer
// may be nil, in which case message templates pass through unchanged.
func New(dev device.Client, wc *wake.Controller, sink inactivity.Sink, sender notify.Sender, renderer notify.Renderer, prefs Preferences, act *activity.Log, bus eventbus.EventBus, log logger.Logger) (*Engine, error) {
	if dev == nil || wc == nil || sink == nil || sender == nil || prefs == nil || act == nil || log == nil {
		return nil, fmt.Errorf("engine: nil parameter provided to New")
	}
	if renderer == nil {
		renderer = notify.IdentityRenderer{}
	}
	return &Engine{
		device:   dev,
		wake:     wc,
		sink:     sink,
		sender:   sender,
		renderer: renderer,
		prefs:    prefs,
		activity: act,
		bus:      bus,
		log:      log,
	}, nil
}

// RunCommand executes one scheduled command. It always completes normally;
// outcomes surface only through the activity log and, for reportable
// commands, the event bus.
func (e *Engine) RunCommand(ctx context.Context, cmd model.Command, value float64, target *model.MessageTarget) {
	var snap model.StateSnapshot
	if cmd != model.CommandSleep {
		// Sleep never requires waking the vehicle; it is itself a request
		// to let it sleep.
		s, err := e.wake.EnsureAwake(ctx, e.device)
		if err != nil {
			e.activity.Append("Can't wake vehicle - aborting", true)
			commandsTotal.WithLabelValues(cmd.String(), "unreachable").Inc()
			return
		}
		snap = s
	}

	policy := e.prefs.Policy()
	if d := safety.Evaluate(cmd, value, snap, policy); !d.Allowed {
		e.activity.Append(d.Reason, true)
		safetyDenials.WithLabelValues(cmd.String()).Inc()
		commandsTotal.WithLabelValues(cmd.String(), "denied").Inc()
		if e.bus != nil {
			e.bus.Publish(events.DenialEvent{Command: cmd, Reason: d.Reason})
		}
		return
	}

	res, retried := retryOnce(func() attempt {
		return e.dispatch(ctx, cmd, value, target, snap)
	})
	if retried {
		dispatchRetries.Inc()
	}

	name := cmd.Name(value)
	entry := fmt.Sprintf("%s: succeeded", name)
	result := "success"
	if !res.ok {
		entry = fmt.Sprintf("%s: failed, %s", name, res.out.Explanation)
		result = "failure"
	}
	report := cmd != model.CommandUnplugged && cmd != model.CommandMessage
	e.activity.Append(entry, report)
	commandsTotal.WithLabelValues(cmd.String(), result).Inc()
	if e.bus != nil {
		e.bus.Publish(events.CommandEvent{Command: cmd, Value: value, Outcome: res.out, Retried: retried})
	}
}
