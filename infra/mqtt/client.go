// Package mqtt implements the vehicle device client over MQTT. Commands are
// published to the vehicle's command topic and matched to result messages by
// command identifier; state is requested and answered the same way. A vehicle
// that is asleep simply does not answer, which surfaces as an invalid snapshot
// or a failed outcome rather than an error.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/evsched/evsched/core/device"
	"github.com/evsched/evsched/core/model"
	"github.com/evsched/evsched/infra/logger"
)

// ErrResultTimeout is returned internally when no result is received before
// the timeout; callers observe it as a failed outcome.
var ErrResultTimeout = errors.New("timeout waiting for command result")

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// DeviceClient implements device.Client using Eclipse Paho.
type DeviceClient struct {
	cli       pahoClient
	vehicleID string
	qos       map[string]byte

	mu          sync.Mutex
	resultChans map[string]chan resultMessage
	stateChans  map[string]chan stateMessage

	logger       logger.Logger
	maxRetries   int
	backoff      time.Duration
	cmdTimeout   time.Duration
	stateTimeout time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewDeviceClient connects to the MQTT broker and subscribes to the vehicle's
// result and state topics.
func NewDeviceClient(cfg Config) (*DeviceClient, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.VehicleID == "" {
		return nil, fmt.Errorf("mqtt: vehicle_id is required")
	}

	log := logger.New("mqtt_device")
	dc := &DeviceClient{
		vehicleID:    cfg.VehicleID,
		qos:          cfg.QoS,
		resultChans:  make(map[string]chan resultMessage),
		stateChans:   make(map[string]chan stateMessage),
		logger:       log,
		maxRetries:   cfg.MaxRetries,
		backoff:      time.Duration(cfg.BackoffMS) * time.Millisecond,
		cmdTimeout:   cfg.CommandTimeout(),
		stateTimeout: cfg.StateTimeout(),
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(dc.resultTopic(), dc.qosFor("result"), dc.onResult); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
		if token := c.Subscribe(dc.stateTopic(), dc.qosFor("state"), dc.onState); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	dc.cli = c
	return dc, nil
}

func (d *DeviceClient) commandTopic() string { return fmt.Sprintf("vehicle/%s/command", d.vehicleID) }
func (d *DeviceClient) resultTopic() string  { return fmt.Sprintf("vehicle/%s/result", d.vehicleID) }
func (d *DeviceClient) stateTopic() string   { return fmt.Sprintf("vehicle/%s/state", d.vehicleID) }
func (d *DeviceClient) stateReqTopic() string {
	return fmt.Sprintf("vehicle/%s/state/get", d.vehicleID)
}
func (d *DeviceClient) wakeTopic() string { return fmt.Sprintf("vehicle/%s/wake", d.vehicleID) }

func (d *DeviceClient) qosFor(kind string) byte {
	if q, ok := d.qos[kind]; ok {
		return q
	}
	return 0
}

func (d *DeviceClient) onResult(_ paho.Client, msg paho.Message) {
	var m resultMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		d.logger.Errorf("failed to decode result: %v", err)
		return
	}
	d.mu.Lock()
	if ch, ok := d.resultChans[m.CommandID]; ok {
		select {
		case ch <- m:
		default:
		}
		d.logger.Debugf("received result %s", m.CommandID)
	}
	d.mu.Unlock()
}

func (d *DeviceClient) onState(_ paho.Client, msg paho.Message) {
	var m stateMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		d.logger.Errorf("failed to decode state: %v", err)
		return
	}
	d.mu.Lock()
	if ch, ok := d.stateChans[m.CommandID]; ok {
		select {
		case ch <- m:
		default:
		}
	}
	d.mu.Unlock()
}

// publish sends the payload with bounded retry and exponential backoff.
func (d *DeviceClient) publish(topic string, qos byte, payload []byte) error {
	retries := d.maxRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := d.backoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	var publishErr error
	for attempt := 0; attempt <= retries; attempt++ {
		token := d.cli.Publish(topic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		d.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt == retries {
			break
		}
		time.Sleep(backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// sendCommand publishes one command and waits for its result.
func (d *DeviceClient) sendCommand(ctx context.Context, msg commandMessage) model.Outcome {
	msg.CommandID = uuid.NewString()
	msg.Timestamp = time.Now().UnixMilli()
	payload, err := json.Marshal(msg)
	if err != nil {
		return model.Failed(err.Error())
	}

	ch := make(chan resultMessage, 1)
	d.mu.Lock()
	d.resultChans[msg.CommandID] = ch
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.resultChans, msg.CommandID)
		d.mu.Unlock()
	}()

	if err := d.publish(d.commandTopic(), d.qosFor("command"), payload); err != nil {
		return model.Failed(fmt.Sprintf("publish failed: %v", err))
	}
	d.logger.Debugf("sent command %s (%s)", msg.CommandID, msg.Action)

	timer := time.NewTimer(d.cmdTimeout)
	defer timer.Stop()
	select {
	case res := <-ch:
		return model.Outcome{Success: res.Success, Explanation: res.Explanation}
	case <-timer.C:
		return model.Failed(ErrResultTimeout.Error())
	case <-ctx.Done():
		return model.Failed(ctx.Err().Error())
	}
}

// QueryState requests a state snapshot. An unanswered request returns an
// invalid snapshot; it never blocks past the configured timeout.
func (d *DeviceClient) QueryState(ctx context.Context) model.StateSnapshot {
	id := uuid.NewString()
	payload, err := json.Marshal(struct {
		CommandID string `json:"command_id"`
	}{id})
	if err != nil {
		return model.StateSnapshot{}
	}

	ch := make(chan stateMessage, 1)
	d.mu.Lock()
	d.stateChans[id] = ch
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.stateChans, id)
		d.mu.Unlock()
	}()

	if err := d.publish(d.stateReqTopic(), d.qosFor("state"), payload); err != nil {
		d.logger.Errorf("state request failed: %v", err)
		return model.StateSnapshot{}
	}

	timer := time.NewTimer(d.stateTimeout)
	defer timer.Stop()
	select {
	case m := <-ch:
		return model.StateSnapshot{
			Valid:          m.Valid,
			BatteryPercent: m.BatteryPercent,
			Range:          m.Range,
			PilotCurrent:   m.PilotCurrent,
		}
	case <-timer.C:
		return model.StateSnapshot{}
	case <-ctx.Done():
		return model.StateSnapshot{}
	}
}

// Wake publishes a fire-and-forget wake signal.
func (d *DeviceClient) Wake(ctx context.Context) {
	if err := d.publish(d.wakeTopic(), d.qosFor("command"), []byte(`{}`)); err != nil {
		d.logger.Errorf("wake publish failed: %v", err)
	}
}

func (d *DeviceClient) SetChargeTarget(ctx context.Context, percent int) model.Outcome {
	return d.sendCommand(ctx, commandMessage{Action: "set_charge_target", Percent: percent})
}

func (d *DeviceClient) StartCharging(ctx context.Context) model.Outcome {
	return d.sendCommand(ctx, commandMessage{Action: "start_charging"})
}

func (d *DeviceClient) StopCharging(ctx context.Context) model.Outcome {
	return d.sendCommand(ctx, commandMessage{Action: "stop_charging"})
}

func (d *DeviceClient) SetTempC(ctx context.Context, low, high float64) model.Outcome {
	return d.sendCommand(ctx, commandMessage{Action: "set_temp", LowTemp: low, HighTemp: high, Unit: string(device.UnitCelsius)})
}

func (d *DeviceClient) SetTempF(ctx context.Context, low, high float64) model.Outcome {
	return d.sendCommand(ctx, commandMessage{Action: "set_temp", LowTemp: low, HighTemp: high, Unit: string(device.UnitFahrenheit)})
}

func (d *DeviceClient) StartClimate(ctx context.Context) model.Outcome {
	return d.sendCommand(ctx, commandMessage{Action: "start_climate"})
}

func (d *DeviceClient) StopClimate(ctx context.Context) model.Outcome {
	return d.sendCommand(ctx, commandMessage{Action: "stop_climate"})
}

// Disconnect gracefully closes the MQTT connection.
func (d *DeviceClient) Disconnect() {
	if d.cli != nil && d.cli.IsConnected() {
		d.cli.Disconnect(250)
	}
}

var _ device.Client = (*DeviceClient)(nil)
