package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type mockClient struct {
	mu         sync.Mutex
	opts       *paho.ClientOptions
	subscribed []struct {
		topic string
		qos   byte
	}
	published   []published
	publishErrs []error
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) {}
func (m *mockClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, _ := payload.([]byte)
	m.published = append(m.published, published{topic, qos, b})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}
func (m *mockClient) Subscribe(topic string, qos byte, _ paho.MessageHandler) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribed = append(m.subscribed, struct {
		topic string
		qos   byte
	}{topic, qos})
	return &dummyToken{}
}

// publishedMsgs snapshots the publish history for assertions made while the
// client goroutine is still running.
func (m *mockClient) publishedMsgs() []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]published, len(m.published))
	copy(out, m.published)
	return out
}
func (m *mockClient) IsConnectionOpen() bool { return true }
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) Unsubscribe(...string) paho.Token        { return &dummyToken{} }
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type mockMessage struct{ p []byte }

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return "" }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}

func newMockedClient(t *testing.T, cfg Config) (*DeviceClient, *mockClient) {
	t.Helper()
	mc := &mockClient{}
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
	cli, err := NewDeviceClient(cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return cli, mc
}

func TestNewDeviceClientRequiresVehicleID(t *testing.T) {
	mc := &mockClient{}
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	defer func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	}()
	if _, err := NewDeviceClient(Config{Broker: "tcp://localhost:1883", ClientID: "id"}); err == nil {
		t.Fatalf("expected error for missing vehicle_id")
	}
}

func TestSendCommandReceivesResult(t *testing.T) {
	cli, mc := newMockedClient(t, Config{
		Broker: "tcp://localhost:1883", ClientID: "id", VehicleID: "5YJS000",
		CommandTimeoutSec: 1, QoS: map[string]byte{"command": 1},
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		out := cli.StopCharging(context.Background())
		if !out.Success {
			t.Errorf("expected success got %+v", out)
		}
	}()

	// Wait for the command to be published, then answer it.
	var cmd commandMessage
	var first published
	for i := 0; ; i++ {
		if msgs := mc.publishedMsgs(); len(msgs) > 0 {
			first = msgs[0]
			if err := json.Unmarshal(first.payload, &cmd); err != nil {
				t.Fatalf("decode command: %v", err)
			}
			break
		}
		if i > 100 {
			t.Fatalf("command never published")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if cmd.Action != "stop_charging" {
		t.Fatalf("unexpected action %q", cmd.Action)
	}
	if first.topic != "vehicle/5YJS000/command" {
		t.Fatalf("unexpected topic %q", first.topic)
	}
	if first.qos != 1 {
		t.Fatalf("publish qos not applied")
	}

	res, _ := json.Marshal(resultMessage{CommandID: cmd.CommandID, Success: true})
	cli.onResult(nil, mockMessage{res})
	<-done
}

func TestSendCommandTimesOut(t *testing.T) {
	cli, _ := newMockedClient(t, Config{
		Broker: "tcp://localhost:1883", ClientID: "id", VehicleID: "5YJS000",
	})
	cli.cmdTimeout = 10 * time.Millisecond

	out := cli.StartCharging(context.Background())
	if out.Success {
		t.Fatalf("expected timeout failure")
	}
	if out.Explanation != ErrResultTimeout.Error() {
		t.Fatalf("unexpected explanation %q", out.Explanation)
	}
}

func TestSendCommandPublishFailure(t *testing.T) {
	cli, mc := newMockedClient(t, Config{
		Broker: "tcp://localhost:1883", ClientID: "id", VehicleID: "5YJS000",
		MaxRetries: 1, BackoffMS: 1,
	})
	mc.publishErrs = []error{fmt.Errorf("net fail"), fmt.Errorf("net fail")}

	out := cli.StartClimate(context.Background())
	if out.Success {
		t.Fatalf("expected publish failure")
	}
}

func TestPublishSkipsBackoffAfterFinalAttempt(t *testing.T) {
	cli, mc := newMockedClient(t, Config{
		Broker: "tcp://localhost:1883", ClientID: "id", VehicleID: "5YJS000",
		MaxRetries: 1, BackoffMS: 200,
	})
	mc.publishErrs = []error{fmt.Errorf("net fail"), fmt.Errorf("net fail")}

	start := time.Now()
	err := cli.publish(cli.commandTopic(), 0, []byte(`{}`))
	elapsed := time.Since(start)
	if err == nil {
		t.Fatalf("expected publish failure")
	}
	// One backoff between the two attempts, none after the last.
	if elapsed >= 400*time.Millisecond {
		t.Fatalf("final attempt slept before returning: %v", elapsed)
	}
}

func TestQueryStateTimeoutReturnsInvalid(t *testing.T) {
	cli, _ := newMockedClient(t, Config{
		Broker: "tcp://localhost:1883", ClientID: "id", VehicleID: "5YJS000",
	})
	cli.stateTimeout = 10 * time.Millisecond

	snap := cli.QueryState(context.Background())
	if snap.Valid {
		t.Fatalf("expected invalid snapshot on timeout")
	}
}

func TestQueryStateReceivesSnapshot(t *testing.T) {
	cli, mc := newMockedClient(t, Config{
		Broker: "tcp://localhost:1883", ClientID: "id", VehicleID: "5YJS000",
		StateTimeoutSec: 1,
	})

	type result struct{ valid bool }
	done := make(chan result, 1)
	go func() {
		snap := cli.QueryState(context.Background())
		done <- result{snap.Valid}
	}()

	var req struct {
		CommandID string `json:"command_id"`
	}
	var first published
	for i := 0; ; i++ {
		if msgs := mc.publishedMsgs(); len(msgs) > 0 {
			first = msgs[0]
			if err := json.Unmarshal(first.payload, &req); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			break
		}
		if i > 100 {
			t.Fatalf("state request never published")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if first.topic != "vehicle/5YJS000/state/get" {
		t.Fatalf("unexpected topic %q", first.topic)
	}

	msg, _ := json.Marshal(stateMessage{CommandID: req.CommandID, Valid: true, BatteryPercent: 80})
	cli.onState(nil, mockMessage{msg})

	select {
	case r := <-done:
		if !r.valid {
			t.Fatalf("expected valid snapshot")
		}
	case <-time.After(time.Second):
		t.Fatalf("query never returned")
	}
}

func TestWakeIsFireAndForget(t *testing.T) {
	cli, mc := newMockedClient(t, Config{
		Broker: "tcp://localhost:1883", ClientID: "id", VehicleID: "5YJS000",
	})
	cli.Wake(context.Background())
	msgs := mc.publishedMsgs()
	if len(msgs) != 1 || msgs[0].topic != "vehicle/5YJS000/wake" {
		t.Fatalf("unexpected publishes %+v", msgs)
	}
}

func TestOnConnectSubscribesResultAndState(t *testing.T) {
	_, mc := newMockedClient(t, Config{
		Broker: "tcp://localhost:1883", ClientID: "id", VehicleID: "5YJS000",
		QoS: map[string]byte{"result": 1, "state": 1},
	})
	if len(mc.subscribed) != 2 {
		t.Fatalf("expected 2 subscriptions got %d", len(mc.subscribed))
	}
	if mc.subscribed[0].topic != "vehicle/5YJS000/result" || mc.subscribed[0].qos != 1 {
		t.Fatalf("unexpected subscription %+v", mc.subscribed[0])
	}
	if mc.subscribed[1].topic != "vehicle/5YJS000/state" {
		t.Fatalf("unexpected subscription %+v", mc.subscribed[1])
	}
}
