// Package notify publishes user notifications over MQTT. Each notification is
// sent to notify/<address>; a bridge outside this process delivers it to the
// user's mail or messaging endpoint.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	corenotify "github.com/evsched/evsched/core/notify"
	"github.com/evsched/evsched/infra/logger"
	"github.com/evsched/evsched/infra/mqtt"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

type message struct {
	Address   string `json:"address"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
}

// MQTTSender implements core/notify.Sender over an MQTT topic per address.
type MQTTSender struct {
	cli    pahoClient
	qos    byte
	logger logger.Logger
}

// NewMQTTSender opens a dedicated broker connection for notifications. The
// client id is suffixed so it does not collide with the device client.
func NewMQTTSender(cfg mqtt.Config) (*MQTTSender, error) {
	cfg.ClientID = cfg.ClientID + "-notify"
	opts, err := mqtt.NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &MQTTSender{
		cli:    c,
		qos:    cfg.QoS["notify"],
		logger: logger.New("notify"),
	}, nil
}

// Send publishes one notification and reports whether the broker accepted it.
func (s *MQTTSender) Send(address, subject, body string) bool {
	payload, err := json.Marshal(message{
		Address:   address,
		Subject:   subject,
		Body:      body,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		s.logger.Errorf("failed to encode notification: %v", err)
		return false
	}
	topic := fmt.Sprintf("notify/%s", address)
	token := s.cli.Publish(topic, s.qos, false, payload)
	if token.Wait() && token.Error() != nil {
		s.logger.Errorf("notification publish failed: %v", token.Error())
		return false
	}
	s.logger.Debugf("notification sent to %s", address)
	return true
}

// Disconnect closes the broker connection.
func (s *MQTTSender) Disconnect() {
	if s.cli != nil && s.cli.IsConnected() {
		s.cli.Disconnect(250)
	}
}

var _ corenotify.Sender = (*MQTTSender)(nil)
