package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// QoS is the delivery guarantee for all telemetry topics (at least once).
const QoS = 1

// publishWait bounds how long a publish may wait on the client's token before
// the payload is treated as dropped. Kept short: telemetry is best-effort.
const publishWait = 250 * time.Millisecond

// MQTTConfig configures the broker transport.
type MQTTConfig struct {
	// BrokerURL is a paho broker URL, e.g. "tcp://broker.hivemq.com:1883".
	BrokerURL string
	// ClientID identifies the session; a random suffix is appended so two
	// simulators never fight over one session.
	ClientID string
	// StatusTopic carries the broker-side will ({"status":"offline"}).
	StatusTopic string
	// KeepAlive is the MQTT keepalive interval.
	KeepAlive time.Duration
	// ConnectTimeout bounds a single dial attempt.
	ConnectTimeout time.Duration
}

// mqttTransport adapts a paho client to the Transport interface. Automatic
// reconnection is disabled: the Link owns the lifecycle, and each Connect
// builds a fresh session so teardown is always complete.
type mqttTransport struct {
	cfg MQTTConfig

	mu     sync.Mutex
	client mqtt.Client
}

// NewMQTTTransport returns a Transport backed by an MQTT client.
func NewMQTTTransport(cfg MQTTConfig) Transport {
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = 60 * time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "speedguard"
	}
	return &mqttTransport{cfg: cfg}
}

func (t *mqttTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	opts := mqtt.NewClientOptions().
		AddBroker(t.cfg.BrokerURL).
		SetClientID(fmt.Sprintf("%s-%s", t.cfg.ClientID, uuid.NewString()[:8])).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetKeepAlive(t.cfg.KeepAlive).
		SetConnectTimeout(t.cfg.ConnectTimeout)

	if t.cfg.StatusTopic != "" {
		will, err := MarshalStatus("offline", time.Now())
		if err == nil {
			opts.SetWill(t.cfg.StatusTopic, string(will), QoS, false)
		}
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()

	deadline := t.cfg.ConnectTimeout
	if d, ok := ctx.Deadline(); ok {
		if until := time.Until(d); until < deadline {
			deadline = until
		}
	}
	if !token.WaitTimeout(deadline) {
		client.Disconnect(0)
		return fmt.Errorf("connect to %s timed out after %v", t.cfg.BrokerURL, deadline)
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return fmt.Errorf("connect to %s: %w", t.cfg.BrokerURL, err)
	}

	t.client = client
	return nil
}

func (t *mqttTransport) Publish(topic string, retained bool, payload []byte) error {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()

	if client == nil || !client.IsConnected() {
		return ErrNotConnected
	}

	token := client.Publish(topic, QoS, retained, payload)
	if !token.WaitTimeout(publishWait) {
		// The client could not confirm the send in time; treat as a full
		// buffer and let the publisher drop the cycle.
		return ErrBufferFull
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (t *mqttTransport) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		t.client.Disconnect(250)
		t.client = nil
	}
}
