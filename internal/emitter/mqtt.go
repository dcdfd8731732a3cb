// Package emitter publishes live snapshots and session summaries to MQTT.
package emitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ayusman/courtside/internal/app"
	"github.com/ayusman/courtside/internal/config"
)

// Topic suffixes under the configured prefix.
const (
	TopicSnapshot = "snapshot"
	TopicSummary  = "summary"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// ErrNotConnected is returned when publishing before Connect succeeded.
var ErrNotConnected = errors.New("mqtt not connected")

// publisher is the part of mqtt.Client the emitter publishes through.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTEmitter is an app.Listener that forwards every N-th snapshot (QoS 0)
// and every session summary (QoS 1) to an MQTT broker.
type MQTTEmitter struct {
	cfg    config.MQTTConfig
	client mqtt.Client
	pub    publisher

	mu        sync.RWMutex
	connected bool
	seen      uint64
	published map[string]uint64
	errors    uint64
}

// NewMQTTEmitter creates an emitter for cfg. Call Connect before use.
func NewMQTTEmitter(cfg config.MQTTConfig) *MQTTEmitter {
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = 1
	}
	return &MQTTEmitter{
		cfg:       cfg,
		published: make(map[string]uint64),
	}
}

// Connect establishes the broker connection. Later losses reconnect
// automatically.
func (e *MQTTEmitter) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(e.cfg.Broker))
	opts.SetClientID(e.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(mqtt.Client) {
		e.setConnected(true)
		slog.Info("mqtt connection established", "broker", e.cfg.Broker, "client_id", e.cfg.ClientID)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		e.setConnected(false)
		slog.Warn("mqtt connection lost, will auto-reconnect", "error", err, "broker", e.cfg.Broker)
	}

	e.client = mqtt.NewClient(opts)
	e.pub = e.client

	slog.Info("connecting to mqtt broker", "broker", e.cfg.Broker)

	token := e.client.Connect()
	select {
	case <-token.Done():
	case <-time.After(connectTimeout):
		return errors.New("mqtt connection timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	e.setConnected(true)
	return nil
}

func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// Topic returns the full topic for a suffix.
func (e *MQTTEmitter) Topic(suffix string) string {
	if e.cfg.TopicPrefix == "" {
		return suffix
	}
	return strings.TrimSuffix(e.cfg.TopicPrefix, "/") + "/" + suffix
}

// OnSnapshot publishes every N-th snapshot without waiting for delivery.
func (e *MQTTEmitter) OnSnapshot(s app.Snapshot) {
	e.mu.Lock()
	e.seen++
	due := e.seen%uint64(e.cfg.SnapshotEvery) == 0
	e.mu.Unlock()

	if !due {
		return
	}
	if err := e.publish(TopicSnapshot, 0, s, false); err != nil {
		slog.Debug("snapshot not published", "error", err)
	}
}

// OnSessionEnd publishes the session result and waits for the broker.
func (e *MQTTEmitter) OnSessionEnd(r app.SessionResult) {
	if err := e.publish(TopicSummary, 1, r, true); err != nil {
		slog.Warn("summary not published", "session_id", r.SessionID, "error", err)
	}
}

func (e *MQTTEmitter) publish(suffix string, qos byte, v any, wait bool) error {
	if !e.isConnected() {
		e.countError()
		return ErrNotConnected
	}

	payload, err := json.Marshal(v)
	if err != nil {
		e.countError()
		return fmt.Errorf("marshal %s: %w", suffix, err)
	}

	topic := e.Topic(suffix)
	token := e.pub.Publish(topic, qos, false, payload)
	if wait {
		if !token.WaitTimeout(publishTimeout) {
			e.countError()
			return errors.New("publish timeout")
		}
		if err := token.Error(); err != nil {
			e.countError()
			return fmt.Errorf("publish failed: %w", err)
		}
	}

	e.mu.Lock()
	e.published[topic]++
	e.mu.Unlock()

	slog.Debug("published", "topic", topic, "qos", qos, "size", len(payload))
	return nil
}

// Disconnect closes the broker connection.
func (e *MQTTEmitter) Disconnect() {
	if e.client != nil && e.client.IsConnected() {
		e.client.Disconnect(250)
		slog.Info("mqtt disconnected")
	}
	e.setConnected(false)
}

// Stats contains emitter statistics.
type Stats struct {
	Connected bool
	Published map[string]uint64
	Errors    uint64
}

// Stats returns emitter statistics.
func (e *MQTTEmitter) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	published := make(map[string]uint64, len(e.published))
	for k, v := range e.published {
		published[k] = v
	}
	return Stats{Connected: e.connected, Published: published, Errors: e.errors}
}

func (e *MQTTEmitter) setConnected(v bool) {
	e.mu.Lock()
	e.connected = v
	e.mu.Unlock()
}

func (e *MQTTEmitter) isConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

func (e *MQTTEmitter) countError() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
}
