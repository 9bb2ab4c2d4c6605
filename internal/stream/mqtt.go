package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"

	"sensor-analytics/internal/config"
	"sensor-analytics/internal/device"
	"sensor-analytics/pkg/models"
)

// Topic is where a device's readings are published.
func Topic(prefix, deviceID string) string {
	return fmt.Sprintf("%s/%s/readings", prefix, deviceID)
}

// Registry is the device registry connected clients are recorded in.
type Registry interface {
	Get(id string) (models.Device, bool)
	AddDevice(id, deviceType, owner string)
	RemoveDevice(id string)
}

// ConnectionHook 记录客户端的连接与断开
type ConnectionHook struct {
	mqtt.HookBase
	devices Registry
	log     *slog.Logger
}

func (h *ConnectionHook) ID() string { return "connection-log" }

func (h *ConnectionHook) Provides(b byte) bool {
	return bytes.Contains([]byte{
		mqtt.OnConnect,
		mqtt.OnDisconnect,
	}, []byte{b})
}

// OnConnect registers an unknown client as a device. A client whose id is
// already a registered device is left as it is.
func (h *ConnectionHook) OnConnect(cl *mqtt.Client, pk packets.Packet) error {
	if d, ok := h.devices.Get(cl.ID); ok {
		h.log.Info("device connected", "client", cl.ID, "owner", d.Owner)
		return nil
	}
	h.devices.AddDevice(cl.ID, device.TypeMQTTClient, string(cl.Properties.Username))
	h.log.Info("client connected", "client", cl.ID)
	return nil
}

// OnDisconnect drops clients the hook registered; generated devices stay.
func (h *ConnectionHook) OnDisconnect(cl *mqtt.Client, err error, expire bool) {
	if d, ok := h.devices.Get(cl.ID); ok && d.Type == device.TypeMQTTClient {
		h.devices.RemoveDevice(cl.ID)
	}
	if err != nil {
		h.log.Info("client disconnected", "client", cl.ID, "error", err)
		return
	}
	h.log.Info("client disconnected", "client", cl.ID)
}

// Broker is an embedded MQTT server with an inline client for publishing.
type Broker struct {
	server *mqtt.Server
	log    *slog.Logger
}

// NewBroker builds the server. An empty address runs inline only, with no
// TCP listener.
func NewBroker(cfg config.MQTTConfig, devices Registry, log *slog.Logger) (*Broker, error) {
	server := mqtt.New(&mqtt.Options{
		InlineClient: true,
		Logger:       log,
	})
	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, fmt.Errorf("add auth hook: %w", err)
	}
	if err := server.AddHook(&ConnectionHook{devices: devices, log: log}, nil); err != nil {
		return nil, fmt.Errorf("add connection hook: %w", err)
	}
	if cfg.Address != "" {
		tcp := listeners.NewTCP(listeners.Config{
			ID:      "t1",
			Address: cfg.Address,
		})
		if err := server.AddListener(tcp); err != nil {
			return nil, fmt.Errorf("add tcp listener: %w", err)
		}
	}
	return &Broker{server: server, log: log}, nil
}

// Serve starts the listeners and returns.
func (b *Broker) Serve() error {
	return b.server.Serve()
}

func (b *Broker) Close() error {
	return b.server.Close()
}

func (b *Broker) Publish(topic string, payload []byte) error {
	return b.server.Publish(topic, payload, false, 0)
}

// Subscribe attaches an inline subscriber to filter.
func (b *Broker) Subscribe(filter string, id int, fn func(topic string, payload []byte)) error {
	return b.server.Subscribe(filter, id, func(cl *mqtt.Client, sub packets.Subscription, pk packets.Packet) {
		fn(pk.TopicName, pk.Payload)
	})
}

// Replayer publishes stored readings through a broker, one message per record.
type Replayer struct {
	broker    *Broker
	prefix    string
	interval  time.Duration
	log       *slog.Logger
	onPublish func()
}

func NewReplayer(b *Broker, cfg config.MQTTConfig, log *slog.Logger) *Replayer {
	return &Replayer{
		broker:   b,
		prefix:   cfg.TopicPrefix,
		interval: cfg.PublishInterval,
		log:      log,
	}
}

// OnPublish registers a callback run after every published message.
func (r *Replayer) OnPublish(fn func()) {
	r.onPublish = fn
}

// Replay walks every user's batch in order and publishes each reading to the
// user's device topic. It stops early when ctx is done.
func (r *Replayer) Replay(ctx context.Context, users []models.UserRecord) (int, error) {
	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	sent := 0
	for _, u := range users {
		topic := Topic(r.prefix, u.DeviceID)
		for _, rec := range u.SensorData {
			if tick != nil {
				select {
				case <-ctx.Done():
					return sent, ctx.Err()
				case <-tick:
				}
			} else if err := ctx.Err(); err != nil {
				return sent, err
			}

			payload, err := json.Marshal(models.NewReading(rec, u.Username))
			if err != nil {
				return sent, err
			}
			if err := r.broker.Publish(topic, payload); err != nil {
				return sent, fmt.Errorf("publish %s: %w", topic, err)
			}
			sent++
			if r.onPublish != nil {
				r.onPublish()
			}
		}
		r.log.Debug("device replayed", "device", u.DeviceID, "records", len(u.SensorData))
	}
	r.log.Info("replay finished", "messages", sent)
	return sent, nil
}
