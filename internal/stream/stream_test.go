package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor-analytics/internal/config"
	"sensor-analytics/internal/device"
	"sensor-analytics/internal/logging"
	"sensor-analytics/pkg/models"
)

func testUsers() []models.UserRecord {
	base := time.Date(2023, 5, 1, 6, 0, 0, 0, time.UTC)
	var users []models.UserRecord
	for i, name := range []string{"alice", "bob"} {
		u := models.UserRecord{Username: name, DeviceID: name + "-dev"}
		for j := 0; j < 3; j++ {
			u.SensorData = append(u.SensorData, models.SensorRecord{
				DeviceID:           u.DeviceID,
				Timestamp:          base.Add(time.Duration(j) * 6 * time.Hour),
				OutsideTemperature: 70 + i + j,
				OutsideHumidity:    60,
				RoomTemperature:    65,
				RoomHumidity:       50,
			})
		}
		users = append(users, u)
	}
	return users
}

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	b, err := NewBroker(config.MQTTConfig{}, device.NewManager(logging.Discard()), logging.Discard())
	require.NoError(t, err)
	require.NoError(t, b.Serve())
	t.Cleanup(func() { b.Close() })
	return b
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "sensors/abc/readings", Topic("sensors", "abc"))
}

func TestConnectionHookTracksClients(t *testing.T) {
	devices := device.NewManager(logging.Discard())
	devices.AddDevice("alice-dev", device.TypeEnvSensor, "alice")
	h := &ConnectionHook{devices: devices, log: logging.Discard()}

	ext := &mqtt.Client{ID: "dashboard-1"}
	ext.Properties.Username = []byte("ops")
	require.NoError(t, h.OnConnect(ext, packets.Packet{}))
	d, ok := devices.Get("dashboard-1")
	require.True(t, ok)
	assert.Equal(t, device.TypeMQTTClient, d.Type)
	assert.Equal(t, "ops", d.Owner)

	known := &mqtt.Client{ID: "alice-dev"}
	require.NoError(t, h.OnConnect(known, packets.Packet{}))
	d, _ = devices.Get("alice-dev")
	assert.Equal(t, device.TypeEnvSensor, d.Type)
	assert.Equal(t, 2, devices.Len())

	h.OnDisconnect(ext, nil, false)
	h.OnDisconnect(known, errors.New("eof"), false)
	_, ok = devices.Get("dashboard-1")
	assert.False(t, ok)
	_, ok = devices.Get("alice-dev")
	assert.True(t, ok)
}

func TestReplayDeliversEveryReading(t *testing.T) {
	b := newTestBroker(t)

	var mu sync.Mutex
	got := map[string][]models.Reading{}
	require.NoError(t, b.Subscribe("sensors/+/readings", 1, func(topic string, payload []byte) {
		var r models.Reading
		if err := json.Unmarshal(payload, &r); err != nil {
			return
		}
		mu.Lock()
		got[topic] = append(got[topic], r)
		mu.Unlock()
	}))

	published := 0
	r := NewReplayer(b, config.MQTTConfig{TopicPrefix: "sensors", PublishInterval: time.Millisecond}, logging.Discard())
	r.OnPublish(func() { published++ })

	users := testUsers()
	n, err := r.Replay(context.Background(), users)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, 6, published)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got["sensors/alice-dev/readings"]) == 3 && len(got["sensors/bob-dev/readings"]) == 3
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	first := got["sensors/bob-dev/readings"][0]
	assert.Equal(t, "bob", first.Username)
	assert.Equal(t, 71, first.OutsideTemperature)
	assert.True(t, users[1].SensorData[0].Timestamp.Equal(first.Timestamp))
}

func TestReplayStopsOnCancel(t *testing.T) {
	b := newTestBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewReplayer(b, config.MQTTConfig{TopicPrefix: "sensors"}, logging.Discard())
	n, err := r.Replay(ctx, testUsers())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

type fakeWriter struct {
	msgs   []kafka.Message
	calls  int
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.calls++
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSinkWritesOneMessagePerRecord(t *testing.T) {
	ds := &models.Dataset{Users: testUsers()}
	for i := 0; i < 150; i++ {
		ds.Sensors = append(ds.Sensors, models.SensorRecord{OutsideTemperature: 70 + i%25})
	}

	w := &fakeWriter{}
	s := newKafkaSink(w, logging.Discard())
	var batches []int
	s.OnPublish(func(n int) { batches = append(batches, n) })

	n, err := s.Send(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 156, n)
	assert.Len(t, w.msgs, 156)
	assert.Equal(t, []int{100, 56}, batches)

	last := w.msgs[len(w.msgs)-1]
	assert.Equal(t, "bob-dev", string(last.Key))
	var r models.Reading
	require.NoError(t, json.Unmarshal(last.Value, &r))
	assert.Equal(t, "bob", r.Username)

	require.NoError(t, s.Close())
	assert.True(t, w.closed)
}

func TestKafkaSinkPropagatesWriteErrors(t *testing.T) {
	boom := errors.New("broker down")
	s := newKafkaSink(&fakeWriter{err: boom}, logging.Discard())
	n, err := s.Send(context.Background(), &models.Dataset{Users: testUsers()})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, n)
}
