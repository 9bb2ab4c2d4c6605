package device

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"sensor-analytics/pkg/models"
)

const (
	TypeEnvSensor  = "env_sensor"
	TypeMQTTClient = "mqtt_client"
)

var deviceNamespace = uuid.MustParse("0b8f5d1c-7e2a-4f63-8c1d-5a9e2b7f4d10")

// Manager tracks the synthetic devices that feed user sensor batches.
type Manager struct {
	devices map[string]models.Device
	mutex   sync.RWMutex
	log     *slog.Logger
}

func NewManager(log *slog.Logger) *Manager {
	return &Manager{
		devices: make(map[string]models.Device),
		log:     log,
	}
}

// IDFor derives a stable device id from an owner id.
func IDFor(owner string) string {
	return uuid.NewSHA1(deviceNamespace, []byte(owner)).String()
}

// GetDevices returns the registered devices ordered by id.
func (m *Manager) GetDevices() []models.Device {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	devices := make([]models.Device, 0, len(m.devices))
	for _, device := range m.devices {
		devices = append(devices, device)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices
}

func (m *Manager) Get(id string) (models.Device, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	d, ok := m.devices[id]
	return d, ok
}

func (m *Manager) AddDevice(id, deviceType, owner string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.devices[id] = models.Device{ID: id, Type: deviceType, Owner: owner}
}

func (m *Manager) RemoveDevice(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.devices, id)
	m.log.Debug("device removed", "device", id)
}

func (m *Manager) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.devices)
}

// Assign gives every user a device and stamps its id on the user's batch.
func (m *Manager) Assign(users []models.UserRecord) {
	for i := range users {
		id := IDFor(users[i].ID)
		m.AddDevice(id, TypeEnvSensor, users[i].Username)
		users[i].DeviceID = id
		for j := range users[i].SensorData {
			users[i].SensorData[j].DeviceID = id
		}
	}
	m.log.Debug("devices assigned", "count", len(users))
}
