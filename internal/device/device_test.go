package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor-analytics/internal/logging"
	"sensor-analytics/pkg/models"
)

func TestIDForIsStable(t *testing.T) {
	assert.Equal(t, IDFor("user-1"), IDFor("user-1"))
	assert.NotEqual(t, IDFor("user-1"), IDFor("user-2"))
	assert.Len(t, IDFor("user-1"), 36)
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(logging.Discard())
	m.AddDevice("b", TypeEnvSensor, "bob")
	m.AddDevice("a", TypeEnvSensor, "alice")
	require.Equal(t, 2, m.Len())

	devices := m.GetDevices()
	assert.Equal(t, "a", devices[0].ID)
	assert.Equal(t, "b", devices[1].ID)

	d, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, TypeEnvSensor, d.Type)
	assert.Equal(t, "alice", d.Owner)

	m.RemoveDevice("a")
	_, ok = m.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestAssign(t *testing.T) {
	users := []models.UserRecord{
		{ID: "u1", Username: "alice", SensorData: make([]models.SensorRecord, 3)},
		{ID: "u2", Username: "bob", SensorData: make([]models.SensorRecord, 2)},
	}
	m := NewManager(logging.Discard())
	m.Assign(users)

	assert.Equal(t, 2, m.Len())
	for _, u := range users {
		assert.Equal(t, IDFor(u.ID), u.DeviceID)
		for _, r := range u.SensorData {
			assert.Equal(t, u.DeviceID, r.DeviceID)
		}
		d, ok := m.Get(u.DeviceID)
		require.True(t, ok)
		assert.Equal(t, u.Username, d.Owner)
	}
}
