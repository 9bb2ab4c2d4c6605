package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor-analytics/internal/data"
	"sensor-analytics/internal/logging"
	"sensor-analytics/pkg/models"
)

func testDataset() *models.Dataset {
	base := time.Date(2023, 5, 1, 6, 0, 0, 0, time.UTC)
	ds := &models.Dataset{GeneratedAt: base}
	for i := 0; i < 8; i++ {
		ds.Sensors = append(ds.Sensors, models.SensorRecord{
			Timestamp:          base.Add(time.Duration(i) * 6 * time.Hour),
			OutsideTemperature: 70 + i,
			OutsideHumidity:    90 - i,
			RoomTemperature:    65 + i,
			RoomHumidity:       50 + i%3,
		})
	}
	ds.Users = []models.UserRecord{
		{FirstName: "Ada", LastName: "Byron", Age: 36, Gender: "F", Username: "ada", Email: "ada@example.com", SensorData: ds.Sensors[:3]},
		{FirstName: "Alan", LastName: "Turing", Age: 41, Gender: "M", Username: "alan", Email: "alan@example.com", SensorData: ds.Sensors[:3]},
	}
	return ds
}

func TestSensorsPreviewIsCapped(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, 3).Sensors("sensors", testDataset().Sensors))

	out := buf.String()
	assert.Contains(t, out, "== sensors ==")
	assert.Contains(t, out, "2023-05-01 06:00:00")
	assert.Contains(t, out, "2023-05-01 18:00:00")
	assert.NotContains(t, out, "2023-05-02 00:00:00")
	assert.Contains(t, out, "outside_temperature")
	assert.Contains(t, out, "72")
}

func TestDevices(t *testing.T) {
	var buf bytes.Buffer
	devices := []models.Device{
		{ID: "a-dev", Type: "env_sensor", Owner: "ada"},
		{ID: "b-dev", Type: "env_sensor", Owner: "alan"},
	}
	require.NoError(t, NewWriter(&buf, 1).Devices(devices))

	out := buf.String()
	assert.Contains(t, out, "== devices ==")
	assert.Contains(t, out, "a-dev")
	assert.NotContains(t, out, "b-dev")
}

func TestAllPrintsEverySection(t *testing.T) {
	ds := testDataset()
	a, err := data.NewProcessor(logging.Discard()).Analyze(ds)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, 0).All(ds, a))

	out := buf.String()
	for _, section := range []string{"sensors", "users", "sensor summary", "user summary", "correlation", "gender"} {
		assert.Contains(t, out, "== "+section+" ==")
	}
	assert.Contains(t, out, "[3 records]")
	assert.Contains(t, out, "1.00")
	assert.Contains(t, out, "25%")
	// outside temperature falls as outside humidity rises
	assert.Contains(t, out, "-1.00")
}
