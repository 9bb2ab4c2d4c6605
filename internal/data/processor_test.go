package data

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor-analytics/internal/generator"
	"sensor-analytics/internal/logging"
	"sensor-analytics/pkg/models"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.Add(models.RawSensorRecord{Date: "2024-01-01", Time: "00:00:00"})
	c.AddBatch([]models.RawSensorRecord{{Date: "2024-01-01", Time: "06:00:00"}, {Date: "2024-01-01", Time: "12:00:00"}})
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, "12:00:00", c.Records()[2].Time)
	c.Reset()
	assert.Equal(t, 0, c.Len())
}

func TestMergeTimestamp(t *testing.T) {
	ts, err := MergeTimestamp("2021-07-04", "18:30:05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 7, 4, 18, 30, 5, 0, time.UTC), ts)

	_, err = MergeTimestamp("2021-13-04", "18:30:05")
	assert.True(t, errors.Is(err, ErrInvalidTimestamp))
	_, err = MergeTimestamp("2021-07-04", "25:00")
	assert.True(t, errors.Is(err, ErrInvalidTimestamp))
}

func TestMergeRoundTripsGeneratedSeries(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 34, 56, 0, time.UTC)
	series := generator.NewSeries(now, 5, 23*24*time.Hour, 6*time.Hour)
	g := generator.New(3, generator.WithLogger(logging.Discard()), generator.WithSeries(series))

	c := NewCollector()
	raw, err := g.SensorBatch(g.SensorPool(100))
	require.NoError(t, err)
	c.AddBatch(raw)

	merged, err := NewProcessor(logging.Discard()).Merge(c.Records())
	require.NoError(t, err)
	require.Len(t, merged, c.Len())

	next := series.Timestamps()
	for i, rec := range merged {
		want, ok := next()
		require.True(t, ok)
		assert.Equal(t, want, rec.Timestamp, "record %d", i)
		assert.Equal(t, raw[i].OutsideTemperature, rec.OutsideTemperature)
		assert.Equal(t, raw[i].RoomHumidity, rec.RoomHumidity)
	}
}

func TestMergeRejectsBadRecord(t *testing.T) {
	raw := []models.RawSensorRecord{
		{Date: "2024-01-01", Time: "00:00:00"},
		{Date: "not-a-date", Time: "00:00:00"},
	}
	_, err := NewProcessor(logging.Discard()).Merge(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1")
}

func TestFrame(t *testing.T) {
	f := SensorFrame([]models.SensorRecord{
		{OutsideTemperature: 70, OutsideHumidity: 50, RoomTemperature: 65, RoomHumidity: 45},
		{OutsideTemperature: 80, OutsideHumidity: 60, RoomTemperature: 75, RoomHumidity: 55},
	})
	assert.Equal(t, 2, f.Rows())
	assert.Equal(t, []string{ColOutsideTemperature, ColOutsideHumidity, ColRoomTemperature, ColRoomHumidity}, f.Columns())

	col, err := f.Col(ColRoomTemperature)
	require.NoError(t, err)
	assert.Equal(t, []float64{65, 75}, col)

	_, err = f.Col("pressure")
	assert.Error(t, err)

	assert.Equal(t, [][]float64{{70, 50, 65, 45}}, f.Head(1))
	assert.Len(t, f.Head(10), 2)

	empty := SensorFrame(nil)
	assert.Equal(t, 0, empty.Rows())
	assert.Nil(t, empty.Matrix())
	assert.Empty(t, empty.Head(5))
}

func TestDescribe(t *testing.T) {
	users := []models.UserRecord{{Age: 20}, {Age: 30}, {Age: 40}, {Age: 50}}
	s, err := Describe(UserFrame(users))
	require.NoError(t, err)

	age, ok := s.Get(ColAge)
	require.True(t, ok)
	assert.Equal(t, 4, age.Count)
	assert.InDelta(t, 35, age.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(500.0/3.0), age.Std, 1e-9) // sample std
	assert.Equal(t, 20.0, age.Min)
	assert.Equal(t, 50.0, age.Max)
	// quartiles interpolate at (n-1)p, so the 50% row is the median
	assert.InDelta(t, 27.5, age.Q25, 1e-9)
	assert.InDelta(t, 35.0, age.Q50, 1e-9)
	assert.InDelta(t, 42.5, age.Q75, 1e-9)

	_, ok = s.Get("height")
	assert.False(t, ok)

	_, err = Describe(UserFrame(nil))
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestDescribeQuartilesOddAndSingle(t *testing.T) {
	s, err := Describe(UserFrame([]models.UserRecord{{Age: 18}, {Age: 25}, {Age: 40}, {Age: 41}, {Age: 100}}))
	require.NoError(t, err)
	age, _ := s.Get(ColAge)
	assert.InDelta(t, 25.0, age.Q25, 1e-9)
	assert.InDelta(t, 40.0, age.Q50, 1e-9)
	assert.InDelta(t, 41.0, age.Q75, 1e-9)

	s, err = Describe(UserFrame([]models.UserRecord{{Age: 33}}))
	require.NoError(t, err)
	age, _ = s.Get(ColAge)
	assert.Equal(t, 33.0, age.Q25)
	assert.Equal(t, 33.0, age.Q75)
}

func TestCorr(t *testing.T) {
	recs := []models.SensorRecord{
		{OutsideTemperature: 70, OutsideHumidity: 90, RoomTemperature: 60, RoomHumidity: 50},
		{OutsideTemperature: 80, OutsideHumidity: 80, RoomTemperature: 70, RoomHumidity: 60},
		{OutsideTemperature: 90, OutsideHumidity: 70, RoomTemperature: 80, RoomHumidity: 50},
	}
	c, err := Corr(SensorFrame(recs))
	require.NoError(t, err)
	require.NotNil(t, c.Matrix)
	assert.Equal(t, 4, c.Matrix.SymmetricDim())

	v, err := c.At(ColOutsideTemperature, ColRoomTemperature)
	require.NoError(t, err)
	assert.InDelta(t, 1, v, 1e-9)

	v, err = c.At(ColOutsideTemperature, ColOutsideHumidity)
	require.NoError(t, err)
	assert.InDelta(t, -1, v, 1e-9)

	v, err = c.At(ColOutsideTemperature, ColRoomHumidity)
	require.NoError(t, err)
	assert.InDelta(t, 0, v, 1e-9)

	v, err = c.At(ColRoomHumidity, ColRoomHumidity)
	require.NoError(t, err)
	assert.InDelta(t, 1, v, 1e-9)

	_, err = c.At(ColAge, ColRoomHumidity)
	assert.Error(t, err)

	_, err = Corr(SensorFrame(recs[:1]))
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestValueCounts(t *testing.T) {
	got := ValueCounts([]string{"M", "F", "F", "M", "F", "X", "Y"})
	assert.Equal(t, []Count{{"F", 3}, {"M", 2}, {"X", 1}, {"Y", 1}}, got)
	assert.Empty(t, ValueCounts(nil))
}

func TestAnalyze(t *testing.T) {
	ds := &models.Dataset{
		Sensors: []models.SensorRecord{
			{OutsideTemperature: 70, OutsideHumidity: 50, RoomTemperature: 65, RoomHumidity: 45},
			{OutsideTemperature: 95, OutsideHumidity: 95, RoomTemperature: 90, RoomHumidity: 88},
			{OutsideTemperature: 82, OutsideHumidity: 61, RoomTemperature: 79, RoomHumidity: 60},
		},
		Users: []models.UserRecord{
			{Age: 18, Gender: "M"}, {Age: 100, Gender: "F"}, {Age: 40, Gender: "F"},
		},
	}
	a, err := NewProcessor(logging.Discard()).Analyze(ds)
	require.NoError(t, err)

	temp, ok := a.SensorSummary.Get(ColOutsideTemperature)
	require.True(t, ok)
	assert.Equal(t, 70.0, temp.Min)
	assert.Equal(t, 95.0, temp.Max)

	age, ok := a.UserSummary.Get(ColAge)
	require.True(t, ok)
	assert.Equal(t, 3, age.Count)

	assert.Equal(t, []Count{{"F", 2}, {"M", 1}}, a.GenderCounts)
	r, c := a.Correlation.Matrix.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 4, c)
}

func TestAnalyzeEmpty(t *testing.T) {
	_, err := NewProcessor(logging.Discard()).Analyze(&models.Dataset{})
	assert.ErrorIs(t, err, ErrEmptyFrame)
}
