package data

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sensor-analytics/internal/generator"
	"sensor-analytics/pkg/models"
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

const (
	ColOutsideTemperature = "outside_temperature"
	ColOutsideHumidity    = "outside_humidity"
	ColRoomTemperature    = "room_temperature"
	ColRoomHumidity       = "room_humidity"
	ColAge                = "age"
)

var sensorColumns = []Column[models.SensorRecord]{
	{Name: ColOutsideTemperature, Value: func(r models.SensorRecord) float64 { return float64(r.OutsideTemperature) }},
	{Name: ColOutsideHumidity, Value: func(r models.SensorRecord) float64 { return float64(r.OutsideHumidity) }},
	{Name: ColRoomTemperature, Value: func(r models.SensorRecord) float64 { return float64(r.RoomTemperature) }},
	{Name: ColRoomHumidity, Value: func(r models.SensorRecord) float64 { return float64(r.RoomHumidity) }},
}

var userColumns = []Column[models.UserRecord]{
	{Name: ColAge, Value: func(u models.UserRecord) float64 { return float64(u.Age) }},
}

type Processor struct {
	log *slog.Logger
}

func NewProcessor(log *slog.Logger) *Processor {
	return &Processor{log: log}
}

// MergeTimestamp joins a date and a time-of-day string into one UTC timestamp.
func MergeTimestamp(date, clock string) (time.Time, error) {
	ts, err := time.Parse(models.TimestampLayout, date+" "+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q %q: %v", ErrInvalidTimestamp, date, clock, err)
	}
	return ts, nil
}

// Merge converts raw records to the tabular shape, replacing the separate
// date and time fields with a single timestamp.
func (p *Processor) Merge(raw []models.RawSensorRecord) ([]models.SensorRecord, error) {
	out := make([]models.SensorRecord, len(raw))
	for i, r := range raw {
		ts, err := MergeTimestamp(r.Date, r.Time)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = models.SensorRecord{
			DeviceID:           r.DeviceID,
			Timestamp:          ts,
			OutsideTemperature: r.OutsideTemperature,
			OutsideHumidity:    r.OutsideHumidity,
			RoomTemperature:    r.RoomTemperature,
			RoomHumidity:       r.RoomHumidity,
		}
	}
	return out, nil
}

// MergeUsers merges every embedded sensor batch.
func (p *Processor) MergeUsers(raw []generator.RawUser) ([]models.UserRecord, error) {
	users := make([]models.UserRecord, len(raw))
	for i, u := range raw {
		batch, err := p.Merge(u.RawSensorData)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", u.Username, err)
		}
		users[i] = u.UserRecord
		users[i].SensorData = batch
	}
	return users, nil
}

func SensorFrame(records []models.SensorRecord) *Frame {
	return NewFrame(records, sensorColumns...)
}

func UserFrame(users []models.UserRecord) *Frame {
	return NewFrame(users, userColumns...)
}

// Analysis holds the summaries the report and charts are built from.
type Analysis struct {
	SensorSummary Summary     `json:"sensor_summary"`
	UserSummary   Summary     `json:"user_summary"`
	Correlation   Correlation `json:"-"`
	GenderCounts  []Count     `json:"gender_counts"`
}

func (p *Processor) Analyze(ds *models.Dataset) (*Analysis, error) {
	sf := SensorFrame(ds.Sensors)
	sensorSummary, err := Describe(sf)
	if err != nil {
		return nil, fmt.Errorf("describe sensors: %w", err)
	}
	corr, err := Corr(sf)
	if err != nil {
		return nil, fmt.Errorf("correlate sensors: %w", err)
	}
	userSummary, err := Describe(UserFrame(ds.Users))
	if err != nil {
		return nil, fmt.Errorf("describe users: %w", err)
	}
	genders := make([]string, len(ds.Users))
	for i, u := range ds.Users {
		genders[i] = u.Gender
	}
	a := &Analysis{
		SensorSummary: sensorSummary,
		UserSummary:   userSummary,
		Correlation:   corr,
		GenderCounts:  ValueCounts(genders),
	}
	p.log.Info("analysis complete", "sensor_rows", sf.Rows(), "users", len(ds.Users))
	return a, nil
}
