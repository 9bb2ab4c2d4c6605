package models

import (
	"time"
)

const (
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04:05"
	TimestampLayout = DateLayout + " " + ClockLayout
)

type Device struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Owner string `json:"owner"`
}

// RawSensorRecord is a reading before its date and time strings are merged.
type RawSensorRecord struct {
	DeviceID           string `json:"device_id,omitempty"`
	Date               string `json:"date"`
	Time               string `json:"time"`
	OutsideTemperature int    `json:"outside_temperature"`
	OutsideHumidity    int    `json:"outside_humidity"`
	RoomTemperature    int    `json:"room_temperature"`
	RoomHumidity       int    `json:"room_humidity"`
}

type SensorRecord struct {
	DeviceID           string    `json:"device_id,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
	OutsideTemperature int       `json:"outside_temperature"`
	OutsideHumidity    int       `json:"outside_humidity"`
	RoomTemperature    int       `json:"room_temperature"`
	RoomHumidity       int       `json:"room_humidity"`
}

type UserRecord struct {
	ID         string         `json:"id"`
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	Age        int            `json:"age"`
	Gender     string         `json:"gender"`
	Username   string         `json:"username"`
	Address    string         `json:"address"`
	Email      string         `json:"email"`
	DeviceID   string         `json:"device_id"`
	SensorData []SensorRecord `json:"sensor_data"`
}

// Dataset is everything one run produces.
type Dataset struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Seed        uint64         `json:"seed"`
	Sensors     []SensorRecord `json:"sensors"`
	Users       []UserRecord   `json:"users"`
}

// Reading is the wire shape published to MQTT and Kafka.
type Reading struct {
	DeviceID           string    `json:"device_id"`
	Username           string    `json:"username,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
	OutsideTemperature int       `json:"outside_temperature"`
	OutsideHumidity    int       `json:"outside_humidity"`
	RoomTemperature    int       `json:"room_temperature"`
	RoomHumidity       int       `json:"room_humidity"`
}

func NewReading(rec SensorRecord, username string) Reading {
	return Reading{
		DeviceID:           rec.DeviceID,
		Username:           username,
		Timestamp:          rec.Timestamp,
		OutsideTemperature: rec.OutsideTemperature,
		OutsideHumidity:    rec.OutsideHumidity,
		RoomTemperature:    rec.RoomTemperature,
		RoomHumidity:       rec.RoomHumidity,
	}
}
