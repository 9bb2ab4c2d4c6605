package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"sensor-analytics/pkg/models"
)

var sensorHeader = []string{"device_id", "timestamp", "outside_temperature", "outside_humidity", "room_temperature", "room_humidity"}

var userHeader = []string{"id", "first_name", "last_name", "age", "gender", "username", "address", "email", "device_id"}

// CSVStore writes flat tables: sensors.csv, users.csv and user_sensors.csv
// (every embedded batch, keyed by username).
type CSVStore struct {
	dir string
}

func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{dir: dir}
}

func (s *CSVStore) Name() string { return "csv" }

func sensorRow(r models.SensorRecord) []string {
	return []string{
		r.DeviceID,
		r.Timestamp.Format(models.TimestampLayout),
		strconv.Itoa(r.OutsideTemperature),
		strconv.Itoa(r.OutsideHumidity),
		strconv.Itoa(r.RoomTemperature),
		strconv.Itoa(r.RoomHumidity),
	}
}

func (s *CSVStore) Save(ctx context.Context, snap *Snapshot) ([]string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}
	ds := snap.Dataset
	sensors := filepath.Join(s.dir, "sensors.csv")
	err := writeCSV(sensors, sensorHeader, func(w *csv.Writer) error {
		for _, r := range ds.Sensors {
			if err := w.Write(sensorRow(r)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("write sensors: %w", err)
	}

	users := filepath.Join(s.dir, "users.csv")
	err = writeCSV(users, userHeader, func(w *csv.Writer) error {
		for _, u := range ds.Users {
			row := []string{u.ID, u.FirstName, u.LastName, strconv.Itoa(u.Age), u.Gender, u.Username, u.Address, u.Email, u.DeviceID}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("write users: %w", err)
	}

	userSensors := filepath.Join(s.dir, "user_sensors.csv")
	err = writeCSV(userSensors, append([]string{"username"}, sensorHeader...), func(w *csv.Writer) error {
		for _, u := range ds.Users {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, r := range u.SensorData {
				if err := w.Write(append([]string{u.Username}, sensorRow(r)...)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("write user sensors: %w", err)
	}
	return []string{sensors, users, userSensors}, nil
}

func writeCSV(name string, header []string, rows func(*csv.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := rows(w); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// ReadSensorsCSV parses a sensors.csv written by Save.
func ReadSensorsCSV(name string) ([]models.SensorRecord, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: missing header", name)
	}
	out := make([]models.SensorRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(sensorHeader) {
			return nil, fmt.Errorf("%s line %d: want %d fields, got %d", name, i+2, len(sensorHeader), len(row))
		}
		ts, err := time.Parse(models.TimestampLayout, row[1])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, i+2, err)
		}
		var vals [4]int
		for k := range vals {
			if vals[k], err = strconv.Atoi(row[2+k]); err != nil {
				return nil, fmt.Errorf("%s line %d: %w", name, i+2, err)
			}
		}
		out = append(out, models.SensorRecord{
			DeviceID:           row[0],
			Timestamp:          ts,
			OutsideTemperature: vals[0],
			OutsideHumidity:    vals[1],
			RoomTemperature:    vals[2],
			RoomHumidity:       vals[3],
		})
	}
	return out, nil
}
