package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"sensor-analytics/pkg/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sensors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id TEXT,
	timestamp TIMESTAMP NOT NULL,
	outside_temperature INTEGER NOT NULL,
	outside_humidity INTEGER NOT NULL,
	room_temperature INTEGER NOT NULL,
	room_humidity INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	age INTEGER NOT NULL,
	gender TEXT NOT NULL,
	username TEXT NOT NULL,
	address TEXT NOT NULL,
	email TEXT NOT NULL,
	device_id TEXT
);
CREATE TABLE IF NOT EXISTS user_sensors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL REFERENCES users(id),
	device_id TEXT,
	timestamp TIMESTAMP NOT NULL,
	outside_temperature INTEGER NOT NULL,
	outside_humidity INTEGER NOT NULL,
	room_temperature INTEGER NOT NULL,
	room_humidity INTEGER NOT NULL
);`

// SQLiteStore writes the dataset into a SQLite file, replacing earlier rows.
type SQLiteStore struct {
	path string
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) open() (*sql.DB, error) {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return db, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap *Snapshot) ([]string, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for _, table := range []string{"user_sensors", "users", "sensors"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return nil, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	sensorStmt, err := tx.PrepareContext(ctx, `INSERT INTO sensors
		(device_id, timestamp, outside_temperature, outside_humidity, room_temperature, room_humidity)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer sensorStmt.Close()
	for _, r := range snap.Dataset.Sensors {
		if _, err := sensorStmt.ExecContext(ctx, r.DeviceID, r.Timestamp, r.OutsideTemperature, r.OutsideHumidity, r.RoomTemperature, r.RoomHumidity); err != nil {
			return nil, fmt.Errorf("insert sensor: %w", err)
		}
	}

	userStmt, err := tx.PrepareContext(ctx, `INSERT INTO users
		(id, first_name, last_name, age, gender, username, address, email, device_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer userStmt.Close()
	batchStmt, err := tx.PrepareContext(ctx, `INSERT INTO user_sensors
		(user_id, device_id, timestamp, outside_temperature, outside_humidity, room_temperature, room_humidity)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer batchStmt.Close()
	for _, u := range snap.Dataset.Users {
		if _, err := userStmt.ExecContext(ctx, u.ID, u.FirstName, u.LastName, u.Age, u.Gender, u.Username, u.Address, u.Email, u.DeviceID); err != nil {
			return nil, fmt.Errorf("insert user %s: %w", u.Username, err)
		}
		for _, r := range u.SensorData {
			if _, err := batchStmt.ExecContext(ctx, u.ID, r.DeviceID, r.Timestamp, r.OutsideTemperature, r.OutsideHumidity, r.RoomTemperature, r.RoomHumidity); err != nil {
				return nil, fmt.Errorf("insert user sensor: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return []string{s.path}, nil
}

// LoadSensors reads the main sensor table back in insertion order.
func (s *SQLiteStore) LoadSensors(ctx context.Context) ([]models.SensorRecord, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT device_id, timestamp, outside_temperature, outside_humidity, room_temperature, room_humidity
		FROM sensors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SensorRecord
	for rows.Next() {
		var r models.SensorRecord
		var deviceID sql.NullString
		if err := rows.Scan(&deviceID, &r.Timestamp, &r.OutsideTemperature, &r.OutsideHumidity, &r.RoomTemperature, &r.RoomHumidity); err != nil {
			return nil, err
		}
		r.DeviceID = deviceID.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountUserSensors returns the number of embedded readings stored per user id.
func (s *SQLiteStore) CountUserSensors(ctx context.Context) (map[string]int, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT user_id, COUNT(*) FROM user_sensors GROUP BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}
