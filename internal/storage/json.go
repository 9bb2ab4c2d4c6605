package storage

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"sensor-analytics/internal/data"
	"sensor-analytics/pkg/models"
)

// JSONStore writes sensors.json, users.json and summary.json under dir.
type JSONStore struct {
	dir string
}

func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{dir: dir}
}

func (s *JSONStore) Name() string { return "json" }

type summaryFile struct {
	Sensor       []columnFile `json:"sensor"`
	User         []columnFile `json:"user"`
	Correlation  corrFile     `json:"correlation"`
	GenderCounts []data.Count `json:"gender_counts"`
}

// NaN has no JSON form; it is written as null.
type columnFile struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Mean  *float64 `json:"mean"`
	Std   *float64 `json:"std"`
	Min   *float64 `json:"min"`
	Q25   *float64 `json:"q25"`
	Q50   *float64 `json:"q50"`
	Q75   *float64 `json:"q75"`
	Max   *float64 `json:"max"`
}

type corrFile struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func columnFiles(s data.Summary) []columnFile {
	out := make([]columnFile, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = columnFile{
			Name: c.Name, Count: c.Count,
			Mean: num(c.Mean), Std: num(c.Std), Min: num(c.Min),
			Q25: num(c.Q25), Q50: num(c.Q50), Q75: num(c.Q75), Max: num(c.Max),
		}
	}
	return out
}

func (s *JSONStore) Save(_ context.Context, snap *Snapshot) ([]string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}
	files := []string{
		filepath.Join(s.dir, "sensors.json"),
		filepath.Join(s.dir, "users.json"),
	}
	if err := saveJSON(files[0], snap.Dataset.Sensors); err != nil {
		return nil, fmt.Errorf("save sensors: %w", err)
	}
	if err := saveJSON(files[1], snap.Dataset.Users); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}
	if snap.Analysis != nil {
		a := snap.Analysis
		sf := summaryFile{
			Sensor:       columnFiles(a.SensorSummary),
			User:         columnFiles(a.UserSummary),
			GenderCounts: a.GenderCounts,
			Correlation:  corrFile{Columns: a.Correlation.Names},
		}
		for i := range a.Correlation.Names {
			row := make([]*float64, len(a.Correlation.Names))
			for j := range row {
				row[j] = num(a.Correlation.Matrix.At(i, j))
			}
			sf.Correlation.Values = append(sf.Correlation.Values, row)
		}
		name := filepath.Join(s.dir, "summary.json")
		if err := saveJSON(name, sf); err != nil {
			return nil, fmt.Errorf("save summary: %w", err)
		}
		files = append(files, name)
	}
	return files, nil
}

func (s *JSONStore) LoadSensors() ([]models.SensorRecord, error) {
	var out []models.SensorRecord
	err := loadJSON(filepath.Join(s.dir, "sensors.json"), &out)
	return out, err
}

func (s *JSONStore) LoadUsers() ([]models.UserRecord, error) {
	var out []models.UserRecord
	err := loadJSON(filepath.Join(s.dir, "users.json"), &out)
	return out, err
}
