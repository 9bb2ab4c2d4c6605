package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"sensor-analytics/internal/config"
	"sensor-analytics/internal/data"
	"sensor-analytics/internal/digest"
	"sensor-analytics/pkg/models"
	"sensor-analytics/pkg/utils"
)

// Snapshot is what a run persists.
type Snapshot struct {
	Dataset  *models.Dataset
	Analysis *data.Analysis
	Digests  []digest.BatchDigest
}

// Store writes a snapshot in one format and returns the files it wrote.
type Store interface {
	Name() string
	Save(ctx context.Context, snap *Snapshot) ([]string, error)
}

type Manifest struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Seed        uint64               `json:"seed"`
	Sensors     int                  `json:"sensors"`
	Users       int                  `json:"users"`
	Formats     []string             `json:"formats"`
	Files       map[string]string    `json:"files"` // 文件名 -> sha256
	Digests     []digest.BatchDigest `json:"digests"`
}

type Storage struct {
	config *config.Config
	log    *slog.Logger
	stores []Store
	onSave func(format string, files int)
}

// NewStorage opens one store per configured format.
func NewStorage(cfg *config.Config, log *slog.Logger) (*Storage, error) {
	s := &Storage{config: cfg, log: log}
	dir := cfg.Storage.DataDir
	for _, f := range cfg.Storage.Formats {
		switch f {
		case "json":
			s.stores = append(s.stores, NewJSONStore(dir))
		case "csv":
			s.stores = append(s.stores, NewCSVStore(dir))
		case "sqlite":
			s.stores = append(s.stores, NewSQLiteStore(cfg.Storage.SQLitePath))
		default:
			return nil, fmt.Errorf("unknown storage format %q", f)
		}
	}
	return s, nil
}

func (s *Storage) Enabled() bool { return len(s.stores) > 0 }

// OnSave registers a callback run after each store finishes.
func (s *Storage) OnSave(fn func(format string, files int)) {
	s.onSave = fn
}

// Save runs every store, then writes manifest.json describing what was written.
func (s *Storage) Save(ctx context.Context, snap *Snapshot) (*Manifest, error) {
	if !s.Enabled() {
		return nil, nil
	}
	if err := os.MkdirAll(s.config.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	m := &Manifest{
		GeneratedAt: snap.Dataset.GeneratedAt,
		Seed:        snap.Dataset.Seed,
		Sensors:     len(snap.Dataset.Sensors),
		Users:       len(snap.Dataset.Users),
		Files:       make(map[string]string),
		Digests:     snap.Digests,
	}
	for _, st := range s.stores {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		files, err := st.Save(ctx, snap)
		if err != nil {
			return nil, fmt.Errorf("%s store: %w", st.Name(), err)
		}
		for _, f := range files {
			sum, err := utils.HashFile(f)
			if err != nil {
				return nil, fmt.Errorf("hash %s: %w", f, err)
			}
			m.Files[filepath.Base(f)] = sum
		}
		m.Formats = append(m.Formats, st.Name())
		s.log.Info("dataset saved", "format", st.Name(), "files", len(files))
		if s.onSave != nil {
			s.onSave(st.Name(), len(files))
		}
	}
	sort.Strings(m.Formats)
	if err := saveJSON(filepath.Join(s.config.Storage.DataDir, "manifest.json"), m); err != nil {
		return nil, err
	}
	return m, nil
}

func LoadManifest(dir string) (*Manifest, error) {
	var m Manifest
	err := loadJSON(filepath.Join(dir, "manifest.json"), &m)
	return &m, err
}

func saveJSON(filename string, data interface{}) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func loadJSON(filename string, data interface{}) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	return decoder.Decode(data)
}
