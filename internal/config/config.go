package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Generator GeneratorConfig `yaml:"generator"`
	Ranges    RangesConfig    `yaml:"ranges"`
	Charts    ChartsConfig    `yaml:"charts"`
	Storage   StorageConfig   `yaml:"storage"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

type GeneratorConfig struct {
	Seed          uint64        `yaml:"seed" env:"SENSOR_SEED" env-default:"0"`
	SensorRecords int           `yaml:"sensor_records" env:"SENSOR_RECORDS" env-default:"500"`
	UserRecords   int           `yaml:"user_records" env:"USER_RECORDS" env-default:"500"`
	SamplingTime  time.Duration `yaml:"sampling_time" env:"SAMPLING_TIME" env-default:"6h"`
	HistoryYears  int           `yaml:"history_years" env:"HISTORY_YEARS" env-default:"5"`
	HistoryOffset time.Duration `yaml:"history_offset" env:"HISTORY_OFFSET" env-default:"552h"` // +23 天
	FemaleSkew    float64       `yaml:"female_skew" env:"FEMALE_SKEW" env-default:"0.5"`
}

type Range struct {
	Min int `yaml:"min" env:"MIN"`
	Max int `yaml:"max" env:"MAX"`
}

type RangesConfig struct {
	OutsideTemperature Range `yaml:"outside_temperature" env-prefix:"OUTSIDE_TEMP_"`
	OutsideHumidity    Range `yaml:"outside_humidity" env-prefix:"OUTSIDE_HUMIDITY_"`
	RoomOffset         Range `yaml:"room_offset" env-prefix:"ROOM_OFFSET_"`
	Age                Range `yaml:"age" env-prefix:"AGE_"`
}

type ChartsConfig struct {
	Disabled  bool   `yaml:"disabled" env:"CHARTS_DISABLED"`
	OutputDir string `yaml:"output_dir" env:"CHARTS_DIR" env-default:"charts"`
}

type StorageConfig struct {
	DataDir    string   `yaml:"data_dir" env:"DATA_DIR" env-default:"data"` // 本地数据存储目录
	Formats    []string `yaml:"formats" env:"STORAGE_FORMATS" env-separator:","`
	SQLitePath string   `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"data/sensors.db"`
}

type MQTTConfig struct {
	Address         string        `yaml:"address" env:"MQTT_ADDRESS" env-default:":1883"`
	TopicPrefix     string        `yaml:"topic_prefix" env:"MQTT_TOPIC_PREFIX" env-default:"sensors"`
	PublishInterval time.Duration `yaml:"publish_interval" env:"MQTT_PUBLISH_INTERVAL" env-default:"100ms"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"sensor.readings"`
}

type MetricsConfig struct {
	Address string `yaml:"address" env:"METRICS_ADDRESS"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Path  string `yaml:"path" env:"LOG_PATH"`
}

// Load reads the YAML file at path, then applies environment overrides.
// An empty path reads the environment only.
func Load(path string) (*Config, error) {
	var cfg Config
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(path, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg.applyRangeDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration the tool runs with when nothing is set.
func Default() *Config {
	cfg := &Config{
		Generator: GeneratorConfig{
			SensorRecords: 500,
			UserRecords:   500,
			SamplingTime:  6 * time.Hour,
			HistoryYears:  5,
			HistoryOffset: 23 * 24 * time.Hour,
			FemaleSkew:    0.5,
		},
		Charts:  ChartsConfig{OutputDir: "charts"},
		Storage: StorageConfig{DataDir: "data", SQLitePath: "data/sensors.db"},
		MQTT:    MQTTConfig{Address: ":1883", TopicPrefix: "sensors", PublishInterval: 100 * time.Millisecond},
		Kafka:   KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "sensor.readings"},
		Log:     LogConfig{Level: "info"},
	}
	cfg.applyRangeDefaults()
	return cfg
}

// a zero range means "not configured"; ranges can't use env-default because
// Min and Max share one struct type.
func (c *Config) applyRangeDefaults() {
	fill := func(r *Range, min, max int) {
		if r.Min == 0 && r.Max == 0 {
			r.Min, r.Max = min, max
		}
	}
	fill(&c.Ranges.OutsideTemperature, 70, 95)
	fill(&c.Ranges.OutsideHumidity, 50, 95)
	fill(&c.Ranges.RoomOffset, 0, 10)
	fill(&c.Ranges.Age, 18, 100)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Generator.SensorRecords <= 0 {
		errs = append(errs, errors.New("generator.sensor_records must be positive"))
	}
	if c.Generator.UserRecords <= 0 {
		errs = append(errs, errors.New("generator.user_records must be positive"))
	}
	if c.Generator.SamplingTime <= 0 {
		errs = append(errs, errors.New("generator.sampling_time must be positive"))
	}
	if c.Generator.HistoryYears <= 0 {
		errs = append(errs, errors.New("generator.history_years must be positive"))
	}
	if c.Generator.FemaleSkew < 0 || c.Generator.FemaleSkew > 1 {
		errs = append(errs, errors.New("generator.female_skew must be within [0, 1]"))
	}
	for name, r := range map[string]Range{
		"outside_temperature": c.Ranges.OutsideTemperature,
		"outside_humidity":    c.Ranges.OutsideHumidity,
		"room_offset":         c.Ranges.RoomOffset,
		"age":                 c.Ranges.Age,
	} {
		if r.Min > r.Max {
			errs = append(errs, fmt.Errorf("ranges.%s: min %d > max %d", name, r.Min, r.Max))
		}
	}
	for _, f := range c.Storage.Formats {
		switch f {
		case "json", "csv", "sqlite":
		default:
			errs = append(errs, fmt.Errorf("storage.formats: unknown format %q", f))
		}
	}
	if c.MQTT.PublishInterval < 0 {
		errs = append(errs, errors.New("mqtt.publish_interval must not be negative"))
	}
	return errors.Join(errs...)
}
