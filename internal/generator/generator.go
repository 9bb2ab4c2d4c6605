package generator

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"sensor-analytics/internal/config"
	"sensor-analytics/pkg/models"
)

// ErrSeriesExhausted means the time series ran out before the pool did.
var ErrSeriesExhausted = errors.New("time series exhausted")

var userNamespace = uuid.MustParse("6f3c2f4e-1d7a-4c0b-9a51-3f6b1d2e8c90")

type Bounds struct {
	Min int
	Max int
}

type Ranges struct {
	OutsideTemperature Bounds
	OutsideHumidity    Bounds
	RoomOffset         Bounds
	Age                Bounds
}

func DefaultRanges() Ranges {
	return Ranges{
		OutsideTemperature: Bounds{Min: 70, Max: 95},
		OutsideHumidity:    Bounds{Min: 50, Max: 95},
		RoomOffset:         Bounds{Min: 0, Max: 10},
		Age:                Bounds{Min: 18, Max: 100},
	}
}

type Generator struct {
	faker  *gofakeit.Faker
	log    *slog.Logger
	ranges Ranges
	skew   float64
	series Series
}

type Option func(*Generator)

func WithRanges(r Ranges) Option {
	return func(g *Generator) { g.ranges = r }
}

// WithFemaleSkew sets the share of users drawn as female.
func WithFemaleSkew(skew float64) Option {
	return func(g *Generator) { g.skew = skew }
}

func WithSeries(s Series) Option {
	return func(g *Generator) { g.series = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// New seeds a generator. Seed 0 draws a random seed.
func New(seed uint64, opts ...Option) *Generator {
	g := &Generator{
		faker:  gofakeit.New(seed),
		log:    slog.Default(),
		ranges: DefaultRanges(),
		skew:   0.5,
		series: NewSeries(time.Now(), 5, 23*24*time.Hour, 6*time.Hour),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FromConfig builds a generator from the generator and ranges sections.
func FromConfig(cfg *config.Config, now time.Time, log *slog.Logger) *Generator {
	b := func(r config.Range) Bounds { return Bounds{Min: r.Min, Max: r.Max} }
	gc := cfg.Generator
	return New(gc.Seed,
		WithLogger(log),
		WithFemaleSkew(gc.FemaleSkew),
		WithSeries(NewSeries(now, gc.HistoryYears, gc.HistoryOffset, gc.SamplingTime)),
		WithRanges(Ranges{
			OutsideTemperature: b(cfg.Ranges.OutsideTemperature),
			OutsideHumidity:    b(cfg.Ranges.OutsideHumidity),
			RoomOffset:         b(cfg.Ranges.RoomOffset),
			Age:                b(cfg.Ranges.Age),
		}),
	)
}

func (g *Generator) Series() Series { return g.series }

func (g *Generator) between(b Bounds) int {
	return g.faker.Number(b.Min, b.Max)
}

// Reading draws one set of readings. Room values are an outdoor-range draw
// minus an offset and are not clamped.
func (g *Generator) Reading(date, clock string) models.RawSensorRecord {
	r := g.ranges
	return models.RawSensorRecord{
		Date:               date,
		Time:               clock,
		OutsideTemperature: g.between(r.OutsideTemperature),
		OutsideHumidity:    g.between(r.OutsideHumidity),
		RoomTemperature:    g.between(r.OutsideTemperature) - g.between(r.RoomOffset),
		RoomHumidity:       g.between(r.OutsideHumidity) - g.between(r.RoomOffset),
	}
}

// SensorBatch builds one record per pool entry, consuming the series from its
// start.
func (g *Generator) SensorBatch(pool []string) ([]models.RawSensorRecord, error) {
	nextDate := g.series.Dates()
	nextClock := g.series.Clocks()
	batch := make([]models.RawSensorRecord, 0, len(pool))
	for range pool {
		date, ok := nextDate()
		if !ok {
			return nil, fmt.Errorf("sensor batch at record %d: %w", len(batch), ErrSeriesExhausted)
		}
		clock, ok := nextClock()
		if !ok {
			return nil, fmt.Errorf("sensor batch at record %d: %w", len(batch), ErrSeriesExhausted)
		}
		batch = append(batch, g.Reading(date, clock))
	}
	return batch, nil
}

// NameAndGender draws a gender from the skew and a name to go with it.
func (g *Generator) NameAndGender() (first, last, gender string) {
	gender = "F"
	if g.faker.Float64() > g.skew {
		gender = "M"
	}
	return g.faker.FirstName(), g.faker.LastName(), gender
}

// RawUser is a user profile whose sensor batch has not been merged yet.
type RawUser struct {
	models.UserRecord
	RawSensorData []models.RawSensorRecord
}

// Users builds one profile per user pool entry, each with its own sensor batch
// sized by sensorPool.
func (g *Generator) Users(pool, sensorPool []string) ([]RawUser, error) {
	users := make([]RawUser, 0, len(pool))
	for i := range pool {
		first, last, gender := g.NameAndGender()
		username := g.faker.Username()
		batch, err := g.SensorBatch(sensorPool)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", i, err)
		}
		users = append(users, RawUser{
			UserRecord: models.UserRecord{
				ID:        uuid.NewSHA1(userNamespace, []byte(fmt.Sprintf("%d:%s", i, username))).String(),
				FirstName: first,
				LastName:  last,
				Age:       g.between(g.ranges.Age),
				Gender:    gender,
				Username:  username,
				Address:   g.faker.Address().Address,
				Email:     g.faker.Email(),
			},
			RawSensorData: batch,
		})
	}
	g.log.Info("users generated", "count", len(users))
	return users, nil
}
