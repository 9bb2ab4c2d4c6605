package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"sensor-analytics/internal/chart"
	"sensor-analytics/internal/config"
	"sensor-analytics/internal/data"
	"sensor-analytics/internal/device"
	"sensor-analytics/internal/digest"
	"sensor-analytics/internal/generator"
	"sensor-analytics/internal/logging"
	"sensor-analytics/internal/metrics"
	"sensor-analytics/internal/report"
	"sensor-analytics/internal/storage"
	"sensor-analytics/internal/stream"
	"sensor-analytics/pkg/models"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config; empty reads the environment only")
	seed := flag.Uint64("seed", 0, "generator seed, overrides the config when non-zero")
	out := flag.String("out", "", "base output directory for charts and data files")
	replay := flag.Bool("replay", false, "replay user readings over MQTT after the run, until interrupted")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Generator.Seed = *seed
	}
	if *out != "" {
		cfg.Charts.OutputDir = filepath.Join(*out, "charts")
		cfg.Storage.DataDir = filepath.Join(*out, "data")
		cfg.Storage.SQLitePath = filepath.Join(*out, "data", "sensors.db")
	}

	log := logging.New(cfg.Log)

	// 等待中断信号以优雅地关闭
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	var wg sync.WaitGroup
	if cfg.Metrics.Address != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Serve(ctx, cfg.Metrics.Address, log); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	app := &App{config: cfg, log: log, metrics: m, devices: device.NewManager(log)}
	ds, err := app.Run(ctx)
	if err == nil && *replay {
		err = app.Replay(ctx, ds)
	}

	stop()
	wg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("run failed", "error", err)
		os.Exit(1)
	}
	log.Info("Shutdown complete")
}

// App sequences one batch run.
type App struct {
	config  *config.Config
	log     *slog.Logger
	metrics *metrics.Metrics
	devices *device.Manager
}

// Run generates the dataset, reports on it, renders charts and persists it.
func (a *App) Run(ctx context.Context) (*models.Dataset, error) {
	cfg := a.config
	now := time.Now()
	gen := generator.FromConfig(cfg, now, a.log)
	processor := data.NewProcessor(a.log)
	collector := data.NewCollector()

	sensorPool := gen.SensorPool(cfg.Generator.SensorRecords)
	batch, err := gen.SensorBatch(sensorPool)
	if err != nil {
		return nil, err
	}
	collector.AddBatch(batch)
	sensors, err := processor.Merge(collector.Records())
	if err != nil {
		return nil, err
	}
	a.metrics.RecordsGenerated("sensors", len(sensors))

	rawUsers, err := gen.Users(gen.UserPool(cfg.Generator.UserRecords), sensorPool)
	if err != nil {
		return nil, err
	}
	users, err := processor.MergeUsers(rawUsers)
	if err != nil {
		return nil, err
	}
	a.devices.Assign(users)
	a.metrics.UsersGenerated(len(users))
	for _, u := range users {
		a.metrics.RecordsGenerated("user_sensors", len(u.SensorData))
	}

	ds := &models.Dataset{
		GeneratedAt: now.UTC(),
		Seed:        cfg.Generator.Seed,
		Sensors:     sensors,
		Users:       users,
	}
	analysis, err := processor.Analyze(ds)
	if err != nil {
		return nil, err
	}
	rw := report.NewWriter(os.Stdout, report.DefaultHead)
	if err := rw.All(ds, analysis); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	if err := rw.Devices(a.devices.GetDevices()); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}

	if !cfg.Charts.Disabled {
		paths, err := chart.NewRenderer(cfg.Charts.OutputDir, a.log).RenderAll(ctx, ds, analysis)
		a.metrics.ChartsRendered(len(paths))
		if err != nil {
			return nil, fmt.Errorf("charts: %w", err)
		}
	}

	snap := &storage.Snapshot{Dataset: ds, Analysis: analysis, Digests: digest.Dataset(ds)}
	a.log.Info("dataset digested", "root", snap.Digests[0].Root, "batches", len(snap.Digests))
	store, err := storage.NewStorage(cfg, a.log)
	if err != nil {
		return nil, err
	}
	store.OnSave(a.metrics.FilesWritten)
	if _, err := store.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	if cfg.Kafka.Enabled {
		sink := stream.NewKafkaSink(cfg.Kafka, a.log)
		sink.OnPublish(func(n int) { a.metrics.MessagesPublished("kafka", n) })
		_, err := sink.Send(ctx, ds)
		if cerr := sink.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("kafka: %w", err)
		}
	}
	return ds, nil
}

// Replay serves the embedded broker, publishes every device's readings and
// keeps the broker up until ctx is done.
func (a *App) Replay(ctx context.Context, ds *models.Dataset) error {
	broker, err := stream.NewBroker(a.config.MQTT, a.devices, a.log)
	if err != nil {
		return err
	}
	if err := broker.Serve(); err != nil {
		return fmt.Errorf("start mqtt broker: %w", err)
	}
	defer broker.Close()
	a.log.Info("mqtt broker listening", "addr", a.config.MQTT.Address, "devices", a.devices.Len())

	r := stream.NewReplayer(broker, a.config.MQTT, a.log)
	r.OnPublish(func() { a.metrics.MessagesPublished("mqtt", 1) })
	if _, err := r.Replay(ctx, ds.Users); err != nil {
		return err
	}
	<-ctx.Done()
	a.log.Info("Shutting down...")
	return nil
}
