package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts what a run produced. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry          *prometheus.Registry
	recordsGenerated  *prometheus.CounterVec
	usersGenerated    prometheus.Counter
	chartsRendered    prometheus.Counter
	messagesPublished *prometheus.CounterVec
	filesWritten      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recordsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensor_records_generated_total",
			Help: "Sensor records generated, by table.",
		}, []string{"table"}),
		usersGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "users_generated_total",
			Help: "User profiles generated.",
		}),
		chartsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "charts_rendered_total",
			Help: "Chart files written.",
		}),
		messagesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "Readings published, by transport.",
		}, []string{"transport"}),
		filesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storage_files_written_total",
			Help: "Files written by storage format.",
		}, []string{"format"}),
	}
	m.registry.MustRegister(
		m.recordsGenerated,
		m.usersGenerated,
		m.chartsRendered,
		m.messagesPublished,
		m.filesWritten,
	)
	return m
}

func (m *Metrics) RecordsGenerated(table string, n int) {
	if m == nil {
		return
	}
	m.recordsGenerated.WithLabelValues(table).Add(float64(n))
}

func (m *Metrics) UsersGenerated(n int) {
	if m == nil {
		return
	}
	m.usersGenerated.Add(float64(n))
}

func (m *Metrics) ChartsRendered(n int) {
	if m == nil {
		return
	}
	m.chartsRendered.Add(float64(n))
}

func (m *Metrics) MessagesPublished(transport string, n int) {
	if m == nil {
		return
	}
	m.messagesPublished.WithLabelValues(transport).Add(float64(n))
}

func (m *Metrics) FilesWritten(format string, n int) {
	if m == nil {
		return
	}
	m.filesWritten.WithLabelValues(format).Add(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
