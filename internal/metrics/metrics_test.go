package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.RecordsGenerated("sensors", 503)
	m.RecordsGenerated("user_sensors", 10)
	m.RecordsGenerated("user_sensors", 10)
	m.UsersGenerated(500)
	m.ChartsRendered(6)
	m.MessagesPublished("mqtt", 3)
	m.FilesWritten("csv", 3)

	assert.Equal(t, 503.0, testutil.ToFloat64(m.recordsGenerated.WithLabelValues("sensors")))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.recordsGenerated.WithLabelValues("user_sensors")))
	assert.Equal(t, 500.0, testutil.ToFloat64(m.usersGenerated))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.chartsRendered))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.messagesPublished.WithLabelValues("mqtt")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.filesWritten.WithLabelValues("csv")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordsGenerated("sensors", 1)
		m.UsersGenerated(1)
		m.ChartsRendered(1)
		m.MessagesPublished("kafka", 1)
		m.FilesWritten("json", 1)
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ChartsRendered(6)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "charts_rendered_total 6")
}
