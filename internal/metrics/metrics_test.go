package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveStrategy("explicit_url", false)
	m.ObserveStrategy("category_browse", true)
	m.ObserveStrategy("category_browse", true)
	m.AddProducts(18)
	m.AddProducts(0)
	m.AddPopups(2)
	m.ObserveRun("fresh", 42*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StrategyAttempts.WithLabelValues("explicit_url", "failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StrategyAttempts.WithLabelValues("category_browse", "success")))
	assert.Equal(t, 18.0, testutil.ToFloat64(m.ProductsExtracted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PopupsDismissed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("fresh")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStrategy("explicit_url", true)
		m.AddProducts(3)
		m.AddPopups(1)
		m.ObserveRun("failed", time.Second)
	})
	assert.NoError(t, m.WriteTextfile("/nonexistent/metrics.prom"))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.AddProducts(5)

	path := filepath.Join(t.TempDir(), "extractor.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "extractor_products_extracted_total 5")

	assert.NoError(t, m.WriteTextfile(""))
}
