package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maltedev/laptop-listing-extractor/internal/metrics"
	"github.com/maltedev/laptop-listing-extractor/internal/models"
	"github.com/maltedev/laptop-listing-extractor/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords() []models.ProductRecord {
	return []models.ProductRecord{
		{
			Index:          1,
			Name:           models.String("Dell - Inspiron 15"),
			Price:          models.String("$699.99"),
			Rating:         models.Float(4.6),
			Specifications: map[string]string{"brand": "Dell"},
			Reviews:        []models.Review{{Title: "Solid", Description: "Great screen and fast."}},
		},
		{
			Index:          2,
			Name:           models.String("HP - Envy x360"),
			Price:          models.String("$849.00"),
			Specifications: map[string]string{"brand": "HP"},
		},
	}
}

func newServer(t *testing.T, seed func(path string)) (http.Handler, *storage.Snapshot) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw_product_data.json")
	if seed != nil {
		seed(path)
	}
	snap := storage.NewSnapshot(path)
	h := NewHandlers(snap, 24*time.Hour, nil, nil)
	return NewRouter(h, RouterConfig{Metrics: metrics.New()}), snap
}

func withRecords(t *testing.T) func(string) {
	return func(path string) {
		require.NoError(t, storage.NewSnapshot(path).Save(testRecords()))
	}
}

func withRaw(t *testing.T, raw string) func(string) {
	return func(path string) {
		require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
	}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestGetProducts(t *testing.T) {
	h, _ := newServer(t, withRecords(t))

	rec := get(t, h, "/api/v1/products")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ProductsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "Dell - Inspiron 15", *resp.Products[0].Name)
	assert.Nil(t, resp.Products[1].Rating)
}

func TestGetProductsByBrand(t *testing.T) {
	h, _ := newServer(t, withRecords(t))

	var resp ProductsResponse
	rec := get(t, h, "/api/v1/products?brand=hp")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "HP - Envy x360", *resp.Products[0].Name)
}

func TestSnapshotErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name     string
		seed     func(*testing.T) func(string)
		expected int
	}{
		{"missing", func(*testing.T) func(string) { return nil }, http.StatusNotFound},
		{"malformed", func(t *testing.T) func(string) { return withRaw(t, `[{"index":`) }, http.StatusUnprocessableEntity},
		{"empty", func(t *testing.T) func(string) { return withRaw(t, `[]`) }, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newServer(t, tt.seed(t))
			for _, route := range []string{"/api/v1/products", "/api/v1/summary", "/dashboard"} {
				assert.Equal(t, tt.expected, get(t, h, route).Code, route)
			}
		})
	}
}

func TestGetSummary(t *testing.T) {
	h, _ := newServer(t, withRecords(t))

	rec := get(t, h, "/api/v1/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Summary.Products, 2)
	assert.Len(t, resp.Summary.Brands, 2)
	assert.Equal(t, 2, resp.Summary.Prices.Count)
	require.Len(t, resp.Sentiment.Products, 1)
	assert.Equal(t, 1, resp.Sentiment.Products[0].Positive)
}

func TestGetDashboard(t *testing.T) {
	h, _ := newServer(t, withRecords(t))

	rec := get(t, h, "/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Dell - Inspiron 15")
}

func TestHealth(t *testing.T) {
	t.Run("no snapshot", func(t *testing.T) {
		h, _ := newServer(t, nil)
		var resp HealthResponse
		rec := get(t, h, "/health")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "no_data", resp.Status)
		assert.False(t, resp.Exists)
	})

	t.Run("fresh", func(t *testing.T) {
		h, _ := newServer(t, withRecords(t))
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(get(t, h, "/health").Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.True(t, resp.Fresh)
	})

	t.Run("stale", func(t *testing.T) {
		h, snap := newServer(t, withRecords(t))
		old := time.Now().Add(-48 * time.Hour)
		require.NoError(t, os.Chtimes(snap.Path(), old, old))

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(get(t, h, "/health").Body.Bytes(), &resp))
		assert.Equal(t, "stale", resp.Status)
		assert.True(t, resp.Exists)
		assert.False(t, resp.Fresh)
		assert.Greater(t, resp.AgeSeconds, float64(47*3600))
	})
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newServer(t, nil)
	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "extractor_products_extracted_total 0")
}
