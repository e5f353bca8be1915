package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maltedev/laptop-listing-extractor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []models.ProductRecord {
	return []models.ProductRecord{
		{
			Index:          1,
			Name:           models.String("Dell - Inspiron 15 Laptop"),
			Price:          models.String("$699.99"),
			Rating:         models.Float(4.6),
			ReviewCount:    models.Int(1234),
			URL:            models.String("https://www.bestbuy.com/site/dell/1.p"),
			Specifications: map[string]string{"brand": "Dell", "memory": "16GB"},
		},
		{
			Index: 2,
			Name:  models.String("HP - 14\" Laptop"),
			Price: models.String("$179.00"),
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "bestbuy_laptops.json")
	snap := NewSnapshot(path)

	require.NoError(t, snap.Save(sampleRecords()))
	assert.True(t, snap.Exists())
	assert.NoFileExists(t, path+".tmp")

	loaded, err := snap.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "Dell - Inspiron 15 Laptop", *loaded[0].Name)
	assert.InDelta(t, 4.6, *loaded[0].Rating, 0.0001)
	assert.Equal(t, 1234, *loaded[0].ReviewCount)
	assert.Equal(t, "16GB", loaded[0].Specifications["memory"])

	assert.Nil(t, loaded[1].Rating)
	assert.Nil(t, loaded[1].ReviewCount)
	assert.Nil(t, loaded[1].URL)
	assert.NotNil(t, loaded[1].Specifications)
}

func TestSaveWritesNullsAndObjects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	records := sampleRecords()
	require.NoError(t, NewSnapshot(path).Save(records))

	assert.Nil(t, records[1].Specifications, "caller's records are left untouched")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)

	second := raw[1]
	for _, key := range []string{"rating", "review_count", "url"} {
		v, ok := second[key]
		assert.True(t, ok, "key %s present", key)
		assert.Nil(t, v, "key %s is null", key)
	}
	assert.Equal(t, map[string]any{}, second["specifications"])
	_, hasReviews := second["reviews"]
	assert.False(t, hasReviews)
}

func TestSaveRefusesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	snap := NewSnapshot(path)

	assert.ErrorIs(t, snap.Save(nil), ErrNothingToSave)
	assert.False(t, snap.Exists())
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	snap := NewSnapshot(path)

	require.NoError(t, snap.Save(sampleRecords()))
	require.NoError(t, snap.Save(sampleRecords()[:1]))

	loaded, err := snap.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		content  *string
		expected error
	}{
		{"missing", nil, ErrSnapshotNotFound},
		{"malformed", models.String(`[{"index": 1, "name": `), ErrSnapshotMalformed},
		{"wrong shape", models.String(`{"index": 1}`), ErrSnapshotMalformed},
		{"empty array", models.String(`[]`), ErrSnapshotEmpty},
		{"null", models.String(`null`), ErrSnapshotEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o644))
			}

			_, err := NewSnapshot(path).Load()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestFreshness(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	snap := NewSnapshot(path)

	now := time.Now()
	assert.False(t, snap.IsFresh(now, 24*time.Hour), "missing file is never fresh")
	_, ok := snap.Age(now)
	assert.False(t, ok)

	require.NoError(t, snap.Save(sampleRecords()))
	written := now.Add(-24 * time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, written, written))

	tests := []struct {
		name     string
		now      time.Time
		expected bool
	}{
		{"just under a day", written.Add(24*time.Hour - time.Second), true},
		{"exactly a day", written.Add(24 * time.Hour), false},
		{"over a day", written.Add(25 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, snap.IsFresh(tt.now, 24*time.Hour))
			assert.Equal(t, tt.expected, snap.IsFresh(tt.now, 24*time.Hour), "check is idempotent")
		})
	}

	age, ok := snap.Age(written.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, time.Hour, age.Round(time.Second))
}
