package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/maltedev/laptop-listing-extractor/internal/models"
	"github.com/maltedev/laptop-listing-extractor/internal/pipeline"
	"github.com/maltedev/laptop-listing-extractor/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags() {
	cfgFile, visible, verbose, quiet, dataFile, refresh = "", false, false, false, "", false
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSubcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"extract", "category", "both", "report", "serve"})
	assert.NotNil(t, root.PersistentFlags().Lookup("data-file"))
	assert.NotNil(t, root.PersistentFlags().Lookup("visible"))
}

func TestReportFromDataFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "saved", "laptops.json")
	require.NoError(t, storage.NewSnapshot(path).Save([]models.ProductRecord{{
		Index:          1,
		Name:           models.String("Dell - Inspiron 15"),
		Price:          models.String("$699.99"),
		Specifications: map[string]string{"brand": "Dell"},
	}}))

	stdout, _, err := execute(t, "report", "--data-file", path, "--quiet")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Report for 1 products")
	assert.FileExists(t, filepath.Join(dir, "reports", "product_analysis.csv"))
	assert.FileExists(t, filepath.Join(dir, "reports", "analytics_dashboard.html"))
}

func TestReportWithoutData(t *testing.T) {
	t.Chdir(t.TempDir())

	_, stderr, err := execute(t, "report", "--quiet")
	require.ErrorIs(t, err, storage.ErrSnapshotNotFound)
	assert.Contains(t, stderr, "--data-file")
}

func TestPrintFailureHint(t *testing.T) {
	var buf bytes.Buffer
	printFailureHint(&buf, pipeline.ErrNoData)
	assert.Contains(t, buf.String(), "no product data available")
	assert.Contains(t, buf.String(), "--data-file")
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, pipeline.Outcome{
		Status:   pipeline.StatusFresh,
		Strategy: pipeline.StrategyCategoryBrowse,
		Records:  make([]models.ProductRecord, 8),
		Path:     "data/raw_product_data.json",
	})
	assert.Equal(t, "Extracted 8 products via category_browse\nSnapshot: data/raw_product_data.json\n", buf.String())
}
