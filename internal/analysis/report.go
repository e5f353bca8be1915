package analysis

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/maltedev/laptop-listing-extractor/internal/models"
)

// Report lists the artefacts one Generate call produced.
type Report struct {
	Products  int
	Reviews   int
	Files     []string
	Dashboard string
}

// Generate runs the full analysis over records and writes the CSV tables and
// the dashboard into dir.
func Generate(records []models.ProductRecord, dir, dashboardFile string, scorer Scorer, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "analysis")

	summary := Summarize(records)
	sentiment := AnalyzeReviews(records, scorer)
	if sentiment.Empty() {
		logger.Warn("no reviews found for sentiment analysis")
	}

	files, err := WriteCSV(dir, summary, sentiment)
	if err != nil {
		return Report{}, fmt.Errorf("failed to write tables: %w", err)
	}

	dashboard := filepath.Join(dir, dashboardFile)
	if err := WriteDashboard(dashboard, summary, sentiment); err != nil {
		return Report{}, fmt.Errorf("failed to write dashboard: %w", err)
	}

	report := Report{
		Products:  len(summary.Products),
		Reviews:   len(sentiment.Reviews),
		Files:     files,
		Dashboard: dashboard,
	}
	logger.Info("report generated",
		"products", report.Products,
		"brands", len(summary.Brands),
		"reviews", report.Reviews,
		"dashboard", dashboard,
	)
	return report, nil
}
