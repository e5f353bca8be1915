package analysis

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	ProductCSV   = "product_analysis.csv"
	BrandCSV     = "brand_pivot.csv"
	SentimentCSV = "review_sentiment.csv"
)

type table struct {
	name   string
	header []string
	rows   [][]string
}

// WriteCSV writes the spreadsheet tables into dir and returns the paths
// written. The sentiment table is only written when there are reviews.
func WriteCSV(dir string, summary Summary, sentiment SentimentReport) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %q: %w", dir, err)
	}

	tables := []table{
		{ProductCSV, []string{"Product Name", "Brand", "Model", "Screen Size", "Screen Resolution", "Processor", "Price", "Rating", "Review Count", "URL"}, productRows(summary.Products)},
		{BrandCSV, []string{"Brand", "Average Price", "Product Count"}, brandRows(summary.Brands)},
	}
	if !sentiment.Empty() {
		tables = append(tables, table{SentimentCSV, []string{"Product Name", "Brand", "Review Count", "Avg Sentiment", "Pos Reviews", "Neg Reviews", "Neu Reviews"}, sentimentRows(sentiment.Products)})
	}

	written := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, t.name)
		if err := writeTable(path, t.header, t.rows); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeTable(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv records: %w", err)
	}
	return f.Close()
}

func productRows(products []ProductRow) [][]string {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rating, reviews := "", ""
		if p.Rating != nil {
			rating = strconv.FormatFloat(*p.Rating, 'f', 1, 64)
		}
		if p.ReviewCount != nil {
			reviews = strconv.Itoa(*p.ReviewCount)
		}
		rows = append(rows, []string{
			p.Name, p.Brand, p.Model, p.ScreenSize, p.ScreenResolution, p.Processor,
			money(p.Price), rating, reviews, p.URL,
		})
	}
	return rows
}

func brandRows(brands []BrandStat) [][]string {
	rows := make([][]string, 0, len(brands))
	for _, b := range brands {
		rows = append(rows, []string{b.Brand, money(b.AveragePrice), strconv.Itoa(b.ProductCount)})
	}
	return rows
}

func sentimentRows(products []ProductSentiment) [][]string {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{
			p.Product, p.Brand, strconv.Itoa(p.ReviewCount),
			strconv.FormatFloat(p.AverageScore, 'f', 2, 64),
			strconv.Itoa(p.Positive), strconv.Itoa(p.Negative), strconv.Itoa(p.Neutral),
		})
	}
	return rows
}

func money(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
