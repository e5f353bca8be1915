package analysis

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Dashboard is the view model of the HTML report.
type Dashboard struct {
	GeneratedAt time.Time
	Summary     Summary
	Sentiment   SentimentReport
}

func (d Dashboard) ReviewCount() int {
	return len(d.Sentiment.Reviews)
}

var dashboardTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"money": func(f float64) string { return fmt.Sprintf("$%.2f", f) },
	"score": func(f float64) string { return fmt.Sprintf("%+.2f", f) },
	"stars": func(r *float64) string {
		if r == nil {
			return "n/a"
		}
		return fmt.Sprintf("%.1f", *r)
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Laptop Market Analysis</title>
<style>
body { font-family: -apple-system, Helvetica, Arial, sans-serif; margin: 2rem; color: #1d252c; }
.kpis { display: flex; gap: 1rem; margin-bottom: 2rem; }
.kpi { background: #0046be; color: #fff; padding: 1rem 1.5rem; border-radius: 6px; }
.kpi .value { font-size: 1.8rem; font-weight: 600; }
table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
th, td { border-bottom: 1px solid #ddd; padding: .4rem .6rem; text-align: left; }
th { background: #f4f6f8; }
.positive { color: #1a7f37; } .negative { color: #cf222e; }
</style>
</head>
<body>
<h1>Laptop Market Analysis</h1>
<p>Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}</p>

<div class="kpis">
  <div class="kpi"><div class="value">{{len .Summary.Products}}</div>Products</div>
  <div class="kpi"><div class="value">{{money .Summary.Prices.Mean}}</div>Average price</div>
  <div class="kpi"><div class="value">{{money .Summary.Prices.Median}}</div>Median price</div>
  <div class="kpi"><div class="value">{{len .Summary.Brands}}</div>Brands</div>
  <div class="kpi"><div class="value">{{.ReviewCount}}</div>Reviews analyzed</div>
</div>

<h2>Brands</h2>
<table>
<tr><th>Brand</th><th>Average price</th><th>Products</th></tr>
{{range .Summary.Brands}}<tr><td>{{.Brand}}</td><td>{{money .AveragePrice}}</td><td>{{.ProductCount}}</td></tr>
{{end}}</table>

<h2>Specifications</h2>
<table>
<tr><th>Product</th><th>Brand</th><th>Screen</th><th>Resolution</th><th>Processor</th><th>Price</th><th>Rating</th></tr>
{{range .Summary.Products}}<tr><td><a href="{{.URL}}">{{.Name}}</a></td><td>{{.Brand}}</td><td>{{.ScreenSize}}</td><td>{{.ScreenResolution}}</td><td>{{.Processor}}</td><td>{{money .Price}}</td><td>{{stars .Rating}}</td></tr>
{{end}}</table>
{{if .Sentiment.Products}}
<h2>Review sentiment</h2>
<table>
<tr><th>Product</th><th>Reviews</th><th>Average</th><th>Positive</th><th>Negative</th><th>Neutral</th></tr>
{{range .Sentiment.Products}}<tr><td>{{.Product}}</td><td>{{.ReviewCount}}</td><td class="{{if gt .AverageScore 0.2}}positive{{else if lt .AverageScore -0.2}}negative{{end}}">{{score .AverageScore}}</td><td>{{.Positive}}</td><td>{{.Negative}}</td><td>{{.Neutral}}</td></tr>
{{end}}</table>
{{end}}
</body>
</html>
`))

func RenderDashboard(w io.Writer, d Dashboard) error {
	if err := dashboardTemplate.Execute(w, d); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

// WriteDashboard renders the report to path, creating its directory.
func WriteDashboard(path string, summary Summary, sentiment SentimentReport) error {
	var buf bytes.Buffer
	if err := RenderDashboard(&buf, Dashboard{GeneratedAt: time.Now(), Summary: summary, Sentiment: sentiment}); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write dashboard: %w", err)
	}
	return nil
}
