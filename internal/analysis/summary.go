// Package analysis turns a product snapshot into the tables, sentiment
// aggregates and dashboard the reporting commands publish.
package analysis

import (
	"math"
	"slices"
	"strings"

	"github.com/maltedev/laptop-listing-extractor/internal/models"
	"github.com/maltedev/laptop-listing-extractor/internal/parser"
)

const unknown = "Unknown"

// ProductRow is one line of the specifications comparison.
type ProductRow struct {
	Name             string   `json:"name"`
	Brand            string   `json:"brand"`
	Model            string   `json:"model"`
	ScreenSize       string   `json:"screen_size"`
	ScreenResolution string   `json:"screen_resolution"`
	Processor        string   `json:"processor"`
	Price            float64  `json:"price"`
	Rating           *float64 `json:"rating,omitempty"`
	ReviewCount      *int     `json:"review_count,omitempty"`
	URL              string   `json:"url"`
}

// BrandStat is one row of the brand pivot.
type BrandStat struct {
	Brand        string  `json:"brand"`
	AveragePrice float64 `json:"average_price"`
	ProductCount int     `json:"product_count"`
}

type PriceStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

type Summary struct {
	Products []ProductRow `json:"products"`
	Brands   []BrandStat  `json:"brands"`
	Prices   PriceStats   `json:"prices"`
}

// Summarize builds the product rows, the brand pivot and the price
// statistics. Prices that cannot be parsed show as zero in the rows and are
// left out of every average, though the product still counts for its brand.
func Summarize(records []models.ProductRecord) Summary {
	s := Summary{Products: make([]ProductRow, 0, len(records))}

	type acc struct {
		total    float64
		priced   int
		products int
	}
	byBrand := make(map[string]*acc)
	var prices []float64

	for _, r := range records {
		price, ok := parser.PriceValue(r.PriceOr(""))
		row := ProductRow{
			Name:             r.NameOr("N/A"),
			Brand:            r.Spec("brand", unknown),
			Model:            r.Spec("model", "N/A"),
			ScreenSize:       r.Spec("screen_size", "N/A"),
			ScreenResolution: r.Spec("screen_resolution", "N/A"),
			Processor:        r.Spec("processor", "N/A"),
			Price:            price,
			Rating:           r.Rating,
			ReviewCount:      r.ReviewCount,
			URL:              r.URLOr("N/A"),
		}
		s.Products = append(s.Products, row)

		a, seen := byBrand[row.Brand]
		if !seen {
			a = &acc{}
			byBrand[row.Brand] = a
		}
		a.products++
		if ok {
			a.total += price
			a.priced++
			prices = append(prices, price)
		}
	}

	for brand, a := range byBrand {
		stat := BrandStat{Brand: brand, ProductCount: a.products}
		if a.priced > 0 {
			stat.AveragePrice = round2(a.total / float64(a.priced))
		}
		s.Brands = append(s.Brands, stat)
	}
	slices.SortFunc(s.Brands, func(a, b BrandStat) int {
		return strings.Compare(a.Brand, b.Brand)
	})

	s.Prices = priceStats(prices)
	return s
}

func priceStats(prices []float64) PriceStats {
	if len(prices) == 0 {
		return PriceStats{}
	}
	sorted := slices.Clone(prices)
	slices.Sort(sorted)

	var total float64
	for _, p := range sorted {
		total += p
	}

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return PriceStats{
		Count:  n,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   round2(total / float64(n)),
		Median: round2(median),
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
