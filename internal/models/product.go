package models

import "strings"

// ProductRecord is one extracted listing. Only Name and Price are required;
// every other field is best effort and serializes as null when absent.
type ProductRecord struct {
	Index          int               `json:"index"`
	Name           *string           `json:"name"`
	Price          *string           `json:"price"`
	Rating         *float64          `json:"rating"`
	ReviewCount    *int              `json:"review_count"`
	URL            *string           `json:"url"`
	Specifications map[string]string `json:"specifications"`
	Reviews        []Review          `json:"reviews,omitempty"`
}

type Review struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Rating      *float64 `json:"rating,omitempty"`
}

// Valid reports whether the record satisfies the retention rule and the
// numeric ranges.
func (r ProductRecord) Valid() bool {
	if !nonEmpty(r.Name) || !nonEmpty(r.Price) {
		return false
	}
	if r.Rating != nil && (*r.Rating < 0 || *r.Rating > 5) {
		return false
	}
	if r.ReviewCount != nil && *r.ReviewCount < 0 {
		return false
	}
	return true
}

// WithReviews returns a copy of r carrying reviews.
func (r ProductRecord) WithReviews(reviews []Review) ProductRecord {
	out := r
	out.Specifications = make(map[string]string, len(r.Specifications))
	for k, v := range r.Specifications {
		out.Specifications[k] = v
	}
	out.Reviews = append([]Review(nil), reviews...)
	return out
}

func (r ProductRecord) NameOr(fallback string) string {
	if nonEmpty(r.Name) {
		return *r.Name
	}
	return fallback
}

func (r ProductRecord) PriceOr(fallback string) string {
	if nonEmpty(r.Price) {
		return *r.Price
	}
	return fallback
}

func (r ProductRecord) URLOr(fallback string) string {
	if nonEmpty(r.URL) {
		return *r.URL
	}
	return fallback
}

func (r ProductRecord) Spec(key, fallback string) string {
	if v := strings.TrimSpace(r.Specifications[key]); v != "" {
		return v
	}
	return fallback
}

func nonEmpty(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func String(s string) *string {
	return &s
}

func Float(f float64) *float64 {
	return &f
}

func Int(i int) *int {
	return &i
}
