package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
		ok       bool
	}{
		{"plain", "$999.00", "$999.00", true},
		{"thousands", "Your price for this item is $1,299.99", "$1,299.99", true},
		{"no cents", "$649", "$649", true},
		{"first token wins", "Was $1,099.99 now $899.99", "$1,099.99", true},
		{"space after sign", "$ 549.99", "$549.99", true},
		{"no dollar token", "Sold Out", "", false},
		{"bare number", "999.99", "", false},
		{"short thousands group", "$1,49", "", false},
		{"extra cents digit", "$999.999", "", false},
		{"skips malformed token", "$1,49 or $1,499.00", "$1,499.00", true},
		{"sentence end", "Now $899.99.", "$899.99", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePrice(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPriceValue(t *testing.T) {
	v, ok := PriceValue("$1,299.99")
	assert.True(t, ok)
	assert.InDelta(t, 1299.99, v, 0.001)

	_, ok = PriceValue("N/A")
	assert.False(t, ok)

	_, ok = PriceValue("")
	assert.False(t, ok)
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected float64
		ok       bool
	}{
		{"phrase", "Rating 4.6 out of 5 stars with 1,234 reviews", 4.6, true},
		{"slash", "Rated 4.5/5", 4.5, true},
		{"perfect", "5 out of 5", 5.0, true},
		{"zero", "0 out of 5", 0.0, true},
		{"phrase out of range", "Rating 7.5 out of 5", 0, false},
		{"bare number", "4.2", 4.2, true},
		{"skips out of range bare numbers", "1234 shoppers, average 3.9", 3.9, true},
		{"no number", "Not Yet Reviewed", 0, false},
		{"review count label", "(1,234 Reviews)", 0, false},
		{"grouped count alone", "(1,234)", 0, false},
		{"small review count", "3 reviews", 0, false},
		{"rating before count", "4.5 (1,234)", 4.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRating(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.expected, got, 0.0001)
				assert.GreaterOrEqual(t, got, 0.0)
				assert.LessOrEqual(t, got, 5.0)
			}
		})
	}
}

func TestParseReviewCount(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
		ok       bool
	}{
		{"parenthesized", "(1,234)", 1234, true},
		{"with word", "2,345 Reviews", 2345, true},
		{"word beats earlier number", "Rating 4.6 out of 5 stars with 1,234 reviews", 1234, true},
		{"single", "(7)", 7, true},
		{"large", "(12,345,678)", 12345678, true},
		{"none", "Not Yet Reviewed", 0, false},
		{"rating decimal skipped", "4.5 (1,234)", 1234, true},
		{"decimal before word", "4.5 reviews", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseReviewCount(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseReviewPhrase(t *testing.T) {
	n, ok := ParseReviewPhrase("Rating 4.6 out of 5 stars with 1,234 reviews")
	assert.True(t, ok)
	assert.Equal(t, 1234, n)

	_, ok = ParseReviewPhrase("Rating 4.6 out of 5 stars")
	assert.False(t, ok, "a rating alone must not be read as a review count")
}
