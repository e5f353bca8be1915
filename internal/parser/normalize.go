package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	pricePattern       = regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})+|\d+)(\.\d{1,2})?`)
	ratingPhrase       = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:out\s+of|/)\s*5\b`)
	reviewsWordPattern = regexp.MustCompile(`(?i)(?:^|[^\d.,])(\d{1,3}(?:,\d{3})+|\d+)\s*(?:customer\s+)?(?:reviews?|ratings?)\b`)
	spacePattern       = regexp.MustCompile(`\s+`)

	// numberToken matches a whole number, thousands groups and decimals
	// included, and notes whether a count word follows it.
	numberToken = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)(\s*(?:customer\s+)?(?:reviews?|ratings?)\b)?`)
)

// NormalizePrice returns the first well-formed $-prefixed numeric token in
// text, e.g. "$1,299.99". A token that continues with more digits or a short
// thousands group ("$1,49") is malformed and skipped, never truncated.
func NormalizePrice(text string) (string, bool) {
	for _, m := range pricePattern.FindAllStringSubmatchIndex(text, -1) {
		if truncated(text[m[1]:]) {
			continue
		}
		price := "$" + text[m[2]:m[3]]
		if m[4] >= 0 {
			price += text[m[4]:m[5]]
		}
		return price, true
	}
	return "", false
}

// truncated reports whether a numeric match stopped short of the token, i.e.
// the rest starts with a digit or with a separator followed by a digit.
func truncated(rest string) bool {
	if rest == "" {
		return false
	}
	if isDigit(rest[0]) {
		return true
	}
	return len(rest) > 1 && (rest[0] == ',' || rest[0] == '.') && isDigit(rest[1])
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// PriceValue turns a normalized price back into a number.
func PriceValue(price string) (float64, bool) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(price))
	if clean == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseRating reads a rating in [0,5]. An "N out of 5" phrase is trusted
// first and discarded when N is out of range. Otherwise whole numbers are
// tried in order: grouped numbers like "1,234" and counts followed by
// "reviews" or "ratings" are never ratings, and out-of-range values are
// skipped. Values are never clamped.
func ParseRating(text string) (float64, bool) {
	if m := ratingPhrase.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || v < 0 || v > 5 {
			return 0, false
		}
		return v, true
	}
	for _, m := range numberToken.FindAllStringSubmatch(text, -1) {
		token, counted := m[1], m[2] != ""
		if counted || strings.Contains(token, ",") {
			continue
		}
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			continue
		}
		if v >= 0 && v <= 5 {
			return v, true
		}
	}
	return 0, false
}

// ParseReviewCount reads an integer that may carry thousands separators. A
// number followed by "reviews" wins over any earlier number in the text, and
// decimals such as a "4.5" rating are never counts.
func ParseReviewCount(text string) (int, bool) {
	raw := ""
	if m := reviewsWordPattern.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else {
		for _, m := range numberToken.FindAllStringSubmatch(text, -1) {
			if !strings.Contains(m[1], ".") {
				raw = m[1]
				break
			}
		}
	}
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ParseReviewPhrase accepts only "<n> reviews" phrases, so rating text such as
// "4.6 out of 5" is never read as a count.
func ParseReviewPhrase(text string) (int, bool) {
	m := reviewsWordPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return ParseReviewCount(m[0])
}

func cleanText(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
