package analysis

import (
	"math"
	"strings"
	"unicode"

	"github.com/maltedev/laptop-listing-extractor/internal/models"
)

// Thresholds separating positive, neutral and negative review scores.
const (
	PositiveThreshold = 0.2
	NegativeThreshold = -0.2
)

// Scorer maps review text to a polarity in [-1, 1].
type Scorer interface {
	Score(text string) float64
}

// LexiconScorer sums word valences, flips the word after a negation and
// squashes the sum into [-1, 1].
type LexiconScorer struct {
	Positive map[string]float64
	Negative map[string]float64
	Negators map[string]bool
	// Alpha controls how fast the sum saturates.
	Alpha float64
}

func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{
		Positive: weights(1.5, "good", "great", "excellent", "fast", "love", "amazing", "perfect",
			"awesome", "recommend", "bright", "sharp", "light", "solid", "smooth", "quiet",
			"happy", "best", "reliable", "beautiful", "easy", "nice", "impressive", "worth"),
		Negative: weights(1.5, "bad", "slow", "poor", "terrible", "broken", "hate", "awful",
			"disappointed", "disappointing", "worst", "loud", "hot", "heavy", "dim", "cheap",
			"crash", "crashes", "died", "return", "returned", "defective", "useless", "laggy"),
		Negators: map[string]bool{"not": true, "no": true, "never": true, "isn't": true,
			"wasn't": true, "don't": true, "doesn't": true, "didn't": true, "hardly": true},
		Alpha: 15,
	}
}

func weights(w float64, words ...string) map[string]float64 {
	m := make(map[string]float64, len(words))
	for _, word := range words {
		m[word] = w
	}
	return m
}

func (s *LexiconScorer) Score(text string) float64 {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	var sum float64
	negate := false
	for _, tok := range tokens {
		if s.Negators[tok] {
			negate = true
			continue
		}
		v := s.Positive[tok] - s.Negative[tok]
		if v != 0 && negate {
			v = -v
		}
		sum += v
		negate = false
	}
	if sum == 0 {
		return 0
	}
	return sum / math.Sqrt(sum*sum+s.Alpha)
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

func Classify(score float64) Sentiment {
	switch {
	case score > PositiveThreshold:
		return SentimentPositive
	case score < NegativeThreshold:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// ScoredReview is one review with its polarity.
type ScoredReview struct {
	Product string  `json:"product"`
	Brand   string  `json:"brand"`
	Title   string  `json:"title"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// ProductSentiment aggregates the reviews of one product.
type ProductSentiment struct {
	Product      string  `json:"product"`
	Brand        string  `json:"brand"`
	ReviewCount  int     `json:"review_count"`
	AverageScore float64 `json:"average_score"`
	Positive     int     `json:"positive"`
	Negative     int     `json:"negative"`
	Neutral      int     `json:"neutral"`
}

type SentimentReport struct {
	Reviews  []ScoredReview     `json:"reviews"`
	Products []ProductSentiment `json:"products"`
}

func (r SentimentReport) Empty() bool {
	return len(r.Reviews) == 0
}

// AnalyzeReviews scores every review that has a body and aggregates per
// product, keeping the snapshot order.
func AnalyzeReviews(records []models.ProductRecord, scorer Scorer) SentimentReport {
	var report SentimentReport
	for _, r := range records {
		agg := ProductSentiment{Product: r.NameOr("N/A"), Brand: r.Spec("brand", unknown)}
		var total float64

		for _, rev := range r.Reviews {
			text := strings.TrimSpace(rev.Description)
			if text == "" {
				continue
			}
			score := scorer.Score(text)
			report.Reviews = append(report.Reviews, ScoredReview{
				Product: agg.Product,
				Brand:   agg.Brand,
				Title:   rev.Title,
				Text:    text,
				Score:   score,
			})

			agg.ReviewCount++
			total += score
			switch Classify(score) {
			case SentimentPositive:
				agg.Positive++
			case SentimentNegative:
				agg.Negative++
			default:
				agg.Neutral++
			}
		}

		if agg.ReviewCount > 0 {
			agg.AverageScore = round2(total / float64(agg.ReviewCount))
			report.Products = append(report.Products, agg)
		}
	}
	return report
}
