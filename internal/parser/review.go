package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/laptop-listing-extractor/internal/models"
)

type ReviewSelectors struct {
	Item   string   `mapstructure:"item"`
	Title  []string `mapstructure:"title"`
	Body   []string `mapstructure:"body"`
	Rating []string `mapstructure:"rating"`
}

func DefaultReviewSelectors() ReviewSelectors {
	return ReviewSelectors{
		Item:   "li.review-item",
		Title:  []string{".review-title", "h4", "h3"},
		Body:   []string{".ugc-review-body p", ".pre-white-space", ".review-body", "p"},
		Rating: []string{".c-ratings-reviews p.visually-hidden", ".visually-hidden", "[aria-label*='out of 5']"},
	}
}

// ReviewParser extracts one review from a review item's HTML.
type ReviewParser struct {
	sel ReviewSelectors
}

func NewReviewParser(sel ReviewSelectors) *ReviewParser {
	return &ReviewParser{sel: sel}
}

// Parse returns false when the item carries no review text.
func (p *ReviewParser) Parse(outerHTML string) (models.Review, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(outerHTML))
	if err != nil {
		return models.Review{}, false
	}

	review := models.Review{
		Title:       firstText(doc.Selection, p.sel.Title),
		Description: firstText(doc.Selection, p.sel.Body),
	}
	for _, s := range p.sel.Rating {
		node := doc.Find(s).First()
		text := cleanText(node.Text())
		if label, ok := node.Attr("aria-label"); ok && text == "" {
			text = label
		}
		if r, ok := ParseRating(text); ok {
			review.Rating = models.Float(r)
			break
		}
	}

	return review, review.Description != ""
}

func firstText(sel *goquery.Selection, selectors []string) string {
	for _, s := range selectors {
		if text := cleanText(sel.Find(s).First().Text()); text != "" {
			return text
		}
	}
	return ""
}
