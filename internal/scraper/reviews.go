package scraper

import (
	"log/slog"
	"time"

	"github.com/maltedev/laptop-listing-extractor/internal/browser"
	"github.com/maltedev/laptop-listing-extractor/internal/models"
	"github.com/maltedev/laptop-listing-extractor/internal/pacing"
	"github.com/maltedev/laptop-listing-extractor/internal/parser"
)

type ReviewConfig struct {
	Products   int
	PerProduct int
	Items      browser.Locator
	Wait       time.Duration
}

func DefaultReviewConfig() ReviewConfig {
	return ReviewConfig{
		PerProduct: 5,
		Items:      browser.CSS(parser.DefaultReviewSelectors().Item),
		Wait:       10 * time.Second,
	}
}

// ReviewHarvester visits product pages and attaches their reviews to the
// matching records.
type ReviewHarvester struct {
	page   Page
	nav    Navigator
	parser *parser.ReviewParser
	cfg    ReviewConfig
	pacer  pacing.Pacer
	sched  pacing.Schedule
	logger *slog.Logger
}

func NewReviewHarvester(page Page, nav Navigator, p *parser.ReviewParser, cfg ReviewConfig, pacer pacing.Pacer, sched pacing.Schedule, logger *slog.Logger) *ReviewHarvester {
	if pacer == nil {
		pacer = pacing.Steady{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewHarvester{
		page:   page,
		nav:    nav,
		parser: p,
		cfg:    cfg,
		pacer:  pacer,
		sched:  sched,
		logger: logger.With("component", "reviews"),
	}
}

// Harvest returns a copy of records in which the first cfg.Products records
// that have a URL carry up to cfg.PerProduct reviews. The input is not modified.
func (h *ReviewHarvester) Harvest(records []models.ProductRecord) []models.ProductRecord {
	out := make([]models.ProductRecord, len(records))
	copy(out, records)
	if h.cfg.Products <= 0 || h.cfg.PerProduct <= 0 {
		return out
	}

	visited, attached := 0, 0
	for i, r := range records {
		if visited >= h.cfg.Products {
			break
		}
		target := r.URLOr("")
		if target == "" {
			continue
		}
		visited++

		if !h.nav.Navigate(target).Reached {
			h.logger.Warn("product page not reached", "index", r.Index, "url", target)
			continue
		}

		if reviews := h.collect(); len(reviews) > 0 {
			out[i] = r.WithReviews(reviews)
			attached += len(reviews)
		}
		h.pacer.Pause(h.sched.Action)
	}

	h.logger.Info("review harvest finished", "products", visited, "reviews", attached)
	return out
}

func (h *ReviewHarvester) collect() []models.Review {
	var reviews []models.Review
	for _, el := range h.page.WaitForAll(h.cfg.Items, h.cfg.Wait) {
		if len(reviews) >= h.cfg.PerProduct {
			break
		}
		if review, ok := h.parser.Parse(el.OuterHTML()); ok {
			reviews = append(reviews, review)
		}
	}
	return reviews
}
