package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/maltedev/laptop-listing-extractor/internal/cascade"
	"github.com/maltedev/laptop-listing-extractor/internal/config"
	"github.com/maltedev/laptop-listing-extractor/internal/interstitial"
	"github.com/maltedev/laptop-listing-extractor/internal/metrics"
	"github.com/maltedev/laptop-listing-extractor/internal/models"
	"github.com/maltedev/laptop-listing-extractor/internal/pacing"
	"github.com/maltedev/laptop-listing-extractor/internal/parser"
	"github.com/maltedev/laptop-listing-extractor/internal/scraper"
)

const (
	StrategyExplicitURL    = "explicit_url"
	StrategyCategoryBrowse = "category_browse"
	StrategyAlternateURLs  = "alternate_urls"
)

// Live builds the production strategies from configuration.
type Live struct {
	cfg     *config.Config
	cards   parser.Parser
	reviews *parser.ReviewParser
	pacer   pacing.Pacer
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewLive(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*Live, error) {
	cards, err := cfg.CardParser()
	if err != nil {
		return nil, fmt.Errorf("failed to build card parser: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Live{
		cfg:     cfg,
		cards:   cards,
		reviews: cfg.ReviewParser(),
		pacer:   cfg.Pacer(),
		metrics: m,
		logger:  logger,
	}, nil
}

// WithPacer replaces the pacing policy derived from configuration.
func (l *Live) WithPacer(p pacing.Pacer) *Live {
	l.pacer = p
	return l
}

// Build wires the session into one resolver, extractor and navigator shared
// by every strategy of the run. It satisfies StrategyBuilder.
func (l *Live) Build(s Session, req Request) []Strategy {
	pacer, sched := l.pacer, l.cfg.Schedule()
	resolver := interstitial.NewResolver(s, l.cfg.ResolverConfig(),
		interstitial.DefaultStrategies(l.cfg.InterstitialLocators(), pacer, sched),
		pacer, sched, l.logger)

	run := &liveRun{
		cfg:       l.cfg,
		resolver:  resolver,
		extractor: scraper.NewExtractor(s, l.cards, l.cfg.ExtractorConfig(), pacer, sched, l.logger),
		category:  scraper.NewCategoryNavigator(s, resolver, l.cfg.CategoryConfig(), pacer, sched, l.logger),
		harvester: scraper.NewReviewHarvester(s, resolver, l.reviews, l.cfg.ReviewConfig(), pacer, sched, l.logger),
		metrics:   l.metrics,
		logger:    l.logger.With("component", "strategies"),
	}

	var strategies []Strategy
	if req.UseExplicit && req.ExplicitURL != "" {
		target := req.ExplicitURL
		strategies = append(strategies, Strategy{
			Name:    StrategyExplicitURL,
			Acquire: func() ([]models.ProductRecord, error) { return run.explicit(target) },
		})
	}
	strategies = append(strategies, Strategy{Name: StrategyCategoryBrowse, Acquire: run.browse})
	if len(l.cfg.Site.AlternateURLs) > 0 {
		strategies = append(strategies, Strategy{Name: StrategyAlternateURLs, Acquire: run.alternates})
	}
	return strategies
}

type liveRun struct {
	cfg       *config.Config
	resolver  *interstitial.Resolver
	extractor *scraper.Extractor
	category  *scraper.CategoryNavigator
	harvester *scraper.ReviewHarvester
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func (r *liveRun) navigate(target string) bool {
	res := r.resolver.Navigate(target)
	r.metrics.AddPopups(res.PopupsDismissed)
	if res.Reached && !res.Verified {
		r.logger.Warn("page loaded but could not be verified", "url", target, "final_url", res.FinalURL)
	}
	return res.Reached
}

func (r *liveRun) extractHere() []models.ProductRecord {
	records := r.extractor.Extract()
	if len(records) == 0 {
		return nil
	}
	return r.harvester.Harvest(records)
}

func (r *liveRun) explicit(target string) ([]models.ProductRecord, error) {
	if !r.navigate(target) {
		return nil, fmt.Errorf("could not load %s", target)
	}
	return r.extractHere(), nil
}

func (r *liveRun) browse() ([]models.ProductRecord, error) {
	if !r.navigate(r.cfg.Site.BaseURL) {
		return nil, fmt.Errorf("could not load site root %s", r.cfg.Site.BaseURL)
	}
	if !r.category.Browse() {
		return nil, errors.New("category navigation failed")
	}
	if !r.cfg.Filter.IsZero() && !r.category.ApplyFilters(r.cfg.Filter) {
		r.logger.Warn("filters could not be applied, extracting what is showing")
	}
	return r.extractHere(), nil
}

func (r *liveRun) alternates() ([]models.ProductRecord, error) {
	steps := make([]cascade.Step[*liveRun, []models.ProductRecord], 0, len(r.cfg.Site.AlternateURLs))
	for _, target := range r.cfg.Site.AlternateURLs {
		steps = append(steps, cascade.Step[*liveRun, []models.ProductRecord]{
			Name: target,
			Try: func(r *liveRun) ([]models.ProductRecord, bool) {
				if !r.navigate(target) {
					return nil, false
				}
				records := r.extractHere()
				return records, len(records) > 0
			},
		})
	}

	records, used, ok := cascade.First(r, steps...)
	if !ok {
		return nil, fmt.Errorf("none of %d alternate urls yielded products", len(steps))
	}
	r.logger.Info("alternate url yielded products", "url", used, "records", len(records))
	return records, nil
}
