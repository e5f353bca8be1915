package scraper

import (
	"log/slog"
	"time"

	"github.com/maltedev/laptop-listing-extractor/internal/browser"
	"github.com/maltedev/laptop-listing-extractor/internal/models"
	"github.com/maltedev/laptop-listing-extractor/internal/pacing"
	"github.com/maltedev/laptop-listing-extractor/internal/parser"
)

// DefaultFallbackItems matches generic card-like elements, outermost only.
const DefaultFallbackItems = `//*[self::li or self::article or self::div]` +
	`[contains(@class, 'card') or contains(@class, 'item') or contains(@class, 'product')]` +
	`[.//a[@href]][not(ancestor::li or ancestor::article)]`

type ExtractConfig struct {
	Container        browser.Locator
	Items            browser.Locator
	FallbackItems    browser.Locator
	MinFallbackItems int
	MaxProducts      int
	MaxScrolls       int
	ScrollStep       int
	ContainerWait    time.Duration
	ItemWait         time.Duration
}

func DefaultExtractConfig() ExtractConfig {
	return ExtractConfig{
		Container:        browser.CSS("#main-results"),
		Items:            browser.CSS("li.sku-item"),
		FallbackItems:    browser.XPath(DefaultFallbackItems),
		MinFallbackItems: 3,
		MaxProducts:      20,
		MaxScrolls:       8,
		ScrollStep:       800,
		ContainerWait:    15 * time.Second,
		ItemWait:         5 * time.Second,
	}
}

// Extractor turns the results page currently loaded in the session into
// product records.
type Extractor struct {
	page   Page
	parser parser.Parser
	cfg    ExtractConfig
	pacer  pacing.Pacer
	sched  pacing.Schedule
	logger *slog.Logger
}

func NewExtractor(page Page, p parser.Parser, cfg ExtractConfig, pacer pacing.Pacer, sched pacing.Schedule, logger *slog.Logger) *Extractor {
	if cfg.MaxProducts <= 0 {
		cfg.MaxProducts = 20
	}
	if cfg.MinFallbackItems <= 0 {
		cfg.MinFallbackItems = 3
	}
	if pacer == nil {
		pacer = pacing.Steady{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		page:   page,
		parser: p,
		cfg:    cfg,
		pacer:  pacer,
		sched:  sched,
		logger: logger.With("component", "extractor"),
	}
}

// Extract returns the usable records on the current page. An empty result
// means nothing could be extracted; it is never an error.
func (e *Extractor) Extract() []models.ProductRecord {
	container := e.page.WaitFor(e.cfg.Container, e.cfg.ContainerWait)
	items, fallback := e.cfg.Items, e.cfg.FallbackItems
	if container == nil {
		e.logger.Warn("results container not found, searching the whole page", "container", e.cfg.Container.String())
	} else {
		items = browser.Within(e.cfg.Container, items)
		if !fallback.IsZero() {
			fallback = browser.Within(e.cfg.Container, fallback)
		}
	}

	e.triggerLazyLoad(container, items)

	elements := e.enumerate(items, fallback)
	if len(elements) == 0 {
		e.logger.Warn("no product elements found", "url", e.page.CurrentURL())
		return nil
	}
	if len(elements) > e.cfg.MaxProducts {
		elements = elements[:e.cfg.MaxProducts]
	}

	records := make([]models.ProductRecord, 0, len(elements))
	for i, el := range elements {
		record, ok := e.parseOne(len(records)+1, el)
		if !ok {
			e.logger.Debug("discarding product without name or price", "position", i+1)
			continue
		}
		records = append(records, record)
	}

	e.logger.Info("extracted products",
		"elements", len(elements),
		"records", len(records),
		"url", e.page.CurrentURL(),
	)
	return records
}

// triggerLazyLoad scrolls down in steps until enough items are rendered or
// the scroll budget is spent, then returns to the top of the results.
func (e *Extractor) triggerLazyLoad(container browser.Element, items browser.Locator) {
	if container != nil {
		e.page.ScrollIntoView(container)
	}

	scrolled := 0
	for i := 0; i < e.cfg.MaxScrolls; i++ {
		if e.page.Count(items) >= e.cfg.MaxProducts {
			break
		}
		if !e.page.ScrollBy(e.cfg.ScrollStep) {
			break
		}
		scrolled += e.cfg.ScrollStep
		e.pacer.Settle(e.sched.LazyLoadSettle)
	}

	if container != nil {
		e.page.ScrollIntoView(container)
	} else if scrolled > 0 {
		e.page.ScrollBy(-scrolled)
	}
}

// enumerate lists product elements with the primary selector. The generic
// fallback is only trusted when it matches several elements.
func (e *Extractor) enumerate(items, fallback browser.Locator) []browser.Element {
	if els := e.page.WaitForAll(items, e.cfg.ItemWait); len(els) > 0 {
		return els
	}
	if fallback.IsZero() {
		return nil
	}

	els := e.page.WaitForAll(fallback, e.cfg.ItemWait)
	if len(els) < e.cfg.MinFallbackItems {
		e.logger.Debug("fallback matches below threshold", "matches", len(els), "min", e.cfg.MinFallbackItems)
		return nil
	}
	e.logger.Info("using fallback product selector", "matches", len(els))
	return els
}

func (e *Extractor) parseOne(index int, el browser.Element) (record models.ProductRecord, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Warn("product parse panicked", "index", index, "panic", rec)
			ok = false
		}
	}()

	html := el.OuterHTML()
	if html == "" {
		return models.ProductRecord{}, false
	}
	return e.parser.Parse(index, html)
}
