package config

import (
	"math/rand"
	"time"

	"github.com/maltedev/laptop-listing-extractor/internal/browser"
	"github.com/maltedev/laptop-listing-extractor/internal/interstitial"
	"github.com/maltedev/laptop-listing-extractor/internal/pacing"
	"github.com/maltedev/laptop-listing-extractor/internal/parser"
	"github.com/maltedev/laptop-listing-extractor/internal/scraper"
)

func (c *Config) BrowserOptions() *browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = c.Browser.Headless
	opts.InstallDriver = c.Browser.InstallDriver
	opts.UserDataDir = c.Browser.UserDataDir
	opts.UserAgent = c.Browser.UserAgent
	opts.WindowWidth = c.Browser.WindowWidth
	opts.WindowHeight = c.Browser.WindowHeight
	opts.Locale = c.Browser.Locale
	opts.ProxyServer = c.Browser.Proxy
	opts.ExtraArgs = c.Browser.ExtraArgs
	opts.ScreenshotDir = c.Browser.ScreenshotDir
	opts.ImplicitWait = c.Waits.Implicit
	opts.ExplicitWait = c.Waits.Explicit
	opts.PageLoad = c.Waits.PageLoad
	opts.ScriptTimeout = c.Waits.Script
	opts.SettleDelay = c.Waits.Settle
	if c.Pacing.Seed != 0 {
		opts.FingerprintRNG = rand.New(rand.NewSource(c.Pacing.Seed))
	}
	return opts
}

// Pacer returns the human pacing policy. With pacing off the human pauses
// go away but settle waits remain.
func (c *Config) Pacer() pacing.Pacer {
	if !c.Pacing.Enabled {
		return pacing.Steady{}
	}
	seed := c.Pacing.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return pacing.NewHuman(seed, pacing.DefaultCadence())
}

func (c *Config) Schedule() pacing.Schedule {
	s := pacing.DefaultSchedule()
	s.Action = pacing.Between(c.Pacing.ActionMin, c.Pacing.ActionMax)
	s.PageSettle = pacing.Fixed(c.Waits.Settle)
	s.LazyLoadSettle = pacing.Fixed(c.Pacing.LazyLoad)
	s.MonitorEvery = pacing.Fixed(c.Pacing.MonitorEvery)
	return s
}

func (c *Config) ResolverConfig() interstitial.Config {
	return interstitial.Config{
		Content:      browser.ParseLocator(c.Site.Selectors.Container),
		Landmarks:    browser.ParseLocators(c.Site.Selectors.Landmarks),
		ContentProbe: c.Waits.ContentProbe,
		Scan:         c.Pacing.Enabled && c.Pacing.Scan,
	}
}

func (c *Config) InterstitialLocators() interstitial.Locators {
	l := interstitial.Locators{
		CloseButtons: browser.ParseLocators(c.Site.Selectors.CloseButtons),
		Overlays:     browser.ParseLocators(c.Site.Selectors.Overlays),
		Probe:        c.Waits.PopupProbe,
	}
	if c.Site.Selectors.Country != "" {
		l.Country = browser.ParseLocator(c.Site.Selectors.Country)
	}
	return l
}

func (c *Config) ExtractorConfig() scraper.ExtractConfig {
	cfg := scraper.ExtractConfig{
		Container:        browser.ParseLocator(c.Site.Selectors.Container),
		Items:            browser.ParseLocator(c.Site.Selectors.Items),
		MinFallbackItems: c.Extract.MinFallbackItems,
		MaxProducts:      c.Extract.MaxProducts,
		MaxScrolls:       c.Extract.MaxScrolls,
		ScrollStep:       c.Extract.ScrollStep,
		ContainerWait:    c.Extract.ContainerWait,
		ItemWait:         c.Waits.ContentProbe,
	}
	if c.Site.Selectors.FallbackItems != "" {
		cfg.FallbackItems = browser.ParseLocator(c.Site.Selectors.FallbackItems)
	}
	return cfg
}

func (c *Config) CategoryConfig() scraper.CategoryConfig {
	cfg := scraper.CategoryConfig{
		BaseURL:      c.Site.BaseURL,
		CategoryURL:  c.Site.CategoryURL,
		MenuPath:     browser.ParseLocators(c.Site.Selectors.MenuPath),
		SearchTerm:   c.Site.SearchTerm,
		BrandFacet:   c.Site.Selectors.BrandFacet,
		RatingFacet:  c.Site.Selectors.RatingFacet,
		ContentWait:  c.Waits.ContentProbe,
		MonitorAfter: c.Extract.MonitorAfter,
	}
	if c.Site.Selectors.SearchBox != "" {
		cfg.SearchBox = browser.ParseLocator(c.Site.Selectors.SearchBox)
	}
	if c.Site.Selectors.SearchSubmit != "" {
		cfg.SearchSubmit = browser.ParseLocator(c.Site.Selectors.SearchSubmit)
	}
	return cfg
}

func (c *Config) ReviewConfig() scraper.ReviewConfig {
	cfg := scraper.DefaultReviewConfig()
	cfg.Products = c.Reviews.Products
	cfg.PerProduct = c.Reviews.PerProduct
	if c.Site.Selectors.Review.Item != "" {
		cfg.Items = browser.ParseLocator(c.Site.Selectors.Review.Item)
	}
	cfg.Wait = c.Waits.ContentProbe
	return cfg
}

func (c *Config) CardParser() (*parser.BestBuyParser, error) {
	return parser.NewBestBuyParser(c.Site.Selectors.Card, c.Site.BaseURL, c.Site.Brands)
}

func (c *Config) ReviewParser() *parser.ReviewParser {
	return parser.NewReviewParser(c.Site.Selectors.Review)
}
