package scraper

import (
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maltedev/laptop-listing-extractor/internal/browser"
	"github.com/maltedev/laptop-listing-extractor/internal/cascade"
	"github.com/maltedev/laptop-listing-extractor/internal/models"
	"github.com/maltedev/laptop-listing-extractor/internal/pacing"
)

const (
	laptopCategoryID = "pcmcat138500050001"
	computersPCatID  = "pcat17071"
)

// CategoryConfig describes how to reach the laptop listings from the home
// page. BrandFacet and RatingFacet are locator templates; "{brand}" and
// "{rating}" are substituted before use.
type CategoryConfig struct {
	BaseURL      string
	CategoryURL  string
	MenuPath     []browser.Locator
	SearchBox    browser.Locator
	SearchSubmit browser.Locator
	SearchTerm   string
	BrandFacet   string
	RatingFacet  string
	ContentWait  time.Duration
	MonitorAfter time.Duration
}

func DefaultCategoryConfig() CategoryConfig {
	return CategoryConfig{
		BaseURL:     "https://www.bestbuy.com",
		CategoryURL: "https://www.bestbuy.com/site/computers-pcs/laptops/abcat0502000.c?id=abcat0502000",
		MenuPath: []browser.Locator{
			browser.CSS("button.hamburger-menu-button"),
			browser.XPath(`//button[contains(normalize-space(.), 'Computers & Tablets')]`),
			browser.XPath(`//a[contains(normalize-space(.), 'Laptops')]`),
		},
		SearchBox:    browser.CSS(`input[data-testid="search-input"], #gh-search-input`),
		SearchSubmit: browser.CSS(`button[data-testid="search-button"], .header-search-button`),
		SearchTerm:   "laptops",
		BrandFacet:   `xpath=//section[contains(@class, 'facet')]//label[contains(normalize-space(.), '{brand}')]`,
		RatingFacet:  `xpath=//section[contains(@class, 'facet')]//label[contains(normalize-space(.), '{rating} & Up')]`,
		ContentWait:  10 * time.Second,
		MonitorAfter: 5 * time.Second,
	}
}

// CategoryNavigator gets the session onto a laptop results page without
// relying on a known listing URL.
type CategoryNavigator struct {
	page   Page
	nav    Navigator
	cfg    CategoryConfig
	pacer  pacing.Pacer
	sched  pacing.Schedule
	logger *slog.Logger
}

func NewCategoryNavigator(page Page, nav Navigator, cfg CategoryConfig, pacer pacing.Pacer, sched pacing.Schedule, logger *slog.Logger) *CategoryNavigator {
	if pacer == nil {
		pacer = pacing.Steady{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryNavigator{
		page:   page,
		nav:    nav,
		cfg:    cfg,
		pacer:  pacer,
		sched:  sched,
		logger: logger.With("component", "category"),
	}
}

type route = cascade.Step[*CategoryNavigator, string]

// Browse tries the direct category URL, then the menu, then the on-site
// search, and stops at the first that shows listings.
func (c *CategoryNavigator) Browse() bool {
	routes := []route{
		{Name: "direct_url", Try: (*CategoryNavigator).direct},
		{Name: "menu", Try: (*CategoryNavigator).menu},
		{Name: "search", Try: (*CategoryNavigator).search},
	}

	where, name, ok := cascade.First(c, routes...)
	if !ok {
		c.logger.Warn("category navigation failed", "routes", cascade.Names(routes))
		return false
	}
	c.logger.Info("reached category listings", "route", name, "url", where)
	return true
}

func (c *CategoryNavigator) direct() (string, bool) {
	if c.cfg.CategoryURL == "" {
		return "", false
	}
	res := c.nav.Navigate(c.cfg.CategoryURL)
	if !res.Reached {
		return "", false
	}
	return res.FinalURL, c.nav.ContentPresent(c.cfg.ContentWait)
}

func (c *CategoryNavigator) menu() (string, bool) {
	if len(c.cfg.MenuPath) == 0 || !c.home() {
		return "", false
	}
	for _, loc := range c.cfg.MenuPath {
		if !c.page.Click(loc) {
			c.logger.Debug("menu step not clickable", "locator", loc.String())
			return "", false
		}
		c.pacer.Pause(c.sched.Action)
	}
	c.nav.Monitor(c.cfg.MonitorAfter)
	return c.page.CurrentURL(), c.nav.ContentPresent(c.cfg.ContentWait)
}

func (c *CategoryNavigator) search() (string, bool) {
	if c.cfg.SearchTerm == "" || c.cfg.SearchBox.IsZero() || !c.home() {
		return "", false
	}
	if !c.page.TypeText(c.cfg.SearchBox, c.cfg.SearchTerm, true) {
		return "", false
	}
	c.pacer.Pause(c.sched.Action)
	if c.cfg.SearchSubmit.IsZero() || !c.page.Click(c.cfg.SearchSubmit) {
		c.page.PressKey("Enter")
	}
	c.nav.Monitor(c.cfg.MonitorAfter)
	return c.page.CurrentURL(), c.nav.ContentPresent(c.cfg.ContentWait)
}

// home makes sure the session is on the site before using its chrome.
func (c *CategoryNavigator) home() bool {
	if c.cfg.BaseURL == "" || sameHost(c.page.CurrentURL(), c.cfg.BaseURL) {
		return true
	}
	return c.nav.Navigate(c.cfg.BaseURL).Reached
}

// ApplyFilters narrows the current listings through the facet controls. When
// no facet can be used it loads the pre-filtered search URL instead. The
// result only reports whether listings are showing afterwards.
func (c *CategoryNavigator) ApplyFilters(f models.FilterSpec) bool {
	clicked := 0
	for _, brand := range f.Brands {
		if c.clickFacet(c.cfg.BrandFacet, "{brand}", brand) {
			clicked++
		}
	}
	if f.MinRating > 0 && c.clickFacet(c.cfg.RatingFacet, "{rating}", formatRating(f.MinRating)) {
		clicked++
	}

	if clicked > 0 {
		c.nav.Monitor(c.cfg.MonitorAfter)
		if c.nav.ContentPresent(c.cfg.ContentWait) {
			c.logger.Info("filters applied", "facets", clicked)
			return true
		}
	}

	target := BuildFilteredURL(c.cfg.BaseURL, f)
	c.logger.Info("interactive filtering yielded nothing, loading filtered url", "facets", clicked, "url", target)
	res := c.nav.Navigate(target)
	return res.Reached && c.nav.ContentPresent(c.cfg.ContentWait)
}

func (c *CategoryNavigator) clickFacet(tpl, placeholder, value string) bool {
	if tpl == "" || value == "" {
		return false
	}
	loc := browser.ParseLocator(strings.ReplaceAll(tpl, placeholder, value))
	if c.page.Count(loc) == 0 || !c.page.Click(loc) {
		c.logger.Debug("facet not available", "value", value)
		return false
	}
	c.pacer.Pause(c.sched.Action)
	return true
}

// BuildFilteredURL renders the laptop search URL with the facet query the
// site itself produces for f.
func BuildFilteredURL(base string, f models.FilterSpec) string {
	var facets []string
	if f.HasPriceRange() {
		facets = append(facets, "currentprice_facet=Price~"+strconv.Itoa(f.MinPrice)+" to "+strconv.Itoa(f.MaxPrice))
	}
	for _, b := range f.Brands {
		if b = strings.TrimSpace(b); b != "" {
			facets = append(facets, "brand_facet=Brand~"+b)
		}
	}
	if f.MinRating > 0 {
		facets = append(facets, "customerreviews_facet=Customer Rating~"+formatRating(f.MinRating)+" & Up")
	}

	q := url.Values{}
	q.Set("browsedCategory", laptopCategoryID)
	q.Set("id", computersPCatID)
	if len(facets) > 0 {
		q.Set("qp", strings.Join(facets, "^"))
	}
	q.Set("st", "categoryid$"+laptopCategoryID)

	return strings.TrimSuffix(base, "/") + "/site/searchpage.jsp?" + q.Encode()
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func sameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil || ua.Hostname() == "" {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.TrimPrefix(ua.Hostname(), "www.") == strings.TrimPrefix(ub.Hostname(), "www.")
}
