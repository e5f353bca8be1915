package scraper

import (
	"net/url"
	"strings"
	"testing"

	"github.com/maltedev/laptop-listing-extractor/internal/browser"
	"github.com/maltedev/laptop-listing-extractor/internal/browser/browsertest"
	"github.com/maltedev/laptop-listing-extractor/internal/interstitial"
	"github.com/maltedev/laptop-listing-extractor/internal/models"
	"github.com/maltedev/laptop-listing-extractor/internal/pacing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var listing = browser.CSS("#main-results")

func testCategoryConfig() CategoryConfig {
	cfg := DefaultCategoryConfig()
	cfg.ContentWait = 0
	cfg.MonitorAfter = 0
	return cfg
}

func newNavigator(page *browsertest.Page, cfg CategoryConfig) *CategoryNavigator {
	resolver := interstitial.NewResolver(page, interstitial.Config{Content: listing}, nil, pacing.None{}, pacing.DefaultSchedule(), nil)
	return NewCategoryNavigator(page, resolver, cfg, pacing.None{}, pacing.DefaultSchedule(), nil)
}

// listingsDOM is what the page shows once a route lands on the results.
func listingsDOM() *browsertest.DOM {
	return browsertest.NewDOM().Set(listing, &browsertest.Element{TextValue: "results"})
}

func TestBrowseDirectURL(t *testing.T) {
	cfg := testCategoryConfig()
	page := browsertest.NewPage()
	page.Route(cfg.CategoryURL).Set(listing, &browsertest.Element{})

	assert.True(t, newNavigator(page, cfg).Browse())
	assert.Equal(t, []string{cfg.CategoryURL}, page.Navigations)
}

func TestBrowseFallsBackToMenu(t *testing.T) {
	cfg := testCategoryConfig()
	page := browsertest.NewPage()
	// The category URL lands on a page without listings; the menu is part of
	// the site header there.
	landing := page.Route(cfg.CategoryURL)
	landing.FinalURL = cfg.BaseURL + "/site/computers-pcs/laptops/abcat0502000.c"
	for i, loc := range cfg.MenuPath {
		el := &browsertest.Element{TextValue: loc.String()}
		if i == len(cfg.MenuPath)-1 {
			el.OnClick = func() {
				page.DOM = listingsDOM()
				page.URL = cfg.BaseURL + "/site/laptops/pcmcat138500050001.c"
			}
		}
		landing.Set(loc, el)
	}

	assert.True(t, newNavigator(page, cfg).Browse())
	assert.Equal(t, []string{cfg.CategoryURL}, page.Navigations, "already on the site, no home navigation")
	assert.Len(t, page.Clicks, len(cfg.MenuPath))
}

func TestBrowseFallsBackToSearch(t *testing.T) {
	cfg := testCategoryConfig()
	page := browsertest.NewPage()
	page.Route(cfg.BaseURL).Set(cfg.SearchBox, &browsertest.Element{})
	page.Route(cfg.BaseURL).Set(cfg.SearchSubmit, &browsertest.Element{TextValue: "search", OnClick: func() {
		page.DOM = listingsDOM()
	}})

	assert.True(t, newNavigator(page, cfg).Browse())
	assert.Equal(t, "laptops", page.Typed[cfg.SearchBox.Selector()])
	assert.Equal(t, []string{cfg.CategoryURL, cfg.BaseURL}, page.Navigations)
}

func TestBrowseSearchSubmitsWithEnter(t *testing.T) {
	cfg := testCategoryConfig()
	page := browsertest.NewPage()
	page.Route(cfg.BaseURL).Set(cfg.SearchBox, &browsertest.Element{})
	page.OnKey = func(p *browsertest.Page, key string) {
		if key == "Enter" {
			p.DOM = listingsDOM()
		}
	}

	assert.True(t, newNavigator(page, cfg).Browse())
	assert.Equal(t, []string{"Enter"}, page.Keys)
}

func TestBrowseAllRoutesFail(t *testing.T) {
	cfg := testCategoryConfig()
	page := browsertest.NewPage()
	page.Route(cfg.BaseURL)

	assert.False(t, newNavigator(page, cfg).Browse())
}

func TestApplyFiltersClicksFacets(t *testing.T) {
	cfg := testCategoryConfig()
	page := browsertest.NewPage()
	dom := page.Route(resultsURL).Set(listing, &browsertest.Element{})
	for _, label := range []string{"Dell", "HP"} {
		dom.Set(browser.ParseLocator(strings.ReplaceAll(cfg.BrandFacet, "{brand}", label)), &browsertest.Element{TextValue: label})
	}
	require.True(t, page.Navigate(resultsURL))

	ok := newNavigator(page, cfg).ApplyFilters(models.FilterSpec{Brands: []string{"Dell", "HP", "Razer"}, MinRating: 4})

	assert.True(t, ok)
	assert.Equal(t, []string{"Dell", "HP"}, brandClicks(page.Clicks))
	assert.Equal(t, []string{resultsURL}, page.Navigations)
}

func TestApplyFiltersFallsBackToFilteredURL(t *testing.T) {
	cfg := testCategoryConfig()
	spec := models.FilterSpec{MinPrice: 500, MaxPrice: 1500, Brands: []string{"Dell"}, MinRating: 4}
	filtered := BuildFilteredURL(cfg.BaseURL, spec)

	page := browsertest.NewPage()
	page.Route(resultsURL)
	page.Route(filtered).Set(listing, &browsertest.Element{})
	require.True(t, page.Navigate(resultsURL))

	assert.True(t, newNavigator(page, cfg).ApplyFilters(spec))
	assert.Equal(t, []string{resultsURL, filtered}, page.Navigations)
}

func TestBuildFilteredURL(t *testing.T) {
	raw := BuildFilteredURL("https://www.bestbuy.com/", models.FilterSpec{
		MinPrice:  500,
		MaxPrice:  1500,
		Brands:    []string{"Dell", "Lenovo", "HP"},
		MinRating: 4,
	})

	assert.True(t, strings.HasPrefix(raw, "https://www.bestbuy.com/site/searchpage.jsp?"))

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "pcmcat138500050001", q.Get("browsedCategory"))
	assert.Equal(t, "pcat17071", q.Get("id"))
	assert.Equal(t, "categoryid$pcmcat138500050001", q.Get("st"))
	assert.Equal(t,
		"currentprice_facet=Price~500 to 1500^brand_facet=Brand~Dell^brand_facet=Brand~Lenovo^brand_facet=Brand~HP^customerreviews_facet=Customer Rating~4 & Up",
		q.Get("qp"))
}

func TestBuildFilteredURLWithoutFacets(t *testing.T) {
	u, err := url.Parse(BuildFilteredURL("https://www.bestbuy.com", models.FilterSpec{}))
	require.NoError(t, err)

	_, hasQP := u.Query()["qp"]
	assert.False(t, hasQP)
	assert.Equal(t, "/site/searchpage.jsp", u.Path)
}

func TestBuildFilteredURLFractionalRating(t *testing.T) {
	u, err := url.Parse(BuildFilteredURL("https://www.bestbuy.com", models.FilterSpec{MinRating: 3.5}))
	require.NoError(t, err)
	assert.Equal(t, "customerreviews_facet=Customer Rating~3.5 & Up", u.Query().Get("qp"))
}

func brandClicks(clicks []string) []string {
	var out []string
	for _, c := range clicks {
		if strings.Contains(c, "Dell") {
			out = append(out, "Dell")
		} else if strings.Contains(c, "'HP'") {
			out = append(out, "HP")
		}
	}
	return out
}
