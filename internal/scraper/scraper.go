// Package scraper pulls product listings out of a loaded results page and
// drives the site's category navigation to get there.
package scraper

import (
	"time"

	"github.com/maltedev/laptop-listing-extractor/internal/browser"
	"github.com/maltedev/laptop-listing-extractor/internal/interstitial"
)

// Page is the session surface the extractor and the navigator drive.
type Page interface {
	interstitial.Page
	WaitForAll(loc browser.Locator, timeout time.Duration) []browser.Element
	Click(loc browser.Locator) bool
	TypeText(loc browser.Locator, text string, clear bool) bool
	ScrollIntoView(el browser.Element) bool
}

// Navigator loads a URL and clears whatever blocks it.
type Navigator interface {
	Navigate(url string) interstitial.NavigationResult
	ContentPresent(timeout time.Duration) bool
	Monitor(d time.Duration) int
}

var (
	_ Page      = (*browser.Session)(nil)
	_ Navigator = (*interstitial.Resolver)(nil)
)
