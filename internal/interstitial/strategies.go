package interstitial

import (
	"time"

	"github.com/maltedev/laptop-listing-extractor/internal/browser"
	"github.com/maltedev/laptop-listing-extractor/internal/pacing"
)

// DefaultCloseButtons is the ordered close-control list: CSS first, then
// XPath text matches.
var DefaultCloseButtons = []string{
	`button[aria-label*="close"]`,
	`button[aria-label*="Close"]`,
	`[data-testid*="close"]`,
	`[data-testid*="Close"]`,
	`.close-button`,
	`.modal-close`,
	`.popup-close`,
	`[data-testid="modal-close-button"]`,
	`[aria-label="Close modal"]`,
	`[aria-label="Close dialog"]`,
	`button[title*="close"]`,
	`button[title*="Close"]`,
	`.fa-times`,
	`.fa-close`,
	`[data-track="modal_close"]`,
	`.c-close-icon`,
	`xpath=//button[normalize-space(.)='×']`,
	`xpath=//button[contains(normalize-space(.), 'Cancel')]`,
	`xpath=//button[contains(normalize-space(.), 'Skip')]`,
	`xpath=//button[contains(normalize-space(.), 'No thanks')]`,
	`xpath=//button[contains(normalize-space(.), 'Maybe later')]`,
	`xpath=//button[contains(normalize-space(.), 'Not now')]`,
	`xpath=//button[.//span[contains(@class, 'sr-only') and normalize-space(.)='Close']]`,
}

var DefaultOverlays = []string{
	`.modal-overlay`,
	`.popup-overlay`,
	`.backdrop`,
	`.modal-backdrop`,
	`[role="dialog"]`,
	`[aria-modal="true"]`,
}

var DefaultLandmarks = []string{
	`.sr-header`,
	`[data-automation-id='header']`,
	`.header-wrapper`,
	`nav`,
	`header`,
}

// probe returns the visible match for loc. The instant count check keeps
// absent selectors from costing a full wait each.
func probe(p Page, loc browser.Locator, timeout time.Duration) browser.Element {
	if p.Count(loc) == 0 {
		return nil
	}
	return p.WaitFor(loc, timeout)
}

// NativeDialog dismisses a pending alert or confirm. It never accepts.
func NativeDialog() Strategy {
	return Strategy{
		Name: "native_dialog",
		Try: func(p Page) (string, bool) {
			if p.DismissDialog() {
				return "dialog", true
			}
			return "", false
		},
	}
}

// CountrySelect clicks the country choice on the region interstitial and
// waits for the redirect to settle.
func CountrySelect(loc browser.Locator, timeout time.Duration, pacer pacing.Pacer, settle pacing.Range) Strategy {
	return Strategy{
		Name: "country_select",
		Try: func(p Page) (string, bool) {
			el := probe(p, loc, timeout)
			if el == nil || !p.ClickElement(el) {
				return "", false
			}
			pacer.Settle(settle)
			return loc.String(), true
		},
	}
}

// CloseButtons clicks the first visible close control. Later selectors are
// not probed once one works.
func CloseButtons(locs []browser.Locator, timeout time.Duration, pacer pacing.Pacer, settle pacing.Range) Strategy {
	return Strategy{
		Name: "close_button",
		Try: func(p Page) (string, bool) {
			for _, loc := range locs {
				el := probe(p, loc, timeout)
				if el == nil {
					continue
				}
				if p.ClickElement(el) {
					pacer.Settle(settle)
					return loc.String(), true
				}
			}
			return "", false
		},
	}
}

// OverlayBackdrop handles a modal with no matching close control: click the
// backdrop, and if that fails send Escape to the page.
func OverlayBackdrop(overlays []browser.Locator, timeout time.Duration, pacer pacing.Pacer, settle pacing.Range) Strategy {
	return Strategy{
		Name: "overlay",
		Try: func(p Page) (string, bool) {
			for _, loc := range overlays {
				el := probe(p, loc, timeout)
				if el == nil {
					continue
				}
				if p.ClickElement(el) {
					pacer.Settle(settle)
					return loc.String(), true
				}
				if p.PressKey("Escape") {
					pacer.Settle(settle)
					return "Escape", true
				}
			}
			return "", false
		},
	}
}

// Locators groups the selectors DefaultStrategies works from.
type Locators struct {
	Country      browser.Locator
	CloseButtons []browser.Locator
	Overlays     []browser.Locator
	Probe        time.Duration
}

// DefaultStrategies orders the checks: a native dialog blocks everything else,
// so it goes first.
func DefaultStrategies(l Locators, pacer pacing.Pacer, sched pacing.Schedule) []Strategy {
	strategies := []Strategy{NativeDialog()}
	if !l.Country.IsZero() {
		strategies = append(strategies, CountrySelect(l.Country, l.Probe, pacer, sched.CountrySettle))
	}
	return append(strategies,
		CloseButtons(l.CloseButtons, l.Probe, pacer, sched.PopupSettle),
		OverlayBackdrop(l.Overlays, l.Probe, pacer, sched.PopupSettle),
	)
}
