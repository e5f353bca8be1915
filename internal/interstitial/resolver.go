// Package interstitial drives the session to a page and clears anything that
// blocks its content: country prompts, modals, overlays and native dialogs.
package interstitial

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/maltedev/laptop-listing-extractor/internal/browser"
	"github.com/maltedev/laptop-listing-extractor/internal/cascade"
	"github.com/maltedev/laptop-listing-extractor/internal/pacing"
)

// Page is the part of a browser session the resolver drives.
type Page interface {
	Navigate(url string) bool
	CurrentURL() string
	WaitFor(loc browser.Locator, timeout time.Duration) browser.Element
	Count(loc browser.Locator) int
	ClickElement(el browser.Element) bool
	PressKey(key string) bool
	DismissDialog() bool
	ScrollBy(dy int) bool
	Screenshot(name string) string
}

// Strategy tries to dismiss one kind of interstitial and reports what it hit.
type Strategy = cascade.Step[Page, string]

// NavigationResult is the outcome of one Navigate call.
type NavigationResult struct {
	Reached         bool
	FinalURL        string
	Verified        bool
	PopupsDismissed int
}

type Config struct {
	Content      browser.Locator
	Landmarks    []browser.Locator
	ContentProbe time.Duration
	MaxRounds    int
	Scan         bool
}

type Resolver struct {
	page       Page
	cfg        Config
	strategies []Strategy
	pacer      pacing.Pacer
	sched      pacing.Schedule
	logger     *slog.Logger
	now        func() time.Time
}

func NewResolver(page Page, cfg Config, strategies []Strategy, pacer pacing.Pacer, sched pacing.Schedule, logger *slog.Logger) *Resolver {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 2
	}
	if cfg.ContentProbe <= 0 {
		cfg.ContentProbe = 5 * time.Second
	}
	if pacer == nil {
		pacer = pacing.Steady{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		page:       page,
		cfg:        cfg,
		strategies: strategies,
		pacer:      pacer,
		sched:      sched,
		logger:     logger.With("component", "interstitial"),
		now:        time.Now,
	}
}

// WithClock replaces the clock used by Monitor.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Navigate loads target and clears interstitials until content shows.
// Failing to dismiss a popup never turns a reached page into a failure.
func (r *Resolver) Navigate(target string) NavigationResult {
	r.logger.Info("navigating", "url", target)

	if !r.page.Navigate(target) {
		r.logger.Warn("navigation failed", "url", target)
		return NavigationResult{FinalURL: r.page.CurrentURL()}
	}

	res := NavigationResult{Reached: true}
	r.page.Screenshot("post_navigation")
	if r.cfg.Scan {
		r.scan()
	}

	if r.ContentPresent(r.cfg.ContentProbe) {
		r.logger.Debug("content already present, skipping popup handling")
		res.Verified = true
		res.FinalURL = r.page.CurrentURL()
		return res
	}

	r.page.Screenshot("pre_popup")
	res.PopupsDismissed = r.resolveRounds()
	r.page.Screenshot("post_popup")

	res.FinalURL = r.page.CurrentURL()
	res.Verified = r.ContentPresent(r.cfg.ContentProbe) || r.landmarkVerified(target, res.FinalURL)

	r.logger.Info("navigation finished",
		"url", res.FinalURL,
		"verified", res.Verified,
		"popups_dismissed", res.PopupsDismissed,
	)
	return res
}

// ContentPresent reports whether the primary content container is visible.
func (r *Resolver) ContentPresent(timeout time.Duration) bool {
	if r.cfg.Content.IsZero() {
		return false
	}
	return r.page.WaitFor(r.cfg.Content, timeout) != nil
}

// Resolve runs one popup check and returns how many interstitials it cleared.
func (r *Resolver) Resolve() int {
	if _, ok := r.attempt(); ok {
		return 1
	}
	return 0
}

func (r *Resolver) resolveRounds() int {
	dismissed := 0
	for round := 0; round < r.cfg.MaxRounds; round++ {
		if round > 0 && r.ContentPresent(r.cfg.ContentProbe) {
			break
		}
		if _, ok := r.attempt(); !ok {
			break
		}
		dismissed++
	}
	return dismissed
}

// Monitor re-runs the popup check every MonitorEvery until d is spent. The
// waits between checks count against the budget even when the pacer does not
// sleep, so the number of checks is bounded by d / MonitorEvery.
func (r *Resolver) Monitor(d time.Duration) int {
	dismissed := 0
	deadline := r.now().Add(d)
	for spent := time.Duration(0); spent < d && r.now().Before(deadline); {
		if _, ok := r.attempt(); ok {
			dismissed++
		}

		remaining := d - spent
		if left := deadline.Sub(r.now()); left < remaining {
			remaining = left
		}
		if remaining <= 0 {
			break
		}
		wait := r.sched.MonitorEvery.Min
		if wait <= 0 || wait > remaining {
			wait = remaining
		}
		r.pacer.Settle(pacing.Fixed(wait))
		spent += wait
	}

	if dismissed > 0 {
		r.logger.Info("popup monitor dismissed interstitials", "count", dismissed)
	}
	return dismissed
}

// attempt runs the strategies once. A panicking strategy counts as a miss.
func (r *Resolver) attempt() (hit string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("popup strategy panicked", "panic", rec)
			hit, ok = "", false
		}
	}()

	what, name, found := cascade.First(r.page, r.strategies...)
	if found {
		r.logger.Info("interstitial dismissed", "strategy", name, "target", what)
	}
	return what, found
}

// scan imitates a reader: a pause, then a few random downward scrolls.
func (r *Resolver) scan() {
	r.pacer.Pause(r.sched.Scan)
	scrolls := 2 + r.pacer.Intn(3)
	for i := 0; i < scrolls; i++ {
		r.page.ScrollBy(200 + r.pacer.Intn(401))
		r.pacer.Pause(r.sched.ScanScroll)
	}
}

func (r *Resolver) landmarkVerified(requested, final string) bool {
	if !sameSite(requested, final) {
		return false
	}
	for _, loc := range r.cfg.Landmarks {
		if r.page.Count(loc) > 0 {
			return true
		}
	}
	return false
}

func sameSite(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.TrimPrefix(ua.Hostname(), "www.") == strings.TrimPrefix(ub.Hostname(), "www.")
}
