package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maltedev/laptop-listing-extractor/internal/pacing"
	"github.com/playwright-community/playwright-go"
)

// Session owns one persistent browser context and the page driven inside it.
type Session struct {
	pw      *playwright.Playwright
	context playwright.BrowserContext
	page    playwright.Page
	opts    Options
	pacer   pacing.Pacer
	logger  *slog.Logger
	dialogs chan playwright.Dialog
	loading atomic.Bool

	mu     sync.Mutex
	closed bool
}

type Options struct {
	Headless       bool
	InstallDriver  bool
	UserDataDir    string
	UserAgent      string
	WindowWidth    int
	WindowHeight   int
	Locale         string
	ProxyServer    string
	ExtraHeaders   map[string]string
	ExtraArgs      []string
	ScreenshotDir  string
	ImplicitWait   time.Duration
	ExplicitWait   time.Duration
	PageLoad       time.Duration
	ScriptTimeout  time.Duration
	SettleDelay    time.Duration
	ScrollPause    pacing.Range
	FingerprintRNG *rand.Rand
}

func DefaultOptions() *Options {
	return &Options{
		Headless:     true,
		UserDataDir:  filepath.Join(os.TempDir(), "bestbuy_stealth_cache"),
		UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		WindowWidth:  1366,
		WindowHeight: 768,
		Locale:       "en-US",
		ExtraHeaders: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"DNT":             "1",
		},
		ScreenshotDir: "logs",
		ImplicitWait:  8 * time.Second,
		ExplicitWait:  25 * time.Second,
		PageLoad:      45 * time.Second,
		ScriptTimeout: 30 * time.Second,
		SettleDelay:   4 * time.Second,
		ScrollPause:   pacing.Between(50*time.Millisecond, 120*time.Millisecond),
	}
}

func launchArgs(opts *Options, fp Fingerprint) []string {
	args := []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
		"--no-sandbox",
		"--disable-setuid-sandbox",
		"--disable-infobars",
		"--no-first-run",
		"--no-default-browser-check",
		fmt.Sprintf("--window-size=%d,%d", fp.Width, fp.Height),
	}
	return append(args, opts.ExtraArgs...)
}

// Start launches the browser. Any failure is returned as *SessionStartError and
// leaves nothing running.
func Start(opts *Options, pacer pacing.Pacer, logger *slog.Logger) (*Session, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if pacer == nil {
		pacer = pacing.Steady{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "browser")

	if opts.InstallDriver {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, &SessionStartError{Stage: "driver", Err: err}
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, &SessionStartError{Stage: "driver", Err: err}
	}

	rng := opts.FingerprintRNG
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	fp := RandomFingerprint(rng, opts.WindowWidth, opts.WindowHeight, opts.UserAgent)

	ctxOpts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:          playwright.Bool(opts.Headless),
		Args:              launchArgs(opts, fp),
		IgnoreDefaultArgs: []string{"--enable-automation"},
		UserAgent:         playwright.String(opts.UserAgent),
		Locale:            playwright.String(opts.Locale),
		TimezoneId:        playwright.String(fp.Timezone),
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Viewport:          &playwright.Size{Width: fp.Width, Height: fp.Height},
		Screen:            &playwright.Size{Width: fp.Width, Height: fp.Height},
		ExtraHttpHeaders:  opts.ExtraHeaders,
	}
	if opts.ProxyServer != "" {
		ctxOpts.Proxy = &playwright.Proxy{Server: opts.ProxyServer}
	}

	bctx, err := pw.Chromium.LaunchPersistentContext(opts.UserDataDir, ctxOpts)
	if err != nil {
		pw.Stop()
		return nil, &SessionStartError{Stage: "launch", Err: err}
	}

	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(fp.InitScript())}); err != nil {
		bctx.Close()
		pw.Stop()
		return nil, &SessionStartError{Stage: "launch", Err: fmt.Errorf("failed to add init script: %w", err)}
	}
	bctx.SetDefaultTimeout(millis(opts.ImplicitWait))
	bctx.SetDefaultNavigationTimeout(millis(opts.PageLoad))

	var page playwright.Page
	if pages := bctx.Pages(); len(pages) > 0 {
		page = pages[0]
	} else if page, err = bctx.NewPage(); err != nil {
		bctx.Close()
		pw.Stop()
		return nil, &SessionStartError{Stage: "page", Err: err}
	}

	s := &Session{
		pw:      pw,
		context: bctx,
		page:    page,
		opts:    *opts,
		pacer:   pacer,
		logger:  logger,
		dialogs: make(chan playwright.Dialog, 4),
	}
	page.OnDialog(s.queueDialog)

	logger.Info("browser session started",
		"headless", opts.Headless,
		"profile", opts.UserDataDir,
		"viewport", fmt.Sprintf("%dx%d", fp.Width, fp.Height),
		"timezone", fp.Timezone,
	)

	return s, nil
}

// queueDialog holds native dialogs until the resolver dismisses them. A
// dialog raised while a page is loading, or one that finds the queue full, is
// dismissed straight away so Goto never stalls behind it.
func (s *Session) queueDialog(d playwright.Dialog) {
	if s.loading.Load() {
		s.dismiss(d, "loading")
		return
	}
	select {
	case s.dialogs <- d:
		s.logger.Debug("native dialog queued", "type", d.Type(), "message", d.Message())
	default:
		s.dismiss(d, "overflow")
	}
}

func (s *Session) dismiss(d playwright.Dialog, reason string) {
	if err := d.Dismiss(); err != nil {
		s.logger.Debug("failed to dismiss dialog", "reason", reason, "error", err)
		return
	}
	s.logger.Info("native dialog dismissed", "reason", reason, "type", d.Type())
}

// drainDialogs dismisses every queued dialog and returns how many there were.
func (s *Session) drainDialogs() int {
	n := 0
	for {
		select {
		case d := <-s.dialogs:
			s.dismiss(d, "drain")
			n++
		default:
			return n
		}
	}
}

func (s *Session) alive() bool {
	if s == nil || s.page == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Close releases the context and the driver. It is safe to call more than
// once and on a nil session.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	s.logger.Info("browser session closed")
	return errors.Join(errs...)
}

// Navigate loads url and waits for DOM-ready plus the settle delay.
func (s *Session) Navigate(url string) bool {
	if !s.alive() {
		return false
	}

	s.loading.Store(true)
	s.drainDialogs()
	resp, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(millis(s.opts.PageLoad)),
	})
	s.loading.Store(false)
	if err != nil {
		s.logger.Warn("navigation failed", "url", url, "error", err)
		if n := s.drainDialogs(); n > 0 {
			s.logger.Info("dismissed dialogs left by failed navigation", "count", n)
		}
		return false
	}
	if resp != nil && resp.Status() >= 400 {
		s.logger.Warn("navigation returned error status", "url", url, "status", resp.Status())
	}

	s.pacer.Settle(pacing.Fixed(s.opts.SettleDelay))
	return true
}

func (s *Session) CurrentURL() string {
	if !s.alive() {
		return ""
	}
	return s.page.URL()
}

func (s *Session) Title() string {
	if !s.alive() {
		return ""
	}
	title, err := s.page.Title()
	if err != nil {
		return ""
	}
	return title
}

// Screenshot writes <ScreenshotDir>/<name>.png and returns its path, or "" if
// nothing was written.
func (s *Session) Screenshot(name string) string {
	if !s.alive() || s.opts.ScreenshotDir == "" {
		return ""
	}
	if err := os.MkdirAll(s.opts.ScreenshotDir, 0o755); err != nil {
		s.logger.Debug("failed to create screenshot dir", "error", err)
		return ""
	}

	path := filepath.Join(s.opts.ScreenshotDir, sanitizeName(name)+".png")
	if _, err := s.page.Screenshot(playwright.PageScreenshotOptions{Path: &path}); err != nil {
		s.logger.Debug("screenshot failed", "name", name, "error", err)
		return ""
	}
	s.logger.Debug("screenshot saved", "path", path)
	return path
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func millis(d time.Duration) float64 {
	return float64(d.Milliseconds())
}
