package browser

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/go-rod/stealth"
)

const (
	maxScreenWidth  = 1920
	maxScreenHeight = 1080
)

var fingerprintTimezones = []string{
	"America/New_York",
	"America/Chicago",
	"America/Denver",
	"America/Los_Angeles",
}

// Fingerprint is the randomized identity presented to the site.
type Fingerprint struct {
	Width               int
	Height              int
	Timezone            string
	Platform            string
	HardwareConcurrency int
	Languages           []string
	Plugins             int
}

// RandomFingerprint picks a plausible desktop identity. Dimensions are drawn
// between the minimum window size and 1920x1080.
func RandomFingerprint(rng *rand.Rand, minWidth, minHeight int, userAgent string) Fingerprint {
	return Fingerprint{
		Width:               between(rng, minWidth, maxScreenWidth),
		Height:              between(rng, minHeight, maxScreenHeight),
		Timezone:            fingerprintTimezones[rng.Intn(len(fingerprintTimezones))],
		Platform:            platformFor(userAgent),
		HardwareConcurrency: []int{4, 8, 12, 16}[rng.Intn(4)],
		Languages:           []string{"en-US", "en"},
		Plugins:             3 + rng.Intn(3),
	}
}

func between(rng *rand.Rand, lo, hi int) int {
	if lo >= hi {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

func platformFor(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Macintosh"):
		return "MacIntel"
	case strings.Contains(userAgent, "Windows"):
		return "Win32"
	default:
		return "Linux x86_64"
	}
}

// InitScript is injected into every document before page scripts run.
func (f Fingerprint) InitScript() string {
	langs := make([]string, len(f.Languages))
	for i, l := range f.Languages {
		langs[i] = fmt.Sprintf("%q", l)
	}

	overrides := fmt.Sprintf(`
(() => {
  const define = (obj, key, value) => {
    try { Object.defineProperty(obj, key, { get: () => value, configurable: true }); } catch (e) {}
  };
  define(Navigator.prototype, 'webdriver', undefined);
  define(Navigator.prototype, 'platform', %q);
  define(Navigator.prototype, 'hardwareConcurrency', %d);
  define(Navigator.prototype, 'languages', [%s]);
  define(Navigator.prototype, 'plugins', Array.from({ length: %d }, (_, i) => ({ name: 'Plugin ' + i })));
  define(screen, 'width', %d);
  define(screen, 'height', %d);
  define(screen, 'availWidth', %d);
  define(screen, 'availHeight', %d);
  if (!window.chrome) { window.chrome = { runtime: {} }; }
  const query = window.navigator.permissions && window.navigator.permissions.query;
  if (query) {
    window.navigator.permissions.query = (p) =>
      p && p.name === 'notifications'
        ? Promise.resolve({ state: Notification.permission })
        : query.call(window.navigator.permissions, p);
  }
})();
`, f.Platform, f.HardwareConcurrency, strings.Join(langs, ", "), f.Plugins,
		f.Width, f.Height, f.Width, f.Height)

	return stealth.JS + "\n" + overrides
}
