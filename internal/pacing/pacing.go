package pacing

import (
	"math/rand"
	"sync"
	"time"
)

// Range is a closed interval of delays. A zero Max means Min is used as is.
type Range struct {
	Min time.Duration
	Max time.Duration
}

func Fixed(d time.Duration) Range {
	return Range{Min: d, Max: d}
}

func Between(min, max time.Duration) Range {
	return Range{Min: min, Max: max}
}

// Pacer spaces out browser interactions. Pause is human mimicry and may be
// skipped. Settle is a functional wait (DOM settle, lazy-load render, poll
// interval) that every live pacer honors.
type Pacer interface {
	Pause(r Range)
	Settle(r Range)
	Keystroke(ch rune)
	Chance(p float64) bool
	Intn(n int) int
}

// Cadence holds the per-character typing delays.
type Cadence struct {
	Space       Range
	Punctuation Range
	Default     Range
	LongPause   Range
	LongPauseP  float64
}

func DefaultCadence() Cadence {
	return Cadence{
		Space:       Between(150*time.Millisecond, 400*time.Millisecond),
		Punctuation: Between(200*time.Millisecond, 500*time.Millisecond),
		Default:     Between(100*time.Millisecond, 300*time.Millisecond),
		LongPause:   Between(500*time.Millisecond, 1500*time.Millisecond),
		LongPauseP:  0.05,
	}
}

// For returns the delay range for typing ch.
func (c Cadence) For(ch rune) Range {
	switch ch {
	case ' ':
		return c.Space
	case '.', ',', '!', '?':
		return c.Punctuation
	default:
		return c.Default
	}
}

// Human sleeps for a jittered duration inside each range.
type Human struct {
	mu      sync.Mutex
	rng     *rand.Rand
	cadence Cadence
	sleep   func(time.Duration)
}

func NewHuman(seed int64, cadence Cadence) *Human {
	return &Human{
		rng:     rand.New(rand.NewSource(seed)),
		cadence: cadence,
		sleep:   time.Sleep,
	}
}

func (h *Human) Pause(r Range) {
	if d := h.pick(r); d > 0 {
		h.sleep(d)
	}
}

func (h *Human) Settle(r Range) {
	h.Pause(r)
}

func (h *Human) Keystroke(ch rune) {
	h.Pause(h.cadence.For(ch))
	if h.Chance(h.cadence.LongPauseP) {
		h.Pause(h.cadence.LongPause)
	}
}

func (h *Human) Chance(p float64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rng.Float64() < p
}

func (h *Human) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rng.Intn(n)
}

func (h *Human) pick(r Range) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delta := r.Max - r.Min
	return r.Min + time.Duration(h.rng.Int63n(int64(delta)))
}

// Steady drops the human pauses but still sleeps for every settle wait.
// It is what a live run uses when pacing is switched off.
type Steady struct {
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

func (s Steady) Pause(Range)         {}
func (s Steady) Keystroke(rune)      {}
func (s Steady) Chance(float64) bool { return false }
func (s Steady) Intn(int) int        { return 0 }

// Settle sleeps for the lower bound of r.
func (s Steady) Settle(r Range) {
	if r.Min <= 0 {
		return
	}
	if s.Sleep != nil {
		s.Sleep(r.Min)
		return
	}
	time.Sleep(r.Min)
}

// None never sleeps, not even to settle. Used in tests only.
type None struct{}

func (None) Pause(Range)         {}
func (None) Settle(Range)        {}
func (None) Keystroke(rune)      {}
func (None) Chance(float64) bool { return false }
func (None) Intn(int) int        { return 0 }
