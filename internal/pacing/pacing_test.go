package pacing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHumanPauseStaysInRange(t *testing.T) {
	var slept []time.Duration
	h := NewHuman(42, DefaultCadence())
	h.sleep = func(d time.Duration) { slept = append(slept, d) }

	r := Between(100*time.Millisecond, 200*time.Millisecond)
	for i := 0; i < 50; i++ {
		h.Pause(r)
	}

	assert.Len(t, slept, 50)
	for _, d := range slept {
		assert.GreaterOrEqual(t, d, r.Min)
		assert.Less(t, d, r.Max)
	}
}

func TestHumanPauseFixedRange(t *testing.T) {
	var slept []time.Duration
	h := NewHuman(1, DefaultCadence())
	h.sleep = func(d time.Duration) { slept = append(slept, d) }

	h.Pause(Fixed(3 * time.Second))
	h.Pause(Range{})

	assert.Equal(t, []time.Duration{3 * time.Second}, slept)
}

func TestCadenceFor(t *testing.T) {
	c := DefaultCadence()

	tests := []struct {
		name     string
		ch       rune
		expected Range
	}{
		{"space", ' ', c.Space},
		{"period", '.', c.Punctuation},
		{"comma", ',', c.Punctuation},
		{"bang", '!', c.Punctuation},
		{"question", '?', c.Punctuation},
		{"letter", 'a', c.Default},
		{"digit", '7', c.Default},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.For(tt.ch))
		})
	}
}

func TestHumanKeystrokeLongPause(t *testing.T) {
	var slept []time.Duration
	c := DefaultCadence()
	c.LongPauseP = 1
	h := NewHuman(7, c)
	h.sleep = func(d time.Duration) { slept = append(slept, d) }

	h.Keystroke(' ')

	assert.Len(t, slept, 2)
	assert.GreaterOrEqual(t, slept[1], c.LongPause.Min)
}

func TestHumanSettleSleeps(t *testing.T) {
	var slept []time.Duration
	h := NewHuman(5, DefaultCadence())
	h.sleep = func(d time.Duration) { slept = append(slept, d) }

	h.Settle(Fixed(1500 * time.Millisecond))

	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, slept)
}

func TestSteadySkipsPausesButSettles(t *testing.T) {
	var slept []time.Duration
	var p Pacer = Steady{Sleep: func(d time.Duration) { slept = append(slept, d) }}

	p.Pause(Between(2*time.Second, 5*time.Second))
	p.Keystroke('a')
	p.Settle(Fixed(4 * time.Second))
	p.Settle(Between(time.Second, 3*time.Second))
	p.Settle(Range{})

	assert.Equal(t, []time.Duration{4 * time.Second, time.Second}, slept)
	assert.False(t, p.Chance(1))
	assert.Equal(t, 0, p.Intn(10))
}

func TestNoneIsInert(t *testing.T) {
	var p Pacer = None{}
	p.Pause(Fixed(time.Hour))
	p.Settle(Fixed(time.Hour))
	p.Keystroke('x')
	assert.False(t, p.Chance(1))
	assert.Equal(t, 0, p.Intn(10))
}

func TestHumanIntnBounds(t *testing.T) {
	h := NewHuman(3, DefaultCadence())
	assert.Equal(t, 0, h.Intn(0))
	for i := 0; i < 20; i++ {
		n := h.Intn(5)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 5)
	}
}
