package browser

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// WaitFor waits until loc is visible. It returns nil on timeout.
func (s *Session) WaitFor(loc Locator, timeout time.Duration) Element {
	if !s.alive() || loc.IsZero() {
		return nil
	}
	if timeout <= 0 {
		timeout = s.opts.ExplicitWait
	}

	first := s.page.Locator(loc.Selector()).First()
	err := first.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(millis(timeout)),
	})
	if err != nil {
		return nil
	}
	return s.wrap(first)
}

// WaitForAll waits for the first match of loc, then returns every match.
// It returns an empty slice on timeout.
func (s *Session) WaitForAll(loc Locator, timeout time.Duration) []Element {
	if s.WaitFor(loc, timeout) == nil {
		return []Element{}
	}

	all, err := s.page.Locator(loc.Selector()).All()
	if err != nil {
		return []Element{}
	}
	elements := make([]Element, 0, len(all))
	for _, l := range all {
		elements = append(elements, s.wrap(l))
	}
	return elements
}

// Count reports the current number of matches without waiting.
func (s *Session) Count(loc Locator) int {
	if !s.alive() || loc.IsZero() {
		return 0
	}
	n, err := s.page.Locator(loc.Selector()).Count()
	if err != nil {
		return 0
	}
	return n
}

func (s *Session) wrap(l playwright.Locator) Element {
	return &element{loc: l, timeout: millis(s.opts.ScriptTimeout)}
}

// Click resolves loc within the implicit wait and clicks it.
func (s *Session) Click(loc Locator) bool {
	el := s.WaitFor(loc, s.opts.ImplicitWait)
	if el == nil {
		return false
	}
	return s.ClickElement(el)
}

// ClickElement scrolls el into view in small steps, tries a native click and
// falls back to a DOM click when the native one is intercepted.
func (s *Session) ClickElement(el Element) bool {
	e, ok := el.(*element)
	if !ok || e == nil || !s.alive() {
		return false
	}

	s.smoothScrollTo(e)

	err := e.loc.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(millis(s.opts.ImplicitWait)),
	})
	if err == nil {
		return true
	}
	if !intercepted(err) {
		s.logger.Debug("native click failed", "error", err)
		return false
	}

	s.logger.Debug("click intercepted, dispatching DOM click")
	_, err = e.loc.Evaluate("el => el.click()", nil, playwright.LocatorEvaluateOptions{
		Timeout: playwright.Float(millis(s.opts.ScriptTimeout)),
	})
	if err != nil {
		s.logger.Debug("DOM click failed", "error", err)
		return false
	}
	return true
}

func intercepted(err error) bool {
	return errors.Is(err, playwright.ErrTimeout) ||
		strings.Contains(err.Error(), "intercepts pointer events") ||
		strings.Contains(err.Error(), "not receive pointer events")
}

// smoothScrollTo wheels toward the element in 5 to 10 steps when it is more
// than 100px from the middle of the viewport.
func (s *Session) smoothScrollTo(e *element) {
	box, err := e.loc.BoundingBox()
	if err != nil || box == nil {
		return
	}

	viewportHeight := float64(s.opts.WindowHeight)
	if size := s.page.ViewportSize(); size != nil {
		viewportHeight = float64(size.Height)
	}

	distance := box.Y + box.Height/2 - viewportHeight/2
	if math.Abs(distance) > 100 {
		steps := 5 + s.pacer.Intn(6)
		step := distance / float64(steps)
		for i := 0; i < steps; i++ {
			if err := s.page.Mouse().Wheel(0, step); err != nil {
				break
			}
			s.pacer.Pause(s.opts.ScrollPause)
		}
	}

	if err := e.loc.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{
		Timeout: playwright.Float(millis(s.opts.ImplicitWait)),
	}); err != nil {
		s.logger.Debug("scroll into view failed", "error", err)
	}
}

// TypeText focuses the field, optionally clears it, and types text one
// character at a time at the pacer's cadence.
func (s *Session) TypeText(loc Locator, text string, clear bool) bool {
	el := s.WaitFor(loc, s.opts.ImplicitWait)
	if el == nil {
		return false
	}
	e := el.(*element)

	if !s.ClickElement(e) {
		if err := e.loc.Focus(); err != nil {
			return false
		}
	}
	if clear {
		if err := e.loc.Fill(""); err != nil {
			s.logger.Debug("failed to clear field", "error", err)
		}
	}

	keyboard := s.page.Keyboard()
	for _, ch := range text {
		if err := keyboard.Type(string(ch)); err != nil {
			s.logger.Debug("typing interrupted", "error", err)
			return false
		}
		s.pacer.Keystroke(ch)
	}
	return true
}

// PressKey sends key to the document body.
func (s *Session) PressKey(key string) bool {
	if !s.alive() {
		return false
	}
	err := s.page.Locator("body").Press(key, playwright.LocatorPressOptions{
		Timeout: playwright.Float(millis(s.opts.ImplicitWait)),
	})
	return err == nil
}

func (s *Session) ScrollBy(dy int) bool {
	if !s.alive() {
		return false
	}
	_, err := s.page.Evaluate("dy => window.scrollBy(0, dy)", dy)
	return err == nil
}

func (s *Session) ScrollIntoView(el Element) bool {
	e, ok := el.(*element)
	if !ok || e == nil || !s.alive() {
		return false
	}
	_, err := e.loc.Evaluate("el => el.scrollIntoView({block: 'start'})", nil, playwright.LocatorEvaluateOptions{
		Timeout: playwright.Float(millis(s.opts.ScriptTimeout)),
	})
	return err == nil
}

// DismissDialog dismisses one queued native alert or confirm.
func (s *Session) DismissDialog() bool {
	if !s.alive() {
		return false
	}
	select {
	case d := <-s.dialogs:
		if err := d.Dismiss(); err != nil {
			s.logger.Debug("failed to dismiss dialog", "error", err)
			return false
		}
		s.logger.Info("native dialog dismissed", "type", d.Type())
		return true
	default:
		return false
	}
}
