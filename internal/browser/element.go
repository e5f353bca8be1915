package browser

import (
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Element is a located node. Reads never fail: a missing value comes back empty.
type Element interface {
	Text() string
	Attribute(name string) (string, bool)
	OuterHTML() string
}

type element struct {
	loc     playwright.Locator
	timeout float64
}

func (e *element) Text() string {
	text, err := e.loc.TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(e.timeout),
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (e *element) Attribute(name string) (string, bool) {
	value, err := e.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(e.timeout),
	})
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}

func (e *element) OuterHTML() string {
	result, err := e.loc.Evaluate("el => el.outerHTML", nil, playwright.LocatorEvaluateOptions{
		Timeout: playwright.Float(e.timeout),
	})
	if err != nil {
		return ""
	}
	html, _ := result.(string)
	return html
}
