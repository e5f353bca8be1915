// Package browsertest provides an in-memory page that stands in for a live
// browser session in tests.
package browsertest

import (
	"strings"
	"time"

	"github.com/maltedev/laptop-listing-extractor/internal/browser"
)

// Element is a scripted node.
type Element struct {
	TextValue string
	Attrs     map[string]string
	HTML      string
	// Blocked makes clicks fail.
	Blocked bool
	OnClick func()
}

func (e *Element) Text() string {
	return strings.TrimSpace(e.TextValue)
}

func (e *Element) Attribute(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok && v != ""
}

func (e *Element) OuterHTML() string {
	return e.HTML
}

// DOM is the content of one loaded URL, keyed by rendered selector.
type DOM struct {
	Title    string
	FinalURL string
	Elements map[string][]*Element
}

func NewDOM() *DOM {
	return &DOM{Elements: make(map[string][]*Element)}
}

// Set replaces the matches for loc.
func (d *DOM) Set(loc browser.Locator, els ...*Element) *DOM {
	d.Elements[loc.Selector()] = els
	return d
}

// Add appends matches for loc.
func (d *DOM) Add(loc browser.Locator, els ...*Element) *DOM {
	d.Elements[loc.Selector()] = append(d.Elements[loc.Selector()], els...)
	return d
}

func (d *DOM) Remove(loc browser.Locator) {
	delete(d.Elements, loc.Selector())
}

func (d *DOM) Has(loc browser.Locator) bool {
	return len(d.Elements[loc.Selector()]) > 0
}

// Page implements the session surface used by the resolver, the extractor
// and the orchestrator.
type Page struct {
	Routes  map[string]*DOM
	DOM     *DOM
	URL     string
	Dialogs int

	Navigations []string
	Clicks      []string
	Typed       map[string]string
	Keys        []string
	Scrolls     []int
	Screenshots []string
	Closed      int

	OnScroll func(p *Page, dy int)
	OnKey    func(p *Page, key string)
	OnType   func(p *Page, loc browser.Locator, text string)
}

func NewPage() *Page {
	return &Page{
		Routes: make(map[string]*DOM),
		DOM:    NewDOM(),
		Typed:  make(map[string]string),
	}
}

// Route registers the DOM served for url and returns it for population.
func (p *Page) Route(url string) *DOM {
	d, ok := p.Routes[url]
	if !ok {
		d = NewDOM()
		p.Routes[url] = d
	}
	return d
}

func (p *Page) Navigate(url string) bool {
	p.Navigations = append(p.Navigations, url)
	d, ok := p.Routes[url]
	if !ok {
		return false
	}
	p.DOM = d
	p.URL = url
	if d.FinalURL != "" {
		p.URL = d.FinalURL
	}
	return true
}

func (p *Page) CurrentURL() string { return p.URL }

func (p *Page) Title() string { return p.DOM.Title }

func (p *Page) WaitFor(loc browser.Locator, _ time.Duration) browser.Element {
	els := p.DOM.Elements[loc.Selector()]
	if len(els) == 0 {
		return nil
	}
	return els[0]
}

func (p *Page) WaitForAll(loc browser.Locator, _ time.Duration) []browser.Element {
	els := p.DOM.Elements[loc.Selector()]
	out := make([]browser.Element, 0, len(els))
	for _, e := range els {
		out = append(out, e)
	}
	return out
}

func (p *Page) Count(loc browser.Locator) int {
	return len(p.DOM.Elements[loc.Selector()])
}

func (p *Page) Click(loc browser.Locator) bool {
	el := p.WaitFor(loc, 0)
	if el == nil {
		return false
	}
	if !p.ClickElement(el) {
		return false
	}
	p.Clicks[len(p.Clicks)-1] = loc.Selector()
	return true
}

func (p *Page) ClickElement(el browser.Element) bool {
	e, ok := el.(*Element)
	if !ok || e == nil || e.Blocked {
		return false
	}
	p.Clicks = append(p.Clicks, e.Text())
	if e.OnClick != nil {
		e.OnClick()
	}
	return true
}

func (p *Page) TypeText(loc browser.Locator, text string, _ bool) bool {
	if p.WaitFor(loc, 0) == nil {
		return false
	}
	p.Typed[loc.Selector()] = text
	if p.OnType != nil {
		p.OnType(p, loc, text)
	}
	return true
}

func (p *Page) PressKey(key string) bool {
	p.Keys = append(p.Keys, key)
	if p.OnKey != nil {
		p.OnKey(p, key)
	}
	return true
}

func (p *Page) DismissDialog() bool {
	if p.Dialogs == 0 {
		return false
	}
	p.Dialogs--
	return true
}

func (p *Page) ScrollBy(dy int) bool {
	p.Scrolls = append(p.Scrolls, dy)
	if p.OnScroll != nil {
		p.OnScroll(p, dy)
	}
	return true
}

func (p *Page) ScrollIntoView(el browser.Element) bool {
	return el != nil
}

func (p *Page) Screenshot(name string) string {
	p.Screenshots = append(p.Screenshots, name)
	return "logs/" + name + ".png"
}

func (p *Page) Close() error {
	p.Closed++
	return nil
}
