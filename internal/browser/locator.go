package browser

import "strings"

type Kind int

const (
	KindCSS Kind = iota
	KindXPath
	KindText
	KindChain
)

// Locator identifies elements on the page. It renders to a playwright
// selector string.
type Locator struct {
	Kind  Kind
	Value string
}

func CSS(selector string) Locator {
	return Locator{Kind: KindCSS, Value: selector}
}

func XPath(expr string) Locator {
	return Locator{Kind: KindXPath, Value: expr}
}

func Text(text string) Locator {
	return Locator{Kind: KindText, Value: text}
}

// ParseLocator reads the textual form used in config files: an optional
// "css=", "xpath=" or "text=" prefix, with bare "//" expressions taken as XPath.
func ParseLocator(s string) Locator {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "xpath="):
		return XPath(strings.TrimPrefix(s, "xpath="))
	case strings.HasPrefix(s, "text="):
		return Text(strings.TrimPrefix(s, "text="))
	case strings.HasPrefix(s, "css="):
		return CSS(strings.TrimPrefix(s, "css="))
	case strings.HasPrefix(s, "//"), strings.HasPrefix(s, "(//"):
		return XPath(s)
	default:
		return CSS(s)
	}
}

func ParseLocators(values []string) []Locator {
	locs := make([]Locator, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		locs = append(locs, ParseLocator(v))
	}
	return locs
}

// Within scopes child to matches of parent. Each branch of a CSS selector
// list is scoped on its own so no branch escapes the parent.
func Within(parent, child Locator) Locator {
	if parent.Kind == KindCSS && child.Kind == KindCSS {
		var scoped []string
		for _, p := range splitSelectorList(parent.Value) {
			for _, c := range splitSelectorList(child.Value) {
				scoped = append(scoped, p+" "+c)
			}
		}
		return CSS(strings.Join(scoped, ", "))
	}
	return Locator{Kind: KindChain, Value: parent.Selector() + " >> " + child.Selector()}
}

// splitSelectorList splits on commas outside brackets, parentheses and quotes.
func splitSelectorList(list string) []string {
	var (
		parts []string
		depth int
		quote rune
		start int
	)
	for i, r := range list {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(' || r == '[':
			depth++
		case r == ')' || r == ']':
			depth--
		case r == ',' && depth == 0:
			parts = append(parts, strings.TrimSpace(list[start:i]))
			start = i + 1
		}
	}
	parts = append(parts, strings.TrimSpace(list[start:]))

	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (l Locator) Selector() string {
	switch l.Kind {
	case KindXPath:
		return "xpath=" + l.Value
	case KindText:
		return "text=" + l.Value
	default:
		return l.Value
	}
}

func (l Locator) String() string {
	return l.Selector()
}

func (l Locator) IsZero() bool {
	return strings.TrimSpace(l.Value) == ""
}
