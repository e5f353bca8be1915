package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/maltedev/laptop-listing-extractor/internal/cascade"
	"github.com/maltedev/laptop-listing-extractor/internal/models"
	"golang.org/x/net/html"
)

// CardSelectors are the per-field selector cascades, most specific first.
type CardSelectors struct {
	Name        []string `mapstructure:"name"`
	Price       []string `mapstructure:"price"`
	Rating      []string `mapstructure:"rating"`
	ReviewCount []string `mapstructure:"review_count"`
	URL         []string `mapstructure:"url"`
	SpecRows    []string `mapstructure:"spec_rows"`
}

func DefaultCardSelectors() CardSelectors {
	return CardSelectors{
		Name: []string{
			".sku-title a",
			"h4.sku-header a",
			".product-title",
			"[data-testid='product-title']",
			"h2 a",
			"h3 a",
		},
		Price: []string{
			".priceView-customer-price span[aria-hidden='true']",
			".priceView-customer-price span",
			"[data-testid='customer-price'] span",
			".pricing-price__regular-price",
			".price",
		},
		Rating: []string{
			".c-ratings-reviews p.visually-hidden",
			".ratings-reviews .visually-hidden",
			".c-ratings-reviews [aria-label]",
			".c-review-average",
		},
		ReviewCount: []string{
			".c-ratings-reviews .c-reviews",
			".c-total-reviews",
			".c-reviews",
		},
		URL: []string{
			".sku-title a[href]",
			"h4.sku-header a[href]",
			".product-title a[href]",
			"a.image-link[href]",
			"a[href*='skuId=']",
		},
		SpecRows: []string{
			".sku-model .sku-attribute",
			".product-attributes li",
			".variation-info li",
		},
	}
}

var (
	screenSizePattern = regexp.MustCompile(`(\d{2}(?:\.\d{1,2})?)\s*(?:"|”|''|-?\s?inch\b|-?\s?in\b)`)
	resolutionPattern = regexp.MustCompile(`(?i)\b(\d{3,4}\s?x\s?\d{3,4}|4K|UHD|QHD\+?|WQXGA|WUXGA|2\.8K|3K|FHD\+?|Full HD|OLED)\b`)
	processorPattern  = regexp.MustCompile(`(?i)\b(Intel\s?(?:®|\(R\))?\s?Core\s?(?:™|\(TM\))?\s?(?:Ultra\s)?[3579i]\S*(?:\s\d{3,5}\w*)?|Intel\s(?:Celeron|Pentium)(?:\s[A-Z0-9]\w*)?|AMD\sRyzen\s?(?:™)?\s?(?:AI\s)?\d+(?:\s\d{3,4}\w*)?|Apple\sM\d(?:\s(?:Pro|Max|Ultra))?|(?:Qualcomm\s)?Snapdragon\sX\s?\w*(?:\s\w+)?)`)
	memoryPattern     = regexp.MustCompile(`(?i)\b(\d{1,3})\s?GB\s+(?:of\s+)?(?:Memory|RAM|Unified Memory)\b`)
	storagePattern    = regexp.MustCompile(`(?i)\b(\d{1,4}\s?(?:GB|TB))\s+(?:SSD|Solid State Drive|eMMC|Storage|Flash)\b`)
)

// card is one product element parsed for both goquery and htmlquery.
type card struct {
	sel  *goquery.Selection
	root *html.Node
}

type field = cascade.Step[*card, string]

// BestBuyParser extracts one ProductRecord from a product card's HTML.
type BestBuyParser struct {
	base   *url.URL
	brands []string
	rows   []string

	name        []field
	price       []field
	rating      []field
	reviewCount []field

	// reviewPhrase sources only count when the number is followed by "reviews".
	reviewPhrase []field
	link         []field
}

func NewBestBuyParser(sel CardSelectors, baseURL string, brands []string) (*BestBuyParser, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}

	p := &BestBuyParser{base: base, brands: brands, rows: sel.SpecRows}

	for _, s := range sel.Name {
		p.name = append(p.name, textStep(s), attrStep(s, "title"))
	}
	p.name = append(p.name,
		xpathStep("longest-link-text", `//a[@href][string-length(normalize-space(.)) > 15]`),
		attrStep("img[alt]", "alt"),
	)

	for _, s := range sel.Price {
		p.price = append(p.price, textStep(s))
	}
	p.price = append(p.price,
		xpathStep("dollar-text", `//*[starts-with(normalize-space(text()), '$')]`),
		wholeTextStep(),
	)

	for _, s := range sel.Rating {
		p.rating = append(p.rating, textStep(s), attrStep(s, "aria-label"))
	}
	p.rating = append(p.rating,
		xpathStep("out-of-5-text", `//*[contains(text(), 'out of 5')]`),
		xpathAttrStep("out-of-5-label", `//*[contains(@aria-label, 'out of 5')]`, "aria-label"),
	)

	for _, s := range sel.ReviewCount {
		p.reviewCount = append(p.reviewCount, textStep(s))
	}
	for _, s := range sel.Rating {
		p.reviewPhrase = append(p.reviewPhrase, textStep(s))
	}
	p.reviewPhrase = append(p.reviewPhrase,
		xpathStep("reviews-text", `//*[contains(translate(text(), 'REVIEWS', 'reviews'), 'review')]`),
	)

	for _, s := range sel.URL {
		p.link = append(p.link, attrStep(s, "href"))
	}
	p.link = append(p.link, xpathAttrStep("first-link", `//a[@href and normalize-space(@href) != '#']`, "href"))

	return p, nil
}

// Parse builds a record from a card's outer HTML. Each field is extracted on
// its own; a field that cannot be found is left nil. The record is reported
// as usable only when it has both a name and a price.
func (p *BestBuyParser) Parse(index int, outerHTML string) (models.ProductRecord, bool) {
	record := models.ProductRecord{Index: index, Specifications: map[string]string{}}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(outerHTML))
	if err != nil || len(doc.Nodes) == 0 {
		return record, false
	}
	c := &card{sel: doc.Selection, root: doc.Nodes[0]}

	if name, _, ok := cascade.First(c, p.name...); ok {
		record.Name = models.String(name)
	}
	if price, ok := firstParsed(c, p.price, NormalizePrice); ok {
		record.Price = models.String(price)
	}
	if rating, ok := firstParsed(c, p.rating, ParseRating); ok {
		record.Rating = models.Float(rating)
	}
	if count, ok := firstParsed(c, p.reviewCount, ParseReviewCount); ok {
		record.ReviewCount = models.Int(count)
	} else if count, ok := firstParsed(c, p.reviewPhrase, ParseReviewPhrase); ok {
		record.ReviewCount = models.Int(count)
	}
	if href, _, ok := cascade.First(c, p.link...); ok {
		if abs := p.resolve(href); abs != "" {
			record.URL = models.String(abs)
		}
	}
	record.Specifications = p.specifications(c, record.NameOr(""))

	return record, record.Valid()
}

// firstParsed walks steps until one yields text the parse function accepts.
func firstParsed[T any](c *card, steps []field, parse func(string) (T, bool)) (T, bool) {
	for _, s := range steps {
		text, ok := s.Try(c)
		if !ok {
			continue
		}
		if v, ok := parse(text); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func (p *BestBuyParser) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return p.base.ResolveReference(ref).String()
}

func (p *BestBuyParser) specifications(c *card, name string) map[string]string {
	specs := map[string]string{}

	for _, rowSel := range p.rows {
		c.sel.Find(rowSel).Each(func(_ int, row *goquery.Selection) {
			key, value := specRow(row)
			if key != "" && value != "" {
				if _, exists := specs[key]; !exists {
					specs[key] = value
				}
			}
		})
	}

	if brand := p.brandOf(name); brand != "" {
		setDefault(specs, "brand", brand)
	}

	text := name + " | " + embeddedText(c.root)
	patterns := []struct {
		key     string
		pattern *regexp.Regexp
		suffix  string
	}{
		{"screen_size", screenSizePattern, `"`},
		{"screen_resolution", resolutionPattern, ""},
		{"processor", processorPattern, ""},
		{"memory", memoryPattern, "GB"},
		{"storage", storagePattern, ""},
	}
	for _, sp := range patterns {
		if m := sp.pattern.FindStringSubmatch(text); m != nil {
			setDefault(specs, sp.key, cleanText(m[1])+sp.suffix)
		}
	}

	return specs
}

func setDefault(m map[string]string, key, value string) {
	if _, ok := m[key]; !ok && value != "" {
		m[key] = value
	}
}

// specRow reads "Model: 15-fd0023dx" style rows, with either a title/value
// pair of children or a single "key: value" string.
func specRow(row *goquery.Selection) (string, string) {
	title := cleanText(row.Find(".sku-attribute-title, .attribute-title, dt").First().Text())
	value := cleanText(row.Find(".sku-value, .attribute-value, dd").First().Text())
	if title == "" {
		parts := strings.SplitN(cleanText(row.Text()), ":", 2)
		if len(parts) != 2 {
			return "", ""
		}
		title, value = parts[0], parts[1]
	}
	return specKey(title), strings.TrimSpace(value)
}

func specKey(title string) string {
	title = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(title), ":"))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range title {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// brandOf picks the brand from a "Brand - Model ..." title, preferring a
// known brand.
func (p *BestBuyParser) brandOf(name string) string {
	if name == "" {
		return ""
	}
	head := strings.TrimSpace(strings.SplitN(name, " - ", 2)[0])
	for _, b := range p.brands {
		if strings.EqualFold(head, b) || strings.HasPrefix(strings.ToLower(name), strings.ToLower(b)+" ") {
			return b
		}
	}
	if strings.Contains(name, " - ") && len(strings.Fields(head)) <= 2 {
		return head
	}
	return ""
}

// embeddedText joins the visible text nodes of the card.
func embeddedText(root *html.Node) string {
	nodes, err := htmlquery.QueryAll(root, `//text()[normalize-space() and not(ancestor::script) and not(ancestor::style)]`)
	if err != nil {
		return ""
	}
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, cleanText(n.Data))
	}
	return strings.Join(parts, " | ")
}

func textStep(selector string) field {
	return field{Name: selector, Try: func(c *card) (string, bool) {
		text := cleanText(c.sel.Find(selector).First().Text())
		return text, text != ""
	}}
}

func attrStep(selector, attr string) field {
	return field{Name: selector + "@" + attr, Try: func(c *card) (string, bool) {
		v, ok := c.sel.Find(selector).First().Attr(attr)
		v = cleanText(v)
		return v, ok && v != ""
	}}
}

func xpathStep(name, expr string) field {
	return field{Name: name, Try: func(c *card) (string, bool) {
		n, err := htmlquery.Query(c.root, expr)
		if err != nil || n == nil {
			return "", false
		}
		text := cleanText(htmlquery.InnerText(n))
		return text, text != ""
	}}
}

func xpathAttrStep(name, expr, attr string) field {
	return field{Name: name, Try: func(c *card) (string, bool) {
		n, err := htmlquery.Query(c.root, expr)
		if err != nil || n == nil {
			return "", false
		}
		v := cleanText(htmlquery.SelectAttr(n, attr))
		return v, v != ""
	}}
}

func wholeTextStep() field {
	return field{Name: "card-text", Try: func(c *card) (string, bool) {
		text := cleanText(c.sel.Text())
		return text, text != ""
	}}
}
