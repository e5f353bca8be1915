package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const skuItemHTML = `<li class="sku-item" data-sku-id="6535495">
  <div class="shop-sku-list-item">
    <a class="image-link" href="/site/dell-inspiron-15-6/6535495.p?skuId=6535495"><img alt="Dell Inspiron" src="x.jpg"></a>
    <h4 class="sku-header"><a href="/site/dell-inspiron-15-6/6535495.p?skuId=6535495">Dell - Inspiron 15.6" FHD Touch Laptop - Intel Core i7-1355U - 16GB Memory - 512GB SSD - Silver</a></h4>
    <div class="sku-model">
      <div class="sku-attribute"><span class="sku-attribute-title">Model:</span><span class="sku-value">I3530-7388SLV-PUS</span></div>
      <div class="sku-attribute"><span class="sku-attribute-title">SKU:</span><span class="sku-value">6535495</span></div>
    </div>
    <div class="ratings-reviews">
      <div class="c-ratings-reviews"><p class="visually-hidden">Rating 4.6 out of 5 stars with 1,234 reviews</p><span class="c-reviews">(1,234)</span></div>
    </div>
    <div class="priceView-customer-price"><span aria-hidden="true">$699.99</span><span class="sr-only">Your price for this item is $699.99</span></div>
  </div>
</li>`

func newTestParser(t *testing.T) *BestBuyParser {
	t.Helper()
	p, err := NewBestBuyParser(DefaultCardSelectors(), "https://www.bestbuy.com", []string{"Apple", "Dell", "HP", "Lenovo", "ASUS"})
	require.NoError(t, err)
	return p
}

func TestParseFullCard(t *testing.T) {
	p := newTestParser(t)

	record, ok := p.Parse(3, skuItemHTML)
	require.True(t, ok)

	assert.Equal(t, 3, record.Index)
	require.NotNil(t, record.Name)
	assert.Equal(t, `Dell - Inspiron 15.6" FHD Touch Laptop - Intel Core i7-1355U - 16GB Memory - 512GB SSD - Silver`, *record.Name)
	require.NotNil(t, record.Price)
	assert.Equal(t, "$699.99", *record.Price)
	require.NotNil(t, record.Rating)
	assert.InDelta(t, 4.6, *record.Rating, 0.0001)
	require.NotNil(t, record.ReviewCount)
	assert.Equal(t, 1234, *record.ReviewCount)
	require.NotNil(t, record.URL)
	assert.Equal(t, "https://www.bestbuy.com/site/dell-inspiron-15-6/6535495.p?skuId=6535495", *record.URL)

	assert.Equal(t, map[string]string{
		"model":             "I3530-7388SLV-PUS",
		"sku":               "6535495",
		"brand":             "Dell",
		"screen_size":       `15.6"`,
		"screen_resolution": "FHD",
		"processor":         "Intel Core i7-1355U",
		"memory":            "16GB",
		"storage":           "512GB",
	}, record.Specifications)
}

func TestParseCardWithoutRatingKeepsRecord(t *testing.T) {
	p := newTestParser(t)
	html := `<div class="product-card">
		<h2><a href="https://www.bestbuy.com/site/hp-14/6540000.p">HP - 14" Laptop - Intel Celeron - 4GB Memory - 64GB eMMC</a></h2>
		<div class="price">$179.00</div>
	</div>`

	record, ok := p.Parse(1, html)
	require.True(t, ok)

	assert.Nil(t, record.Rating)
	assert.Nil(t, record.ReviewCount)
	assert.Equal(t, "$179.00", *record.Price)
	assert.Equal(t, "HP", record.Specifications["brand"])
	assert.Equal(t, "Intel Celeron", record.Specifications["processor"])
	assert.Equal(t, "64GB", record.Specifications["storage"])
}

func TestParseReviewCountLabelIsNotARating(t *testing.T) {
	p := newTestParser(t)
	html := `<li class="sku-item">
		<h4 class="sku-header"><a href="/site/lenovo-ideapad/6550000.p">Lenovo - IdeaPad Slim 3 15.6" FHD Laptop - AMD Ryzen 5 - 8GB Memory - 512GB SSD</a></h4>
		<div class="c-ratings-reviews"><a aria-label="1,234 reviews" href="#reviews"><span class="c-reviews">(1,234)</span></a></div>
		<div class="priceView-customer-price"><span aria-hidden="true">$449.99</span></div>
	</li>`

	record, ok := p.Parse(1, html)
	require.True(t, ok)

	assert.Nil(t, record.Rating)
	require.NotNil(t, record.ReviewCount)
	assert.Equal(t, 1234, *record.ReviewCount)
}

func TestParseDiscardsIncompleteCards(t *testing.T) {
	p := newTestParser(t)

	tests := []struct {
		name string
		html string
	}{
		{"no price", `<div><h2><a href="/site/mba/1.p">Apple - MacBook Air 13-inch Laptop</a></h2><span>Sold Out</span></div>`},
		{"no name", `<div><div class="price">$999.99</div></div>`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := p.Parse(1, tt.html)
			assert.False(t, ok)
		})
	}
}

func TestParseFallsBackToHeuristics(t *testing.T) {
	p := newTestParser(t)
	html := `<article>
		<a href="/site/lenovo-ideapad/123.p">Lenovo - IdeaPad Slim 3 15.6" Laptop</a>
		<div class="pricing"><strong>$549.99</strong></div>
		<div class="stars" aria-label="Rated 4.3 out of 5 stars"></div>
		<span>812 reviews</span>
	</article>`

	record, ok := p.Parse(2, html)
	require.True(t, ok)

	assert.Equal(t, `Lenovo - IdeaPad Slim 3 15.6" Laptop`, *record.Name)
	assert.Equal(t, "$549.99", *record.Price)
	require.NotNil(t, record.Rating)
	assert.InDelta(t, 4.3, *record.Rating, 0.0001)
	require.NotNil(t, record.ReviewCount)
	assert.Equal(t, 812, *record.ReviewCount)
	assert.Equal(t, "https://www.bestbuy.com/site/lenovo-ideapad/123.p", *record.URL)
	assert.Equal(t, "Lenovo", record.Specifications["brand"])
}

func TestParseDiscardsOutOfRangeRating(t *testing.T) {
	p := newTestParser(t)
	html := `<div><h2><a href="/x">ASUS - Vivobook 16 Laptop</a></h2><div class="price">$499.99</div>
		<div class="c-ratings-reviews"><p class="visually-hidden">Rating 9.1 out of 5 stars</p></div></div>`

	record, ok := p.Parse(1, html)
	require.True(t, ok)
	assert.Nil(t, record.Rating)
	assert.Nil(t, record.ReviewCount)
}

func TestSpecKey(t *testing.T) {
	assert.Equal(t, "model", specKey("Model:"))
	assert.Equal(t, "screen_size", specKey("Screen Size"))
	assert.Equal(t, "sku", specKey(" SKU: "))
	assert.Equal(t, "system_memory_ram", specKey("System Memory (RAM)"))
}

func TestReviewParser(t *testing.T) {
	p := NewReviewParser(DefaultReviewSelectors())

	review, ok := p.Parse(`<li class="review-item">
		<div class="c-ratings-reviews"><p class="visually-hidden">Rated 5 out of 5 stars</p></div>
		<h4 class="review-title">Great laptop</h4>
		<div class="ugc-review-body"><p>Fast, light and the battery lasts all day.</p></div>
	</li>`)
	require.True(t, ok)
	assert.Equal(t, "Great laptop", review.Title)
	assert.Equal(t, "Fast, light and the battery lasts all day.", review.Description)
	require.NotNil(t, review.Rating)
	assert.Equal(t, 5.0, *review.Rating)

	_, ok = p.Parse(`<li class="review-item"><h4 class="review-title">Title only</h4></li>`)
	assert.False(t, ok)
}
