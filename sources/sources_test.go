package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aluiziolira/go-scrape-catalog/models"
)

type pageFetcher struct {
	pages map[string]string
	calls []string
}

func (f *pageFetcher) FetchHTML(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	body, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("http status 404 for %s", url)
	}
	return body, nil
}

type nameChecker struct {
	names map[string]bool
	err   error
	asked []string
}

func (c *nameChecker) ArtistExists(_ context.Context, name string) (bool, error) {
	c.asked = append(c.asked, name)
	if c.err != nil {
		return false, c.err
	}
	return c.names[strings.ToLower(strings.TrimSpace(name))], nil
}

func newTestAdapter(t *testing.T, name string, pages map[string]string, known ...string) (Adapter, *pageFetcher, *nameChecker) {
	t.Helper()
	f := &pageFetcher{pages: pages}
	c := &nameChecker{names: map[string]bool{}}
	for _, n := range known {
		c.names[strings.ToLower(n)] = true
	}
	a, err := New(name, Deps{Fetcher: f, Creators: c})
	require.NoError(t, err)
	return a, f, c
}

func TestRegistry(t *testing.T) {
	names := Names()
	require.Len(t, names, 14)

	withSpecs := map[string]bool{"witty": true, "setanta": true, "skinnerboox": true, "lodret": true}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			a, _, _ := newTestAdapter(t, name, nil)
			assert.Equal(t, name, a.Name())

			cols := a.Columns()
			header := models.HeaderRow(cols).Names()
			row := (&models.Record{Title: "t"}).Row(cols).Names()
			assert.Equal(t, header, row, "header and row order must match")
			assert.Equal(t, withSpecs[name], contains(header, models.ColSpecs))
			assert.Equal(t, models.ColTitle, header[0])
			assert.Equal(t, models.ColPurchaseLink, header[len(header)-1])
		})
	}
}

func TestNewRejectsUnknownSourceAndMissingDeps(t *testing.T) {
	_, err := New("nope", Deps{Fetcher: &pageFetcher{}, Creators: &nameChecker{}})
	assert.Error(t, err)

	a, err := New("mack", Deps{Creators: &nameChecker{}})
	assert.Error(t, err)
	assert.Nil(t, a)
}

func TestWithOptions(t *testing.T) {
	f := &pageFetcher{}
	a, err := New("rrb", Deps{Fetcher: f, Creators: &nameChecker{}},
		WithBaseURL("http://shop.test/"), WithMaxPages(2))
	require.NoError(t, err)

	p := a.(*WooCommerce).Profile()
	assert.Equal(t, "http://shop.test", p.BaseURL)
	assert.Equal(t, 2, p.Pagination.MaxPages)

	orig, ok := Lookup("rrb")
	require.True(t, ok)
	assert.Equal(t, 20, orig.Pagination.MaxPages)
}

const shopifyListing = `<html><body>
<a href="/collections/books/products/the-pillar">The Pillar</a>
<a href="/products/the-pillar#reviews">again</a>
<a href="https://stanleybarker.co.uk/products/tokyo-nobody?variant=1">Tokyo Nobody</a>
<a href="/collections/books">All books</a>
<a href="/products/">empty handle</a>
</body></html>`

func TestShopifyDiscoverCanonicalizesAndStopsOnRepeatPage(t *testing.T) {
	base := "https://stanleybarker.co.uk/collections/books?page="
	a, f, _ := newTestAdapter(t, "stanleybarker", map[string]string{
		base + "1": shopifyListing,
		base + "2": shopifyListing,
	})

	urls, err := a.DiscoverItemURLs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://stanleybarker.co.uk/products/the-pillar",
		"https://stanleybarker.co.uk/products/tokyo-nobody",
	}, urls)
	assert.Len(t, f.calls, 2)
	assert.False(t, a.(*Shopify).PaginationCapped())
}

func TestShopifyDiscoverFirstPageFailure(t *testing.T) {
	a, _, _ := newTestAdapter(t, "mack", nil)
	_, err := a.DiscoverItemURLs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mack")
}

func TestShopifyParseSplitHeadingAndJSONLD(t *testing.T) {
	url := "https://stanleybarker.co.uk/products/the-pillar"
	a, _, c := newTestAdapter(t, "stanleybarker", map[string]string{url: `<html><head>
<title>Stephen Gill – The Pillar – Stanley/Barker</title>
<link rel="canonical" href="/products/the-pillar">
<meta property="product:availability" content="oos">
<script type="application/ld+json">{"@type":"Product","name":"Stephen Gill – The Pillar",
 "image":["//cdn.shop/a.jpg","//cdn.shop/b.jpg","//cdn.shop/a.jpg"]}</script>
</head><body>
<h1 class="product__title">Stephen Gill – The Pillar</h1>
<div class="product__media"><img src="/gallery/ignored.jpg"></div>
<div class="product__description"><p>Birds &amp; a pillar.</p><p>Second   para.</p></div>
</body></html>`}, "stephen gill")

	rec, err := a.ParseDetailPage(context.Background(), url)
	require.NoError(t, err)

	assert.Equal(t, "The Pillar", rec.Title)
	assert.Equal(t, "Stephen Gill", rec.Artist)
	assert.True(t, rec.ArtistExistsInDB)
	assert.Equal(t, "Birds & a pillar. Second para.", rec.Description)
	assert.Equal(t, "https://cdn.shop/a.jpg", rec.CoverURL)
	assert.Equal(t, "https://cdn.shop/b.jpg", rec.Images)
	assert.Equal(t, models.SoldOut, rec.Availability)
	assert.Equal(t, url, rec.PurchaseLink)
	assert.Equal(t, []string{"Stephen Gill"}, c.asked)
}

func TestShopifyParseVendorAndMetaTitleFallback(t *testing.T) {
	url := "https://mackbooks.co.uk/products/the-pillar"
	a, _, _ := newTestAdapter(t, "mack", map[string]string{url: `<html><head>
<meta property="og:title" content="The Pillar | MACK">
</head><body>
<div class="product__info-container">
  <p class="product__vendor">Stephen Gill</p>
  <button name="add">Add to cart</button>
</div>
<div class="product__media">
  <img srcset="/cdn/x.jpg 800w, /cdn/x-big.jpg 1600w" src="/cdn/x-small.jpg">
  <img data-zoom="//cdn.mack/y.jpg" src="/cdn/y-small.jpg">
  <img src="data:image/gif;base64,R0lGOD">
</div>
</body></html>`})

	rec, err := a.ParseDetailPage(context.Background(), url)
	require.NoError(t, err)

	assert.Equal(t, "The Pillar", rec.Title)
	assert.Equal(t, "Stephen Gill", rec.Artist)
	assert.False(t, rec.ArtistExistsInDB)
	assert.Equal(t, "https://mackbooks.co.uk/cdn/x.jpg", rec.CoverURL)
	assert.Equal(t, "https://cdn.mack/y.jpg", rec.Images)
	assert.Equal(t, models.Available, rec.Availability)
	assert.Equal(t, url, rec.PurchaseLink, "falls back to the fetched url")
}

func TestShopifyStripsBoilerplateAndCapsImages(t *testing.T) {
	url := "https://void.photo/products/x"
	var gallery strings.Builder
	for i := 1; i <= 7; i++ {
		fmt.Fprintf(&gallery, `<img src="/img/%d.jpg">`, i)
	}
	a, _, _ := newTestAdapter(t, "void", map[string]string{url: `<html><body>
<h1 class="product__title">Jane Doe - Night - Vol. 2</h1>
<div class="product__description"><p>A book. EU customers: VAT is included in the price and no additional import duties apply.</p></div>
<div class="product__media">` + gallery.String() + `</div>
<span class="badge--sold-out">Sold out</span>
</body></html>`})

	rec, err := a.ParseDetailPage(context.Background(), url)
	require.NoError(t, err)

	assert.Equal(t, "Night - Vol. 2", rec.Title)
	assert.Equal(t, "Jane Doe", rec.Artist)
	assert.Equal(t, "A book.", rec.Description)
	assert.Equal(t, "https://void.photo/img/1.jpg", rec.CoverURL)
	assert.Len(t, strings.Split(rec.Images, "|"), 4)
	assert.NotContains(t, rec.Images, rec.CoverURL)
	assert.Equal(t, models.SoldOut, rec.Availability)
}

func TestBoilerplateCompiledOnce(t *testing.T) {
	p, ok := Lookup("rrb")
	require.True(t, ok)
	p.Boilerplate = append(p.Boilerplate, "", "Ships in 3 (three) days.")

	s, err := newSite(p, Deps{Fetcher: &pageFetcher{}, Creators: &nameChecker{}})
	require.NoError(t, err)
	require.Len(t, s.boilerplate, 2)

	text := "A book. please note: orders outside the UK may be subject to import VAT. Ships in 3 (three) days. Signed."
	assert.Equal(t, "A book. Signed.", s.stripBoilerplate(text))
}

func TestLookupFailureSkipsItem(t *testing.T) {
	url := "https://mackbooks.co.uk/products/x"
	a, _, c := newTestAdapter(t, "mack", map[string]string{
		url: `<html><body><h1 class="product__title">X</h1><p class="product__vendor">Someone</p></body></html>`,
	})
	c.err = errors.New("index down")

	rec, err := a.ParseDetailPage(context.Background(), url)
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, c.err)
}

func TestDetailFetchFailurePropagates(t *testing.T) {
	a, _, c := newTestAdapter(t, "gost", nil)
	_, err := a.ParseDetailPage(context.Background(), "https://www.gostbooks.com/shop/p/missing")
	require.Error(t, err)
	assert.Empty(t, c.asked)
}

func TestWooCommerceDiscoverTruncatesOnLaterFailure(t *testing.T) {
	a, f, _ := newTestAdapter(t, "setanta", map[string]string{
		"https://setantabooks.com/shop/": `<html><body><ul class="products">
<li class="product"><a class="woocommerce-LoopProduct-link" href="/product/ruins/">Ruins</a>
  <a href="/product/ruins/?add-to-cart=12">Add</a></li>
<li class="product"><a href="/product-category/books/">Books</a></li>
<li class="product"><a href="https://setantabooks.com/product/another/">Another</a></li>
</ul></body></html>`,
	})

	urls, err := a.DiscoverItemURLs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://setantabooks.com/product/ruins/",
		"https://setantabooks.com/product/another/",
	}, urls)
	assert.Equal(t, "https://setantabooks.com/shop/page/2/", f.calls[1])
}

func TestWooCommerceLabeledSpecsAndGallery(t *testing.T) {
	url := "https://setantabooks.com/product/ruins/"
	a, _, _ := newTestAdapter(t, "setanta", map[string]string{url: `<html><body>
<div class="product">
<div class="woocommerce-product-gallery__image"><a href="/f1.jpg"><img data-large_image="/wp/full1.jpg" src="/wp/thumb1.jpg"></a></div>
<div class="woocommerce-product-gallery__image"><a><img data-src="/wp/lazy2.jpg" src="data:image/gif;base64,AAA"></a></div>
<div class="summary">
  <h1 class="product_title entry-title">Ruins</h1>
  <span class="product-artist">Ken Grant</span>
  <div class="woocommerce-product-details__short-description"><p>Short blurb.</p></div>
  <p class="stock out-of-stock">Out of stock</p>
</div>
<div id="tab-description"><p>Long narrative.</p><p>Details: 240 x 300mm, 96 pages, hardback</p><p>More narrative.</p></div>
</div>
</body></html>`})

	rec, err := a.ParseDetailPage(context.Background(), url)
	require.NoError(t, err)

	assert.Equal(t, "Ruins", rec.Title)
	assert.Equal(t, "Ken Grant", rec.Artist)
	assert.Equal(t, "Long narrative. More narrative.", rec.Description)
	assert.Equal(t, "240 x 300mm, 96 pages, hardback", rec.Specs)
	assert.Equal(t, "https://setantabooks.com/wp/full1.jpg", rec.CoverURL)
	assert.Equal(t, "https://setantabooks.com/wp/lazy2.jpg", rec.Images)
	assert.Equal(t, models.SoldOut, rec.Availability)
}

func TestWooCommerceSplitPipe(t *testing.T) {
	url := "https://kominek-books.com/product/raw/"
	a, _, _ := newTestAdapter(t, "kominek", map[string]string{url: `<html><head>
<meta property="og:image" content="/og.jpg">
</head><body>
<h1 class="product_title">Raw | Ewa Kowalska</h1>
<div class="woocommerce-product-details__short-description"><p>Pictures.</p></div>
<p class="stock in-stock">2 in stock</p>
</body></html>`})

	rec, err := a.ParseDetailPage(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "Raw", rec.Title)
	assert.Equal(t, "Ewa Kowalska", rec.Artist)
	assert.Equal(t, "Pictures.", rec.Description)
	assert.Equal(t, "https://kominek-books.com/og.jpg", rec.CoverURL)
	assert.Empty(t, rec.Images)
	assert.Equal(t, models.Available, rec.Availability)
}

func TestSquarespaceDiscoverAndParse(t *testing.T) {
	shop := "https://www.gostbooks.com/shop"
	item := "https://www.gostbooks.com/shop/p/hunting-season"
	a, f, _ := newTestAdapter(t, "gost", map[string]string{
		shop: `<html><body>
<a href="/shop/p/hunting-season">Hunting Season</a>
<a href="/shop/p/hunting-season">again</a>
<a href="/shop/p/other-book/extra">nested</a>
<a href="/shop/bags">Bags</a>
</body></html>`,
		item: `<html><head>
<meta property="og:title" content="Hunting Season by Paul Graham — GOST Books">
<meta property="product:availability" content="instock">
</head><body>
<div class="ProductItem-details">
  <h1 class="ProductItem-details-title">Hunting Season by Paul Graham</h1>
  <div class="ProductItem-details-excerpt"><p>Colour photographs.</p></div>
</div>
<div class="ProductItem-gallery-slides-item"><img data-src="https://images.squarespace-cdn.com/1.jpg" src="/x.jpg"></div>
<div class="ProductItem-gallery-slides-item"><img data-src="https://images.squarespace-cdn.com/2.jpg"></div>
</body></html>`,
	}, "Paul Graham")

	urls, err := a.DiscoverItemURLs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{item}, urls)
	assert.Len(t, f.calls, 1, "single page strategy fetches once")

	rec, err := a.ParseDetailPage(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "Hunting Season", rec.Title)
	assert.Equal(t, "Paul Graham", rec.Artist)
	assert.True(t, rec.ArtistExistsInDB)
	assert.Equal(t, "Colour photographs.", rec.Description)
	assert.Equal(t, "https://images.squarespace-cdn.com/1.jpg", rec.CoverURL)
	assert.Equal(t, "https://images.squarespace-cdn.com/2.jpg", rec.Images)
	assert.Equal(t, models.Available, rec.Availability)
}

func TestBigCartelComingSoonAndSpecs(t *testing.T) {
	url := "https://skinnerboox.bigcartel.com/product/vanishing"
	a, _, _ := newTestAdapter(t, "skinnerboox", map[string]string{url: `<html><head>
<meta property="og:image" content="https://assets.bigcartel.com/v.jpg">
</head><body>
<div class="product-detail">
  <h1 class="product-title">Vanishing - Jane Doe</h1>
  <div class="product-status">Coming soon</div>
  <div class="product-description"><p>21 x 28 cm, 120 pages</p><p>Narrative &quot;quoted&quot;.</p></div>
</div>
</body></html>`})

	rec, err := a.ParseDetailPage(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "Vanishing", rec.Title)
	assert.Equal(t, "Jane Doe", rec.Artist)
	assert.Equal(t, "21 x 28 cm, 120 pages", rec.Specs)
	assert.Equal(t, `Narrative "quoted".`, rec.Description)
	assert.Equal(t, "https://assets.bigcartel.com/v.jpg", rec.CoverURL)
	assert.Equal(t, models.Unavailable, rec.Availability)
}

func TestBigCartelDiscoverQueryPages(t *testing.T) {
	base := "https://bemojake.bigcartel.com/products?page="
	a, _, _ := newTestAdapter(t, "bemojake", map[string]string{
		base + "1": `<a href="/product/one">1</a><a href="/product/two">2</a><a href="/products">all</a>`,
		base + "2": `<a href="/product/three">3</a>`,
		base + "3": `<p>No products</p>`,
	})

	urls, err := a.DiscoverItemURLs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://bemojake.bigcartel.com/product/one",
		"https://bemojake.bigcartel.com/product/two",
		"https://bemojake.bigcartel.com/product/three",
	}, urls)
}

func TestStaticArtistFromSlugAndNoDescription(t *testing.T) {
	root := "https://lodretforlag.dk/books/"
	item := "https://lodretforlag.dk/books/asger-carlsen/hester/"
	a, _, c := newTestAdapter(t, "lodret", map[string]string{
		root: `<html><body>
<a href="/books/asger-carlsen/hester/">Hester</a>
<a href="/books/page/2/">Next</a>
<a href="/about/">About</a>
</body></html>`,
		root + "page/2/": `<a href="/books/asger-carlsen/hester/">Hester</a>`,
		root + "page/3/": `<a href="/books/jh-engstrom/sketches/">Sketches</a>`,
		item: `<html><body><article>
<h1>Asger Carlsen – Hester</h1>
<div class="entry-content">
  <p>Softcover, 64 pages</p>
  <p>A story that is never emitted.</p>
  <img src="cover.jpg">
</div>
</article></body></html>`,
	})

	urls, err := a.DiscoverItemURLs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{item, "https://lodretforlag.dk/books/jh-engstrom/sketches/"}, urls)

	rec, err := a.ParseDetailPage(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "Hester", rec.Title)
	assert.Equal(t, "Asger Carlsen", rec.Artist)
	assert.Empty(t, rec.Description)
	assert.Equal(t, "Softcover, 64 pages", rec.Specs)
	assert.Equal(t, "https://lodretforlag.dk/books/asger-carlsen/hester/cover.jpg", rec.CoverURL)
	assert.Equal(t, models.Available, rec.Availability)
	assert.Equal(t, []string{"Asger Carlsen"}, c.asked)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
