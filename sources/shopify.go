package sources

import (
	"context"
	"strings"

	"github.com/aluiziolira/go-scrape-catalog/extract"
	"github.com/aluiziolira/go-scrape-catalog/models"
)

var shopifyGallery = extract.GalleryRule{
	Selector: ".product__media img, .product-single__photo img, .product-gallery img",
	Attrs:    []string{"data-zoom", "data-src", "srcset", "src"},
}

// Shopify parses stores running on Shopify themes. Product pages live under
// /products/<handle>; collection pages paginate with ?page=N.
type Shopify struct {
	site
}

// NewShopify builds a Shopify adapter for p.
func NewShopify(p Profile, d Deps) (*Shopify, error) {
	s, err := newSite(p, d)
	if err != nil {
		return nil, err
	}
	return &Shopify{site: s}, nil
}

// DiscoverItemURLs walks the collection pages.
func (a *Shopify) DiscoverItemURLs(ctx context.Context) ([]string, error) {
	return a.discover(ctx, a.links)
}

// links canonicalizes collection-scoped product links to /products/<handle>.
func (a *Shopify) links(p *extract.Page) []string {
	var out []string
	for _, l := range p.Links(`a[href*="/products/"]`) {
		path := pathOf(extract.StripFragment(l), a.profile.BaseURL)
		i := strings.Index(path, "/products/")
		if i < 0 {
			continue
		}
		handle := strings.Trim(path[i+len("/products/"):], "/")
		if handle == "" || strings.Contains(handle, "/") {
			continue
		}
		out = append(out, a.profile.BaseURL+"/products/"+handle)
	}
	return extract.DedupeLinks(out, nil)
}

// ParseDetailPage parses one product page.
func (a *Shopify) ParseDetailPage(ctx context.Context, url string) (*models.Record, error) {
	p, err := a.load(ctx, url)
	if err != nil {
		return nil, err
	}

	heading := extract.First(
		p.Text("h1.product__title"),
		p.Text("h1.product-single__title"),
		p.Text(".product-meta h1"),
		a.metaTitle(p),
		p.ProductStr("name"),
	)
	vendor := extract.First(
		p.Text(".product__vendor"),
		p.Text(".product-single__vendor"),
		p.Meta("product:brand"),
		brand(p),
	)
	title, artist := a.titleArtist(heading, vendor)

	paras := p.Paragraphs(".product__description")
	if len(paras) == 0 {
		paras = p.Paragraphs(".product-single__description")
	}
	fallback := extract.First(
		p.Text(".product__description"),
		p.Text(".product-single__description"),
		p.ProductStr("description"),
		p.Description(),
	)
	desc, specs := a.describe(paras, fallback)

	cover, images := a.images(p, shopifyGallery)

	return a.finish(ctx, p, &models.Record{
		Title:        title,
		Artist:       artist,
		Description:  desc,
		Specs:        specs,
		CoverURL:     cover,
		Images:       images,
		Availability: a.availability(p),
	})
}

func (a *Shopify) availability(p *extract.Page) models.Availability {
	if av, ok := metaAvailability(p); ok {
		return av
	}
	if p.Has(".badge--sold-out", ".product__badge--sold-out", ".product-price__sold-out", `button[name="add"][disabled]`) {
		return models.SoldOut
	}
	if extract.ContainsSoldOut(p.ScopedText(".product__info-container", ".product-single__meta", ".product")) {
		return models.SoldOut
	}
	return models.Available
}

func brand(p *extract.Page) string {
	if prod, ok := p.FirstProduct(); ok {
		return prod.Brand()
	}
	return ""
}
