package sources

import (
	"context"
	"strings"

	"github.com/aluiziolira/go-scrape-catalog/extract"
	"github.com/aluiziolira/go-scrape-catalog/models"
)

var wooGallery = extract.GalleryRule{
	Selector: ".woocommerce-product-gallery__image img",
	Attrs:    []string{"data-large_image", "data-src", "srcset", "src"},
}

// WooCommerce parses WordPress shops. Product permalinks live under
// /product/<slug>/ and the shop archive paginates with /page/N/.
type WooCommerce struct {
	site
}

// NewWooCommerce builds a WooCommerce adapter for p.
func NewWooCommerce(p Profile, d Deps) (*WooCommerce, error) {
	s, err := newSite(p, d)
	if err != nil {
		return nil, err
	}
	return &WooCommerce{site: s}, nil
}

// DiscoverItemURLs walks the shop archive.
func (a *WooCommerce) DiscoverItemURLs(ctx context.Context) ([]string, error) {
	return a.discover(ctx, a.links)
}

func (a *WooCommerce) links(p *extract.Page) []string {
	links := p.Links("a.woocommerce-LoopProduct-link, li.product a[href], .products .product a[href]")
	return extract.DedupeLinks(links, func(l string) bool {
		path := pathOf(l, a.profile.BaseURL)
		if !strings.Contains(path, "/product/") {
			return false
		}
		if strings.Contains(path, "/product-category/") || strings.Contains(l, "add-to-cart") {
			return false
		}
		return strings.Trim(path[strings.Index(path, "/product/")+len("/product/"):], "/") != ""
	})
}

// ParseDetailPage parses one product page.
func (a *WooCommerce) ParseDetailPage(ctx context.Context, url string) (*models.Record, error) {
	p, err := a.load(ctx, url)
	if err != nil {
		return nil, err
	}

	heading := extract.First(
		p.Text("h1.product_title"),
		p.Text(".summary h1.entry-title"),
		a.metaTitle(p),
		p.ProductStr("name"),
	)
	title, artist := a.titleArtist(heading, extract.First(
		p.Text(".product-artist"),
		p.Text(".summary .author"),
		brand(p),
	))

	paras := p.Paragraphs(".woocommerce-product-details__short-description")
	if len(paras) == 0 || a.profile.Specs == LabeledSpecs {
		if long := p.Paragraphs("#tab-description"); len(long) > 0 {
			paras = long
		}
	}
	fallback := extract.First(
		p.Text(".woocommerce-product-details__short-description"),
		p.Text("#tab-description"),
		p.Description(),
	)
	desc, specs := a.describe(paras, fallback)

	cover, images := a.images(p, wooGallery)

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

// availability checks the rendered stock markup before structured data.
func (a *WooCommerce) availability(p *extract.Page) models.Availability {
	if p.Has("p.stock.out-of-stock", "div.product.outofstock", ".summary .outofstock") {
		return models.SoldOut
	}
	if extract.ContainsSoldOut(p.ScopedText("p.stock", ".summary", ".product")) {
		return models.SoldOut
	}
	if av, ok := metaAvailability(p); ok {
		return av
	}
	return models.Available
}
