package sources

import (
	"context"
	"regexp"
	"strings"

	"github.com/aluiziolira/go-scrape-catalog/extract"
	"github.com/aluiziolira/go-scrape-catalog/models"
)

var (
	bigCartelItem    = regexp.MustCompile(`^/product/[A-Za-z0-9-]+/?$`)
	bigCartelGallery = extract.GalleryRule{
		Selector: ".product-images img, .product_images img, .product-image img",
		Attrs:    []string{"data-zoom", "data-src", "srcset", "src"},
	}
)

// BigCartel parses Big Cartel storefronts: /products?page=N listings and
// /product/<slug> detail pages with no structured data.
type BigCartel struct {
	site
}

// NewBigCartel builds a Big Cartel adapter for p.
func NewBigCartel(p Profile, d Deps) (*BigCartel, error) {
	s, err := newSite(p, d)
	if err != nil {
		return nil, err
	}
	return &BigCartel{site: s}, nil
}

// DiscoverItemURLs walks the product pages.
func (a *BigCartel) DiscoverItemURLs(ctx context.Context) ([]string, error) {
	return a.discover(ctx, func(p *extract.Page) []string {
		return extract.DedupeLinks(p.Links(`a[href*="/product/"]`), func(l string) bool {
			return bigCartelItem.MatchString(pathOf(l, a.profile.BaseURL))
		})
	})
}

// ParseDetailPage parses one product page.
func (a *BigCartel) ParseDetailPage(ctx context.Context, url string) (*models.Record, error) {
	p, err := a.load(ctx, url)
	if err != nil {
		return nil, err
	}

	heading := extract.First(
		p.Text("h1.product-title"),
		p.Text(".product-name h1"),
		p.Text("main h1"),
		a.metaTitle(p),
	)
	title, artist := a.titleArtist(heading, "")

	paras := p.Paragraphs(".product-description")
	desc, specs := a.describe(paras, extract.First(
		p.Text(".product-description"),
		p.Description(),
	))

	cover, images := a.images(p, bigCartelGallery)

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

// availability reads the status badge. "Coming soon" items are listed but
// cannot be bought.
func (a *BigCartel) availability(p *extract.Page) models.Availability {
	if p.Has(".sold-out", ".status-sold-out", ".product-status .sold") {
		return models.SoldOut
	}
	status := p.ScopedText(".product-status", ".product-detail", ".product")
	switch {
	case extract.ContainsSoldOut(status):
		return models.SoldOut
	case strings.Contains(status, "coming soon"):
		return models.Unavailable
	}
	return models.Available
}
