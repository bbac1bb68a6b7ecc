package sources

import (
	"context"
	"regexp"

	"github.com/aluiziolira/go-scrape-catalog/extract"
	"github.com/aluiziolira/go-scrape-catalog/models"
)

var (
	squarespaceItem    = regexp.MustCompile(`^/shop/p/[A-Za-z0-9-]+/?$`)
	squarespaceGallery = extract.GalleryRule{
		Selector: ".ProductItem-gallery-slides-item img, .product-gallery img",
		Attrs:    []string{"data-src", "data-image", "srcset", "src"},
	}
)

// Squarespace parses Squarespace commerce sites. The shop is a single
// unpaginated page linking to /shop/p/<slug>.
type Squarespace struct {
	site
}

// NewSquarespace builds a Squarespace adapter for p.
func NewSquarespace(p Profile, d Deps) (*Squarespace, error) {
	s, err := newSite(p, d)
	if err != nil {
		return nil, err
	}
	return &Squarespace{site: s}, nil
}

// DiscoverItemURLs reads the shop page.
func (a *Squarespace) DiscoverItemURLs(ctx context.Context) ([]string, error) {
	return a.discover(ctx, func(p *extract.Page) []string {
		return extract.DedupeLinks(p.Links(`a[href*="/shop/p/"]`), func(l string) bool {
			return squarespaceItem.MatchString(pathOf(l, a.profile.BaseURL))
		})
	})
}

// ParseDetailPage parses one product page.
func (a *Squarespace) ParseDetailPage(ctx context.Context, url string) (*models.Record, error) {
	p, err := a.load(ctx, url)
	if err != nil {
		return nil, err
	}

	heading := extract.First(
		p.Text("h1.ProductItem-details-title"),
		p.Text("h1.product-title"),
		a.metaTitle(p),
		p.ProductStr("name"),
	)
	title, artist := a.titleArtist(heading, brand(p))

	paras := p.Paragraphs(".ProductItem-details-excerpt")
	desc, specs := a.describe(paras, extract.First(
		p.Text(".ProductItem-details-excerpt"),
		p.Text(".product-excerpt"),
		p.Description(),
	))

	cover, images := a.images(p, squarespaceGallery)

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

func (a *Squarespace) availability(p *extract.Page) models.Availability {
	if av, ok := metaAvailability(p); ok {
		return av
	}
	if p.Has(".product-mark.sold-out", ".ProductItem-details .sold-out") {
		return models.SoldOut
	}
	if extract.ContainsSoldOut(p.ScopedText(".ProductItem-details", ".product-detail")) {
		return models.SoldOut
	}
	return models.Available
}
