package sources

import (
	"context"
	"regexp"

	"github.com/aluiziolira/go-scrape-catalog/extract"
	"github.com/aluiziolira/go-scrape-catalog/models"
)

var (
	// /books/<artist-slug>/<title-slug>/
	staticItem    = regexp.MustCompile(`^/books/([a-z0-9-]+)/([a-z0-9-]+)/?$`)
	staticGallery = extract.GalleryRule{
		Selector: ".entry-content img, article figure img",
		Attrs:    []string{"data-src", "srcset", "src"},
	}
)

// Static parses hand-built publisher sites with a fixed number of listing
// pages and the artist encoded in the item URL.
type Static struct {
	site
}

// NewStatic builds a static-site adapter for p.
func NewStatic(p Profile, d Deps) (*Static, error) {
	s, err := newSite(p, d)
	if err != nil {
		return nil, err
	}
	return &Static{site: s}, nil
}

// DiscoverItemURLs reads every listing page.
func (a *Static) DiscoverItemURLs(ctx context.Context) ([]string, error) {
	return a.discover(ctx, func(p *extract.Page) []string {
		return extract.DedupeLinks(p.Links("a[href]"), func(l string) bool {
			m := staticItem.FindStringSubmatch(pathOf(l, a.profile.BaseURL))
			return m != nil && m[1] != "page"
		})
	})
}

// ParseDetailPage parses one book page.
func (a *Static) ParseDetailPage(ctx context.Context, url string) (*models.Record, error) {
	p, err := a.load(ctx, url)
	if err != nil {
		return nil, err
	}

	title, _ := a.titleArtist(extract.First(
		p.Text("article h1"),
		p.Text("h1"),
		a.metaTitle(p),
	), "")

	var artist string
	if m := staticItem.FindStringSubmatch(pathOf(url, a.profile.BaseURL)); m != nil {
		artist = extract.SlugToName(m[1])
	}

	desc, specs := a.describe(p.Paragraphs(".entry-content"), p.Description())
	cover, images := a.images(p, staticGallery)

	av := models.Available
	if p.Has(".sold-out", ".soldout") || extract.ContainsSoldOut(p.ScopedText(".entry-content", "article")) {
		av = models.SoldOut
	}

	return a.finish(ctx, p, &models.Record{
		Title:        title,
		Artist:       artist,
		Description:  desc,
		Specs:        specs,
		CoverURL:     cover,
		Images:       images,
		Availability: av,
	})
}
