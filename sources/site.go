// Package sources holds the per-publisher adapters. Every adapter discovers
// item URLs from a publisher's listing pages and parses one detail page into
// a models.Record. Adapters are grouped by the shop platform the publisher
// runs on; per-publisher differences live in an immutable Profile.
package sources

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aluiziolira/go-scrape-catalog/extract"
	"github.com/aluiziolira/go-scrape-catalog/models"
	"github.com/aluiziolira/go-scrape-catalog/parser"
)

// Adapter is the contract every source satisfies.
type Adapter interface {
	Name() string
	Columns() []models.Column
	DiscoverItemURLs(ctx context.Context) ([]string, error)
	ParseDetailPage(ctx context.Context, url string) (*models.Record, error)
}

// ArtistChecker resolves artistExistsInDb.
type ArtistChecker interface {
	ArtistExists(ctx context.Context, name string) (bool, error)
}

// Deps are the collaborators injected into every adapter.
type Deps struct {
	Fetcher  extract.Fetcher
	Creators ArtistChecker
}

// Family names the shop platform an adapter parses.
type Family string

const (
	FamilyShopify     Family = "shopify"
	FamilyWooCommerce Family = "woocommerce"
	FamilySquarespace Family = "squarespace"
	FamilyBigCartel   Family = "bigcartel"
	FamilyStatic      Family = "static"
)

// SpecsMode says whether and how a source separates physical specs from
// the narrative description.
type SpecsMode int

const (
	// NoSpecs emits no specs column.
	NoSpecs SpecsMode = iota
	// FirstParagraphSpecs takes the first description paragraph as specs.
	FirstParagraphSpecs
	// LabeledSpecs takes the paragraph starting with SpecsLabel, label stripped.
	LabeledSpecs
)

// Profile is the immutable per-publisher configuration.
type Profile struct {
	Name       string
	Family     Family
	BaseURL    string
	Listings   []string
	Pagination extract.Pagination
	MaxImages  int

	// Split, when set, derives title and artist from the heading.
	Split *extract.SplitRule
	// TitleSuffix is stripped from meta titles ("Book | Shop").
	TitleSuffix *regexp.Regexp
	// Boilerplate sentences removed from descriptions.
	Boilerplate []string

	Specs         SpecsMode
	SpecsLabel    string
	NoDescription bool
}

// Columns returns the header order for records of this profile.
func (p Profile) Columns() []models.Column {
	return models.Columns(p.Specs != NoSpecs)
}

// site carries what every family adapter shares.
type site struct {
	profile     Profile
	deps        Deps
	boilerplate []*regexp.Regexp
	capped      bool
}

func newSite(p Profile, d Deps) (site, error) {
	if p.BaseURL == "" {
		return site{}, fmt.Errorf("source %s: base url cannot be empty", p.Name)
	}
	if len(p.Listings) == 0 {
		return site{}, fmt.Errorf("source %s: no listing paths", p.Name)
	}
	if d.Fetcher == nil {
		return site{}, fmt.Errorf("source %s: fetcher is required", p.Name)
	}
	if d.Creators == nil {
		return site{}, fmt.Errorf("source %s: creator checker is required", p.Name)
	}
	p.BaseURL = strings.TrimSuffix(p.BaseURL, "/")
	return site{profile: p, deps: d, boilerplate: compileBoilerplate(p.Boilerplate)}, nil
}

// Name returns the source name.
func (s *site) Name() string {
	return s.profile.Name
}

// Columns returns the header order.
func (s *site) Columns() []models.Column {
	return s.profile.Columns()
}

// Profile returns the adapter configuration.
func (s *site) Profile() Profile {
	return s.profile
}

// PaginationCapped reports whether the last discovery hit its page bound.
func (s *site) PaginationCapped() bool {
	return s.capped
}

func (s *site) discover(ctx context.Context, links extract.LinkFunc) ([]string, error) {
	d, err := extract.Discover(ctx, s.deps.Fetcher, s.profile.BaseURL, s.profile.Listings, s.profile.Pagination, links)
	if err != nil {
		return nil, fmt.Errorf("%s: discover items: %w", s.profile.Name, err)
	}
	s.capped = d.Capped
	slog.Info("discovered item urls",
		slog.String("source", s.profile.Name),
		slog.Int("urls", len(d.URLs)),
		slog.Int("listing_pages", d.Pages),
		slog.String("pagination", s.profile.Pagination.Strategy.String()),
	)
	return d.URLs, nil
}

func (s *site) load(ctx context.Context, url string) (*extract.Page, error) {
	return extract.Load(ctx, s.deps.Fetcher, url, s.profile.BaseURL)
}

// metaTitle returns og:title, then <title>, with the source suffix stripped.
func (s *site) metaTitle(p *extract.Page) string {
	t := extract.First(p.Meta("og:title"), p.Text("title"))
	if s.profile.TitleSuffix != nil {
		t = s.profile.TitleSuffix.ReplaceAllString(t, "")
	}
	return strings.TrimSpace(t)
}

// titleArtist applies the profile split rule to heading. Without a rule, or
// when the heading has no delimiter, the heading is the title and fallbackArtist
// the artist.
func (s *site) titleArtist(heading, fallbackArtist string) (string, string) {
	heading = parser.CleanText(heading)
	if s.profile.Split != nil {
		if title, artist, ok := s.profile.Split.Split(heading); ok {
			return title, artist
		}
	}
	return heading, parser.CleanText(fallbackArtist)
}

// describe splits description paragraphs into (description, specs) per the
// profile and strips boilerplate. fallback is used when paras is empty.
func (s *site) describe(paras []string, fallback string) (string, string) {
	var specs string
	switch s.profile.Specs {
	case FirstParagraphSpecs:
		if len(paras) > 0 {
			specs, paras = paras[0], paras[1:]
		}
	case LabeledSpecs:
		label := strings.ToLower(s.profile.SpecsLabel)
		rest := paras[:0:0]
		for _, p := range paras {
			if specs == "" && label != "" && strings.HasPrefix(strings.ToLower(p), label) {
				specs = strings.TrimSpace(p[len(label):])
				continue
			}
			rest = append(rest, p)
		}
		paras = rest
	}

	desc := strings.Join(paras, " ")
	if desc == "" && len(paras) == 0 && specs == "" {
		desc = fallback
	}
	if s.profile.NoDescription {
		desc = ""
	}
	return s.stripBoilerplate(parser.CleanText(desc)), parser.CleanText(specs)
}

// compileBoilerplate turns literal sentences into case-insensitive matchers.
func compileBoilerplate(sentences []string) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, b := range sentences {
		if b == "" {
			continue
		}
		out = append(out, regexp.MustCompile(`(?i)\s*`+regexp.QuoteMeta(b)+`\s*`))
	}
	return out
}

func (s *site) stripBoilerplate(text string) string {
	for _, re := range s.boilerplate {
		text = re.ReplaceAllString(text, " ")
	}
	return parser.CollapseWhitespace(text)
}

func (s *site) images(p *extract.Page, gallery extract.GalleryRule) (string, string) {
	return extract.CollectImages(p, gallery, s.profile.MaxImages).CoverAndRest()
}

// metaAvailability reads product:availability, then JSON-LD offers.
func metaAvailability(p *extract.Page) (models.Availability, bool) {
	if a, ok := extract.ParseAvailability(p.Meta("product:availability")); ok {
		return a, true
	}
	if a, ok := extract.ParseAvailability(p.Meta("og:availability")); ok {
		return a, true
	}
	for _, prod := range p.Products() {
		if a, ok := extract.ParseAvailability(prod.Availability()); ok {
			return a, true
		}
	}
	return models.Available, false
}

// finish fills the purchase link and resolves the artist against the
// creator index. Lookup failures propagate and skip the item.
func (s *site) finish(ctx context.Context, p *extract.Page, rec *models.Record) (*models.Record, error) {
	rec.PurchaseLink = p.Canonical()

	exists, err := s.deps.Creators.ArtistExists(ctx, rec.Artist)
	if err != nil {
		return nil, err
	}
	rec.ArtistExistsInDB = exists
	return rec, nil
}

// pathOf returns the path of an absolute URL on base, without query.
func pathOf(u, base string) string {
	u = strings.TrimPrefix(u, base)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return u
}
