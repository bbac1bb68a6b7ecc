package sources

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/aluiziolira/go-scrape-catalog/extract"
)

var (
	dashes   = []string{" – ", " — ", " - "}
	hyphen   = []string{" - "}
	byArtist = []string{" by "}
	pipe     = []string{" | "}
)

func split(delims []string, occ extract.Occurrence, side extract.Side) *extract.SplitRule {
	return &extract.SplitRule{Delimiters: delims, Occurrence: occ, Artist: side}
}

func suffix(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\s*` + pattern + `\s*$`)
}

var shopifyPages = extract.Pagination{Strategy: extract.QueryPage, MaxPages: 20, Param: "page"}

var profiles = []Profile{
	{
		Name:        "mack",
		Family:      FamilyShopify,
		BaseURL:     "https://mackbooks.co.uk",
		Listings:    []string{"/collections/books"},
		Pagination:  shopifyPages,
		TitleSuffix: suffix(`\|\s*MACK`),
	},
	{
		Name:        "stanleybarker",
		Family:      FamilyShopify,
		BaseURL:     "https://stanleybarker.co.uk",
		Listings:    []string{"/collections/books"},
		Pagination:  shopifyPages,
		MaxImages:   7,
		Split:       split(dashes, extract.FirstOccurrence, extract.ArtistLeft),
		TitleSuffix: suffix(`[–-]\s*Stanley/Barker`),
	},
	{
		Name:        "loosejoints",
		Family:      FamilyShopify,
		BaseURL:     "https://loosejoints.biz",
		Listings:    []string{"/collections/publications"},
		Pagination:  shopifyPages,
		Split:       split(byArtist, extract.LastOccurrence, extract.ArtistRight),
		TitleSuffix: suffix(`[–-]\s*Loose Joints`),
	},
	{
		Name:        "void",
		Family:      FamilyShopify,
		BaseURL:     "https://void.photo",
		Listings:    []string{"/collections/books"},
		Pagination:  shopifyPages,
		MaxImages:   5,
		Split:       split(hyphen, extract.FirstOccurrence, extract.ArtistLeft),
		TitleSuffix: suffix(`\|\s*VOID`),
		Boilerplate: []string{"EU customers: VAT is included in the price and no additional import duties apply."},
	},
	{
		Name:        "witty",
		Family:      FamilyShopify,
		BaseURL:     "https://wittykiwi.com",
		Listings:    []string{"/collections/all-books"},
		Pagination:  shopifyPages,
		TitleSuffix: suffix(`[–-]\s*Witty Books`),
		Specs:       FirstParagraphSpecs,
	},
	{
		Name:       "setanta",
		Family:     FamilyWooCommerce,
		BaseURL:    "https://setantabooks.com",
		Listings:   []string{"/shop/"},
		Pagination: extract.Pagination{Strategy: extract.PathPage, MaxPages: 10},
		Specs:      LabeledSpecs,
		SpecsLabel: "Details:",
	},
	{
		Name:        "kominek",
		Family:      FamilyWooCommerce,
		BaseURL:     "https://kominek-books.com",
		Listings:    []string{"/shop/"},
		Pagination:  extract.Pagination{Strategy: extract.PathPage, MaxPages: 10},
		Split:       split(pipe, extract.FirstOccurrence, extract.ArtistRight),
		TitleSuffix: suffix(`[–-]\s*Kominek`),
	},
	{
		Name:        "chosecommune",
		Family:      FamilyWooCommerce,
		BaseURL:     "https://chosecommune.com",
		Listings:    []string{"/boutique/"},
		Pagination:  extract.Pagination{Strategy: extract.PathPage, MaxPages: 10},
		MaxImages:   7,
		Split:       split(dashes, extract.LastOccurrence, extract.ArtistRight),
		TitleSuffix: suffix(`[–-]\s*Chose Commune`),
	},
	{
		Name:        "rrb",
		Family:      FamilyWooCommerce,
		BaseURL:     "https://rrbphotobooks.com",
		Listings:    []string{"/shop/"},
		Pagination:  extract.Pagination{Strategy: extract.PathPage, MaxPages: 20},
		MaxImages:   5,
		Split:       split(hyphen, extract.FirstOccurrence, extract.ArtistLeft),
		TitleSuffix: suffix(`[–-]\s*RRB Photobooks`),
		Boilerplate: []string{"Please note: orders outside the UK may be subject to import VAT."},
	},
	{
		Name:        "dashwood",
		Family:      FamilySquarespace,
		BaseURL:     "https://www.dashwoodbooks.com",
		Listings:    []string{"/shop"},
		Pagination:  extract.Pagination{Strategy: extract.Single},
		Split:       split(hyphen, extract.FirstOccurrence, extract.ArtistLeft),
		TitleSuffix: suffix(`[—–-]\s*Dashwood Books`),
	},
	{
		Name:        "gost",
		Family:      FamilySquarespace,
		BaseURL:     "https://www.gostbooks.com",
		Listings:    []string{"/shop"},
		Pagination:  extract.Pagination{Strategy: extract.Single},
		Split:       split(byArtist, extract.LastOccurrence, extract.ArtistRight),
		TitleSuffix: suffix(`[—–-]\s*GOST Books`),
	},
	{
		Name:        "bemojake",
		Family:      FamilyBigCartel,
		BaseURL:     "https://bemojake.bigcartel.com",
		Listings:    []string{"/products"},
		Pagination:  extract.Pagination{Strategy: extract.QueryPage, MaxPages: 10, Param: "page"},
		Split:       split(dashes, extract.FirstOccurrence, extract.ArtistLeft),
		TitleSuffix: suffix(`\|\s*Bemojake`),
	},
	{
		Name:        "skinnerboox",
		Family:      FamilyBigCartel,
		BaseURL:     "https://skinnerboox.bigcartel.com",
		Listings:    []string{"/products"},
		Pagination:  extract.Pagination{Strategy: extract.QueryPage, MaxPages: 10, Param: "page"},
		MaxImages:   7,
		Split:       split(hyphen, extract.LastOccurrence, extract.ArtistRight),
		TitleSuffix: suffix(`\|\s*Skinnerboox`),
		Specs:       FirstParagraphSpecs,
	},
	{
		Name:          "lodret",
		Family:        FamilyStatic,
		BaseURL:       "https://lodretforlag.dk",
		Listings:      []string{"/books/"},
		Pagination:    extract.Pagination{Strategy: extract.Fixed, MaxPages: 3},
		MaxImages:     7,
		Split:         split(dashes, extract.FirstOccurrence, extract.ArtistLeft),
		TitleSuffix:   suffix(`[–-]\s*Lodret`),
		Specs:         FirstParagraphSpecs,
		NoDescription: true,
	},
}

// Option adjusts a profile before its adapter is built.
type Option func(*Profile)

// WithBaseURL points the source at another origin.
func WithBaseURL(base string) Option {
	return func(p *Profile) {
		p.BaseURL = base
	}
}

// WithMaxPages overrides the pagination bound.
func WithMaxPages(n int) Option {
	return func(p *Profile) {
		p.Pagination = p.Pagination.WithMaxPages(n)
	}
}

// Names returns the registered source names, sorted.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the registered profile for name.
func Lookup(name string) (Profile, bool) {
	for _, p := range profiles {
		if p.Name == name {
			p.Listings = append([]string(nil), p.Listings...)
			p.Boilerplate = append([]string(nil), p.Boilerplate...)
			return p, true
		}
	}
	return Profile{}, false
}

// New builds the adapter registered under name.
func New(name string, deps Deps, opts ...Option) (Adapter, error) {
	p, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown source %q", name)
	}
	for _, opt := range opts {
		opt(&p)
	}
	return Build(p, deps)
}

// Build constructs the family adapter for p.
func Build(p Profile, deps Deps) (Adapter, error) {
	switch p.Family {
	case FamilyShopify:
		a, err := NewShopify(p, deps)
		return adapter(a, err)
	case FamilyWooCommerce:
		a, err := NewWooCommerce(p, deps)
		return adapter(a, err)
	case FamilySquarespace:
		a, err := NewSquarespace(p, deps)
		return adapter(a, err)
	case FamilyBigCartel:
		a, err := NewBigCartel(p, deps)
		return adapter(a, err)
	case FamilyStatic:
		a, err := NewStatic(p, deps)
		return adapter(a, err)
	default:
		return nil, fmt.Errorf("source %s: unknown family %q", p.Name, p.Family)
	}
}

// adapter keeps a failed constructor from yielding a non-nil Adapter.
func adapter[T Adapter](a T, err error) (Adapter, error) {
	if err != nil {
		return nil, err
	}
	return a, nil
}
