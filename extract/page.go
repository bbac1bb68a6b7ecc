// Package extract holds the goquery helpers every source adapter builds its
// fallback chains from: meta tags, canonical links, JSON-LD products, image
// galleries, availability signals and listing pagination.
package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-catalog/parser"
)

// Fetcher returns the body of a page.
type Fetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// Page is a parsed document plus the URL it came from and the origin used to
// absolutise relative links.
type Page struct {
	Doc  *goquery.Document
	URL  string
	Base string

	products []Product
	parsedLD bool
}

// NewPage parses html fetched from pageURL.
func NewPage(html, pageURL, base string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", pageURL, err)
	}
	return &Page{Doc: doc, URL: pageURL, Base: base}, nil
}

// Load fetches pageURL and parses it.
func Load(ctx context.Context, f Fetcher, pageURL, base string) (*Page, error) {
	html, err := f.FetchHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return NewPage(html, pageURL, base)
}

// First returns the first non-empty value.
func First(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Abs resolves a root- or protocol-relative URL against the page origin.
// Document-relative paths ("img/a.jpg") resolve against the page URL.
func (p *Page) Abs(u string) string {
	u = parser.NormalizeURL(strings.TrimSpace(u), p.Base)
	if u == "" || strings.Contains(u, "://") {
		return u
	}
	ref, err := url.Parse(u)
	if err != nil || ref.Scheme != "" {
		return u
	}
	from, err := url.Parse(p.URL)
	if err != nil || from.Host == "" {
		return u
	}
	return from.ResolveReference(ref).String()
}

// Text returns the cleaned text of the first element matching sel.
func (p *Page) Text(sel string) string {
	return parser.CleanText(p.Doc.Find(sel).First().Text())
}

// Texts returns the cleaned, non-empty texts of every element matching sel.
func (p *Page) Texts(sel string) []string {
	var out []string
	p.Doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		if t := parser.CleanText(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// Attr returns the first non-empty attr among elements matching sel.
func (p *Page) Attr(sel, attr string) string {
	var out string
	p.Doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			out = strings.TrimSpace(v)
			return false
		}
		return true
	})
	return out
}

// Meta returns the content of <meta property=key> or <meta name=key>.
func (p *Page) Meta(key string) string {
	sel := fmt.Sprintf(`meta[property=%q], meta[name=%q], meta[itemprop=%q]`, key, key, key)
	return parser.CleanText(p.Attr(sel, "content"))
}

// Description is the generic <meta name="description"> fallback.
func (p *Page) Description() string {
	return p.Meta("description")
}

// Canonical returns the canonical link, else og:url, else the fetched URL,
// resolved against the origin.
func (p *Page) Canonical() string {
	return p.Abs(First(
		p.Attr(`link[rel="canonical"]`, "href"),
		p.Meta("og:url"),
		p.URL,
	))
}

// Has reports whether any selector matches.
func (p *Page) Has(selectors ...string) bool {
	for _, sel := range selectors {
		if sel != "" && p.Doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

// ScopedText returns the lower-cased text of the first selector that
// matches, falling back to the whole body.
func (p *Page) ScopedText(selectors ...string) string {
	for _, sel := range selectors {
		if s := p.Doc.Find(sel); s.Length() > 0 {
			return strings.ToLower(parser.CollapseWhitespace(s.Text()))
		}
	}
	return strings.ToLower(parser.CollapseWhitespace(p.Doc.Find("body").Text()))
}

// Links returns the absolute hrefs of every anchor matching sel, in document order.
func (p *Page) Links(sel string) []string {
	var out []string
	p.Doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" || strings.HasPrefix(href, "#") {
			return
		}
		out = append(out, p.Abs(href))
	})
	return out
}

// Paragraphs returns the cleaned text of each <p> under sel, skipping blanks.
func (p *Page) Paragraphs(sel string) []string {
	return p.Texts(sel + " p")
}
