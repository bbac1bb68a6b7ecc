package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
)

// Strategy is how a source walks its listing pages.
type Strategy int

const (
	// Single fetches one unpaginated listing page.
	Single Strategy = iota
	// Fixed fetches a page count known in advance.
	Fixed
	// QueryPage increments ?<param>=N until a page yields nothing new.
	QueryPage
	// PathPage increments /page/N/ until a page yields nothing new.
	PathPage
)

func (s Strategy) String() string {
	switch s {
	case Single:
		return "single"
	case Fixed:
		return "fixed"
	case QueryPage:
		return "query"
	case PathPage:
		return "path"
	default:
		return "unknown"
	}
}

// Pagination configures listing discovery. MaxPages is the fixed page count
// for Fixed and the safety bound for QueryPage/PathPage.
type Pagination struct {
	Strategy Strategy
	MaxPages int
	Param    string
}

// WithMaxPages returns a copy with the bound replaced when n > 0.
func (pg Pagination) WithMaxPages(n int) Pagination {
	if n > 0 && pg.Strategy != Single {
		pg.MaxPages = n
	}
	return pg
}

func (pg Pagination) pages() int {
	if pg.Strategy == Single || pg.MaxPages <= 0 {
		return 1
	}
	return pg.MaxPages
}

// PageURL returns the URL of page n (1-based) of listing. A listing holding
// "%d" is formatted directly.
func (pg Pagination) PageURL(listing string, n int) string {
	if strings.Contains(listing, "%d") {
		return fmt.Sprintf(listing, n)
	}
	switch pg.Strategy {
	case QueryPage:
		u, err := url.Parse(listing)
		if err != nil {
			return listing
		}
		param := pg.Param
		if param == "" {
			param = "page"
		}
		q := u.Query()
		q.Set(param, strconv.Itoa(n))
		u.RawQuery = q.Encode()
		return u.String()
	case PathPage, Fixed:
		if n <= 1 {
			return listing
		}
		return strings.TrimSuffix(listing, "/") + "/page/" + strconv.Itoa(n) + "/"
	default:
		return listing
	}
}

// LinkFunc extracts candidate item URLs from one listing page.
type LinkFunc func(p *Page) []string

// Discovery is the outcome of walking a source's listings.
type Discovery struct {
	URLs   []string
	Pages  int
	Capped bool
}

// Discover walks every listing with pg and returns item URLs deduplicated in
// first-seen order. A failure on the first page of a listing is returned; a
// failure on a later page ends that listing early. Open-ended strategies stop
// at the first page that adds no new URL, and hitting MaxPages before that is
// logged and flagged as Capped.
func Discover(ctx context.Context, f Fetcher, base string, listings []string, pg Pagination, links LinkFunc) (*Discovery, error) {
	d := &Discovery{}
	seen := make(map[string]struct{})

	for _, listing := range listings {
		listingURL := NormalizeListing(listing, base)
		limit := pg.pages()
		exhausted := false

		for n := 1; n <= limit; n++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			pageURL := pg.PageURL(listingURL, n)
			page, err := Load(ctx, f, pageURL, base)
			if err != nil {
				if n == 1 {
					return nil, fmt.Errorf("fetch listing %s: %w", pageURL, err)
				}
				slog.Warn("listing page failed, stopping pagination",
					slog.String("url", pageURL),
					slog.Any("error", err),
				)
				exhausted = true
				break
			}
			d.Pages++

			added := 0
			for _, u := range links(page) {
				if _, ok := seen[u]; ok {
					continue
				}
				seen[u] = struct{}{}
				d.URLs = append(d.URLs, u)
				added++
			}
			slog.Debug("listing page",
				slog.String("url", pageURL),
				slog.Int("new_urls", added),
			)

			if added == 0 && (pg.Strategy == QueryPage || pg.Strategy == PathPage) {
				exhausted = true
				break
			}
		}

		if !exhausted && (pg.Strategy == QueryPage || pg.Strategy == PathPage) {
			d.Capped = true
			slog.Warn("pagination bound reached before an empty page; the listing may have changed",
				slog.String("listing", listingURL),
				slog.Int("max_pages", limit),
			)
		}
	}
	return d, nil
}

// NormalizeListing resolves a listing path against base.
func NormalizeListing(listing, base string) string {
	if strings.Contains(listing, "://") {
		return listing
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(listing, "/")
}

// DedupeLinks filters links by keep and removes duplicates, keeping first-seen order.
func DedupeLinks(links []string, keep func(string) bool) []string {
	seen := make(map[string]struct{}, len(links))
	var out []string
	for _, l := range links {
		l = StripFragment(l)
		if keep != nil && !keep(l) {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// StripFragment drops any #fragment from u.
func StripFragment(u string) string {
	if i := strings.Index(u, "#"); i >= 0 {
		return u[:i]
	}
	return u
}
