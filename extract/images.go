package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ImageSet collects image URLs in discovery order: data: URIs are dropped,
// relative URLs resolved, duplicates ignored, and at most max kept (0 = no cap).
type ImageSet struct {
	resolve func(string) string
	max     int
	seen    map[string]struct{}
	urls    []string
}

// NewImageSet returns an empty set. resolve absolutises each URL; nil keeps
// URLs as given.
func NewImageSet(resolve func(string) string, max int) *ImageSet {
	if resolve == nil {
		resolve = func(u string) string { return u }
	}
	return &ImageSet{resolve: resolve, max: max, seen: make(map[string]struct{})}
}

// Add appends raw if it is new. It reports whether the URL was kept.
func (s *ImageSet) Add(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(strings.ToLower(raw), "data:") {
		return false
	}
	if s.Full() {
		return false
	}
	u := s.resolve(raw)
	if u == "" {
		return false
	}
	if _, ok := s.seen[u]; ok {
		return false
	}
	s.seen[u] = struct{}{}
	s.urls = append(s.urls, u)
	return true
}

// Full reports whether the cap has been reached.
func (s *ImageSet) Full() bool {
	return s.max > 0 && len(s.urls) >= s.max
}

// Len returns the number of URLs held.
func (s *ImageSet) Len() int {
	return len(s.urls)
}

// CoverAndRest splits the set into the cover (first image) and the
// remaining images joined by "|".
func (s *ImageSet) CoverAndRest() (string, string) {
	if len(s.urls) == 0 {
		return "", ""
	}
	return s.urls[0], strings.Join(s.urls[1:], "|")
}

// GalleryRule selects gallery images and the attribute priority used to read
// each one. The special attribute "srcset" reads the first srcset entry.
type GalleryRule struct {
	Selector string
	Attrs    []string
}

// DefaultImageAttrs prefers lazy-load and zoom attributes over plain src.
var DefaultImageAttrs = []string{"data-large_image", "data-zoom", "data-src", "srcset", "src"}

// ImageURL reads the image URL of one element following attrs in priority order.
func ImageURL(s *goquery.Selection, attrs []string) string {
	if len(attrs) == 0 {
		attrs = DefaultImageAttrs
	}
	for _, attr := range attrs {
		v, ok := s.Attr(attr)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			continue
		}
		if attr == "srcset" || attr == "data-srcset" {
			v = FirstSrcset(v)
		}
		if v != "" && !strings.HasPrefix(strings.ToLower(v), "data:") {
			return v
		}
	}
	return ""
}

// FirstSrcset returns the URL of the first srcset candidate.
func FirstSrcset(srcset string) string {
	first := strings.TrimSpace(strings.Split(srcset, ",")[0])
	if fields := strings.Fields(first); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// CollectImages applies the image precedence: JSON-LD Product.image, then the
// gallery rule, then og:image. The first stage that yields any URL wins.
func CollectImages(p *Page, gallery GalleryRule, max int) *ImageSet {
	set := NewImageSet(p.Abs, max)

	for _, prod := range p.Products() {
		for _, u := range prod.Images() {
			set.Add(u)
		}
	}
	if set.Len() > 0 {
		return set
	}

	if gallery.Selector != "" {
		p.Doc.Find(gallery.Selector).Each(func(_ int, s *goquery.Selection) {
			set.Add(ImageURL(s, gallery.Attrs))
		})
	}
	if set.Len() > 0 {
		return set
	}

	set.Add(p.Attr(`meta[property="og:image"], meta[name="og:image"]`, "content"))
	return set
}
