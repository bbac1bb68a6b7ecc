package extract

import "strings"

// Occurrence selects which occurrence of a delimiter splits a heading.
type Occurrence int

const (
	FirstOccurrence Occurrence = iota
	LastOccurrence
)

// Side names the half of a split heading that holds the artist.
type Side int

const (
	ArtistLeft Side = iota
	ArtistRight
)

// SplitRule splits a combined "title / artist" heading. The first delimiter
// in Delimiters that occurs in the heading is used.
type SplitRule struct {
	Delimiters []string
	Occurrence Occurrence
	Artist     Side
}

// Split returns title and artist. ok is false when no delimiter occurs, in
// which case title is the whole trimmed heading.
func (r SplitRule) Split(heading string) (title, artist string, ok bool) {
	heading = strings.TrimSpace(heading)
	for _, d := range r.Delimiters {
		var i int
		if r.Occurrence == LastOccurrence {
			i = strings.LastIndex(heading, d)
		} else {
			i = strings.Index(heading, d)
		}
		if i < 0 {
			continue
		}
		left := strings.TrimSpace(heading[:i])
		right := strings.TrimSpace(heading[i+len(d):])
		if r.Artist == ArtistLeft {
			return right, left, true
		}
		return left, right, true
	}
	return heading, "", false
}

// SlugToName turns "daido-moriyama" into "Daido Moriyama".
func SlugToName(slug string) string {
	parts := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
