// Package models defines data structures for the scraper.
package models

import (
	"time"

	"github.com/aluiziolira/go-scrape-catalog/parser"
)

// Availability is the normalised stock state of a catalog item.
type Availability int

const (
	Available Availability = iota
	SoldOut
	Unavailable
)

// String returns the CSV label for the availability state.
func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case SoldOut:
		return "sold out"
	default:
		return "unavailable"
	}
}

// MarshalText lets JSON output carry the label instead of the ordinal.
func (a Availability) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Column keys shared by every source.
const (
	ColTitle        = "title"
	ColArtist       = "artist"
	ColArtistExists = "artistExistsInDb"
	ColDescription  = "description"
	ColSpecs        = "specs"
	ColCoverURL     = "coverUrl"
	ColImages       = "images"
	ColAvailability = "availability"
	ColPurchaseLink = "purchaseLink"
)

// Column is one header entry: the record field key and its CSV label.
type Column struct {
	Key   string
	Label string
}

// Record is the canonical item produced by every source adapter.
type Record struct {
	Title            string       `json:"title"`
	Artist           string       `json:"artist"`
	ArtistExistsInDB bool         `json:"artistExistsInDb"`
	Description      string       `json:"description"`
	Specs            string       `json:"specs,omitempty"`
	CoverURL         string       `json:"coverUrl"`
	Images           string       `json:"images"`
	Availability     Availability `json:"availability"`
	PurchaseLink     string       `json:"purchaseLink"`
}

// Columns returns the ordered header for a source. The specs column sits
// between description and coverUrl when the source separates it.
func Columns(withSpecs bool) []Column {
	keys := []string{ColTitle, ColArtist, ColArtistExists, ColDescription}
	if withSpecs {
		keys = append(keys, ColSpecs)
	}
	keys = append(keys, ColCoverURL, ColImages, ColAvailability, ColPurchaseLink)

	cols := make([]Column, len(keys))
	for i, k := range keys {
		cols[i] = Column{Key: k, Label: k}
	}
	return cols
}

// Value returns the string form of the field named by key.
func (r *Record) Value(key string) string {
	switch key {
	case ColTitle:
		return r.Title
	case ColArtist:
		return r.Artist
	case ColArtistExists:
		if r.ArtistExistsInDB {
			return "true"
		}
		return "false"
	case ColDescription:
		return r.Description
	case ColSpecs:
		return r.Specs
	case ColCoverURL:
		return r.CoverURL
	case ColImages:
		return r.Images
	case ColAvailability:
		return r.Availability.String()
	case ColPurchaseLink:
		return r.PurchaseLink
	default:
		return ""
	}
}

// Row returns the record as an ordered row keyed by column key.
func (r *Record) Row(cols []Column) parser.Row {
	row := make(parser.Row, len(cols))
	for i, c := range cols {
		row[i] = parser.Field{Name: c.Key, Value: r.Value(c.Key)}
	}
	return row
}

// HeaderRow returns the header labels keyed by the same column keys as Row.
func HeaderRow(cols []Column) parser.Row {
	row := make(parser.Row, len(cols))
	for i, c := range cols {
		row[i] = parser.Field{Name: c.Key, Value: c.Label}
	}
	return row
}

// RunResult holds the overall result of one source run.
type RunResult struct {
	Source           string
	StartTime        time.Time
	EndTime          time.Time
	Discovered       int
	Written          int
	Failed           int
	FailedURLs       []string
	ErrorsByType     map[string]int
	RetryCount       int
	RequestCount     int
	FetchErrors      int
	PaginationCapped bool
}
