// Package parser holds the source-agnostic text, URL and CSV transforms
// shared by every catalog source.
package parser

import (
	"regexp"
	"strings"
)

// CSVDelimiter separates fields in emitted CSV.
const CSVDelimiter = ","

// Field is one named value of an output row.
type Field struct {
	Name  string
	Value string
}

// Row is an ordered mapping of column name to value. Order is the column order.
type Row []Field

// Names returns the column names in row order.
func (r Row) Names() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = f.Name
	}
	return out
}

// EscapeCSV quotes value when it contains the delimiter, a double quote or a
// line break, doubling any embedded quotes. Other values pass through unchanged.
func EscapeCSV(value, delimiter string) string {
	if delimiter == "" {
		delimiter = CSVDelimiter
	}
	if strings.Contains(value, delimiter) || strings.ContainsAny(value, "\"\n\r") {
		return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
	}
	return value
}

// RowToCSV renders row as one CSV line, preserving field order.
func RowToCSV(row Row) string {
	parts := make([]string, len(row))
	for i, f := range row {
		parts[i] = EscapeCSV(f.Value, CSVDelimiter)
	}
	return strings.Join(parts, CSVDelimiter)
}

// NormalizeURL makes protocol-relative and root-relative URLs absolute.
// Anything else is assumed to be absolute already and returned as is.
func NormalizeURL(url, base string) string {
	switch {
	case strings.HasPrefix(url, "//"):
		return "https:" + url
	case strings.HasPrefix(url, "/"):
		return strings.TrimSuffix(base, "/") + url
	default:
		return url
	}
}

var nbspPattern = regexp.MustCompile(`(?i)&nbsp;`)

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
)

// DecodeHTMLEntities decodes the small fixed set of entities scraped text
// tends to carry. It is not a general entity decoder.
func DecodeHTMLEntities(s string) string {
	s = nbspPattern.ReplaceAllString(s, " ")
	return entityReplacer.Replace(s)
}

// CollapseWhitespace folds runs of whitespace into single spaces and trims.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanText decodes entities and collapses whitespace.
func CleanText(s string) string {
	return CollapseWhitespace(DecodeHTMLEntities(s))
}
