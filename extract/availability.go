package extract

import (
	"strings"

	"github.com/aluiziolira/go-scrape-catalog/models"
)

var soldOutPhrases = []string{"sold out", "sold-out", "out of stock"}

// ContainsSoldOut reports whether text mentions a sold-out phrase, ignoring case.
func ContainsSoldOut(text string) bool {
	text = strings.ToLower(text)
	for _, phrase := range soldOutPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// ParseAvailability maps a product:availability meta value or a schema.org
// offers availability into the normalised enumeration. ok is false for an
// empty value. Unrecognised values (preorder, discontinued, ...) map to Unavailable.
func ParseAvailability(value string) (models.Availability, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return models.Unavailable, false
	}
	v = strings.TrimPrefix(v, "https://schema.org/")
	v = strings.TrimPrefix(v, "http://schema.org/")
	v = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(v)

	switch v {
	case "instock", "available", "limitedavailability", "onlineonly", "instoreonly":
		return models.Available, true
	case "oos", "outofstock", "soldout":
		return models.SoldOut, true
	default:
		return models.Unavailable, true
	}
}
