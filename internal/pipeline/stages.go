package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Aurelien-L/bookcrawler/internal/catalog"
)

var ratingRanks = map[string]int{
	"One":   1,
	"Two":   2,
	"Three": 3,
	"Four":  4,
	"Five":  5,
}

var (
	stockCountPattern = regexp.MustCompile(`\((\d+)\s+available\)`)
	whitespaceRuns    = regexp.MustCompile(`\s+`)
	nonPrintable      = regexp.MustCompile(`[^\x20-\x7E]+`)
)

// currencyGlyph is the symbol the catalog prefixes prices with.
const currencyGlyph = "£"

// DecodeRating maps the last token of the raw rating class attribute
// ("star-rating Three") to its integer rank. Unrecognized tokens, including
// the empty string, decode to 0.
func DecodeRating(rec catalog.Record) catalog.Record {
	rec.Rating = 0
	if parts := strings.Fields(rec.RatingText); len(parts) > 0 {
		rec.Rating = ratingRanks[parts[len(parts)-1]]
	}
	return rec
}

// DecodeAvailability classifies the raw availability text. Text containing
// an "In stock" marker yields InStock plus any embedded "(N available)"
// count; everything else, including empty text, yields OutOfStock with the
// count forced to 0.
func DecodeAvailability(rec catalog.Record) catalog.Record {
	rec.Availability = catalog.OutOfStock
	rec.StockCount = 0

	text := strings.TrimSpace(rec.AvailabilityText)
	if !strings.Contains(text, "In stock") {
		return rec
	}
	rec.Availability = catalog.InStock
	if m := stockCountPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			rec.StockCount = n
		}
	}
	return rec
}

// NormalizeText collapses whitespace runs to a single space, strips
// characters outside the printable-ASCII range from the free-text fields,
// and trims the result.
func NormalizeText(rec catalog.Record) catalog.Record {
	rec.Title = cleanText(rec.Title)
	rec.Description = cleanText(rec.Description)
	return rec
}

func cleanText(s string) string {
	s = whitespaceRuns.ReplaceAllString(s, " ")
	s = nonPrintable.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ParsePrice strips the currency glyph and parses the remainder as a
// decimal. Parse failure yields 0.0; price parsing never aborts ingestion.
func ParsePrice(rec catalog.Record) catalog.Record {
	raw := strings.TrimSpace(strings.ReplaceAll(rec.PriceText, currencyGlyph, ""))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		v = 0.0
	}
	rec.Price = v
	return rec
}
