// Package extract pulls raw field values out of item detail pages using a
// declarative per-field selector table.
package extract

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"

	"github.com/Aurelien-L/bookcrawler/internal/catalog"
)

// Field names the extractor knows how to place into a catalog record.
const (
	FieldTitle        = "title"
	FieldPrice        = "price"
	FieldAvailability = "availability"
	FieldDescription  = "description"
	FieldCategory     = "category"
	FieldRating       = "rating"
	FieldExternalID   = "external_id"
)

var knownFields = map[string]struct{}{
	FieldTitle:        {},
	FieldPrice:        {},
	FieldAvailability: {},
	FieldDescription:  {},
	FieldCategory:     {},
	FieldRating:       {},
	FieldExternalID:   {},
}

// FieldSpec declares how one field is read from a document.
type FieldSpec struct {
	// Selector is a CSS selector; the first match wins.
	Selector string
	// Attr names an attribute to read instead of the text content.
	Attr string
	// Default is used when the selector matches nothing.
	Default string
}

// DetailFields returns the selector table for catalog item detail pages.
func DetailFields() map[string]FieldSpec {
	return map[string]FieldSpec{
		FieldTitle:        {Selector: "h1", Default: "Unknown Title"},
		FieldPrice:        {Selector: ".price_color", Default: "0"},
		FieldAvailability: {Selector: ".instock.availability", Default: ""},
		FieldDescription:  {Selector: "#product_description ~ p", Default: ""},
		FieldCategory:     {Selector: ".breadcrumb li:nth-child(3) a", Default: "Unknown"},
		FieldRating:       {Selector: "p.star-rating", Attr: "class", Default: "star-rating Zero"},
		FieldExternalID:   {Selector: "table.table.table-striped tr:nth-child(1) td", Default: ""},
	}
}

// ParseError reports a document that could not be parsed as HTML at all.
// A field whose selector matches nothing is never an error; it resolves to
// the field's declared default.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse document: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Extractor reads a fixed set of fields out of one HTML document.
type Extractor struct {
	fields map[string]FieldSpec
}

// New validates the field table and builds an Extractor. An unsupported
// field name is a construction-time error, not a runtime surprise.
func New(fields map[string]FieldSpec) (*Extractor, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("field table is empty")
	}
	specs := make(map[string]FieldSpec, len(fields))
	for name, spec := range fields {
		if _, ok := knownFields[name]; !ok {
			return nil, fmt.Errorf("unsupported field %q", name)
		}
		if spec.Selector == "" {
			return nil, fmt.Errorf("field %q has no selector", name)
		}
		specs[name] = spec
	}
	return &Extractor{fields: specs}, nil
}

// Extract parses one HTML document and returns every declared field,
// defaulted per field when its selector matches nothing.
func (e *Extractor) Extract(r io.Reader) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	out := make(map[string]string, len(e.fields))
	for name, spec := range e.fields {
		out[name] = firstMatch(doc, spec)
	}
	return out, nil
}

func firstMatch(doc *goquery.Document, spec FieldSpec) string {
	sel := doc.Find(spec.Selector).First()
	if sel.Length() == 0 {
		return spec.Default
	}
	if spec.Attr != "" {
		val, ok := sel.Attr(spec.Attr)
		if !ok || val == "" {
			return spec.Default
		}
		return val
	}
	return sel.Text()
}

// RecordFromFields maps an extracted field set onto a raw catalog record,
// ready for the normalization pipeline.
func RecordFromFields(fields map[string]string) catalog.Record {
	return catalog.Record{
		ExternalID:       fields[FieldExternalID],
		Title:            fields[FieldTitle],
		Description:      fields[FieldDescription],
		Category:         fields[FieldCategory],
		RatingText:       fields[FieldRating],
		PriceText:        fields[FieldPrice],
		AvailabilityText: fields[FieldAvailability],
	}
}
