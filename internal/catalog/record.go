// Package catalog defines the domain types shared across the ingestion pipeline.
package catalog

// Availability classifies whether an item can currently be purchased.
type Availability string

// Availability values persisted with stock records.
const (
	InStock    Availability = "In stock"
	OutOfStock Availability = "Out of stock"
)

// Record is a single catalog item as it moves through the ingestion
// pipeline. The extractor fills the raw text fields; the normalization
// stages decode them into the typed fields the writer persists.
type Record struct {
	ExternalID  string
	Title       string
	Description string
	Category    string

	// RatingText is the raw class-attribute token, e.g. "star-rating Three".
	RatingText string
	Rating     int

	// PriceText is the raw price text, e.g. "£51.77".
	PriceText string
	Price     float64

	// AvailabilityText is the raw availability text, which may embed a
	// stock count, e.g. "In stock (22 available)".
	AvailabilityText string
	Availability     Availability
	StockCount       int
}
