package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aurelien-L/bookcrawler/internal/catalog"
	"github.com/Aurelien-L/bookcrawler/internal/pipeline"
)

func TestDecodeRating(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "one", raw: "star-rating One", want: 1},
		{name: "two", raw: "star-rating Two", want: 2},
		{name: "three", raw: "star-rating Three", want: 3},
		{name: "four", raw: "star-rating Four", want: 4},
		{name: "five", raw: "star-rating Five", want: 5},
		{name: "zero token", raw: "star-rating Zero", want: 0},
		{name: "unknown token", raw: "star-rating Eleven", want: 0},
		{name: "bare word", raw: "Three", want: 3},
		{name: "empty", raw: "", want: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := pipeline.DecodeRating(catalog.Record{RatingText: tt.raw})
			assert.Equal(t, tt.want, rec.Rating)
		})
	}
}

func TestDecodeAvailability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		wantAvail catalog.Availability
		wantCount int
	}{
		{name: "in stock with count", raw: "In stock (22 available)", wantAvail: catalog.InStock, wantCount: 22},
		{name: "in stock surrounded by noise", raw: "\n    \n        In stock (3 available)\n    \n", wantAvail: catalog.InStock, wantCount: 3},
		{name: "in stock without count", raw: "In stock", wantAvail: catalog.InStock, wantCount: 0},
		{name: "out of stock", raw: "Out of stock", wantAvail: catalog.OutOfStock, wantCount: 0},
		{name: "count without marker", raw: "(5 available)", wantAvail: catalog.OutOfStock, wantCount: 0},
		{name: "empty", raw: "", wantAvail: catalog.OutOfStock, wantCount: 0},
		{name: "garbage", raw: "ask a librarian", wantAvail: catalog.OutOfStock, wantCount: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := pipeline.DecodeAvailability(catalog.Record{AvailabilityText: tt.raw})
			assert.Equal(t, tt.wantAvail, rec.Availability)
			assert.Equal(t, tt.wantCount, rec.StockCount)
			if rec.Availability == catalog.OutOfStock {
				assert.Zero(t, rec.StockCount, "out of stock must force a zero count")
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "collapses runs", in: "A   Light\n\tin the  Attic", want: "A Light in the Attic"},
		{name: "strips non ascii", in: "It’s a test", want: "Its a test"},
		{name: "trims", in: "   padded   ", want: "padded"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := pipeline.NormalizeText(catalog.Record{Title: tt.in, Description: tt.in})
			assert.Equal(t, tt.want, rec.Title)
			assert.Equal(t, tt.want, rec.Description)
		})
	}
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "currency prefix", raw: "£51.77", want: 51.77},
		{name: "surrounding whitespace", raw: "  £13.50 ", want: 13.5},
		{name: "no glyph", raw: "20.00", want: 20.0},
		{name: "malformed", raw: "N/A", want: 0.0},
		{name: "empty", raw: "", want: 0.0},
		{name: "glyph only", raw: "£", want: 0.0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := pipeline.ParsePrice(catalog.Record{PriceText: tt.raw})
			assert.InDelta(t, tt.want, rec.Price, 0.0001)
		})
	}
}

func TestPipelineRunNormalizesRawRecord(t *testing.T) {
	t.Parallel()

	raw := catalog.Record{
		ExternalID:       "a897fe39b1053632",
		Title:            "A Light in the\n    Attic",
		Description:      "It’s hard to imagine   a world without it.",
		Category:         "Poetry",
		RatingText:       "star-rating Three",
		PriceText:        "£51.77",
		AvailabilityText: "\n    In stock (22 available)\n",
	}

	rec := pipeline.New().Run(raw)

	assert.Equal(t, "a897fe39b1053632", rec.ExternalID)
	assert.Equal(t, "A Light in the Attic", rec.Title)
	assert.Equal(t, "Its hard to imagine a world without it.", rec.Description)
	assert.Equal(t, "Poetry", rec.Category)
	assert.Equal(t, 3, rec.Rating)
	assert.InDelta(t, 51.77, rec.Price, 0.0001)
	assert.Equal(t, catalog.InStock, rec.Availability)
	assert.Equal(t, 22, rec.StockCount)
}
