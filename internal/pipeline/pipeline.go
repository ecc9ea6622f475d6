// Package pipeline normalizes raw extracted records before persistence.
package pipeline

import "github.com/Aurelien-L/bookcrawler/internal/catalog"

// Stage is one pure transformation step. A stage never fails; malformed
// input degrades to the stage's documented default so ingestion stays live.
type Stage func(catalog.Record) catalog.Record

// Pipeline applies stages in a fixed order, so later stages may rely on the
// effects of earlier ones.
type Pipeline struct {
	stages []Stage
}

// New returns the standard normalization pipeline: rating decode,
// availability decode, free-text cleanup, price parse.
func New() *Pipeline {
	return &Pipeline{stages: []Stage{
		DecodeRating,
		DecodeAvailability,
		NormalizeText,
		ParsePrice,
	}}
}

// Run feeds one record through every stage and returns the normalized
// result, ready for persistence.
func (p *Pipeline) Run(rec catalog.Record) catalog.Record {
	for _, stage := range p.stages {
		rec = stage(rec)
	}
	return rec
}
