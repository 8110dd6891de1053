// Package pipeline orchestrates the extraction stages: segmentation,
// concurrent entity extraction, reconciliation and (when confidence is
// low) enrichment. A run is synchronous for its caller and always
// produces a well-formed result envelope; only internal fan-out is
// concurrent.
package pipeline

import (
	"time"

	"github.com/fyrsmithlabs/agreementd/internal/agreement"
)

// Status summarizes the outcome of one pipeline run.
type Status string

const (
	// StatusSuccess: confidence at or above the success threshold.
	StatusSuccess Status = "success"
	// StatusPartial: a low-confidence but non-empty result, or a run cut
	// short by caller cancellation.
	StatusPartial Status = "partial"
	// StatusFailed: no parties and no facilities were extracted,
	// regardless of the numeric confidence.
	StatusFailed Status = "failed"
	// StatusError: a fatal failure (unusable completion client); the
	// agreement is null.
	StatusError Status = "error"
)

// Metadata carries run observability data for the caller.
type Metadata struct {
	DocumentChars         int      `json:"document_chars"`
	SectionsAnalyzed      int      `json:"sections_analyzed"`
	StagesCompleted       []string `json:"stages_completed"`
	ProcessingTimeSeconds float64  `json:"processing_time_seconds"`
}

// Result is the envelope returned to the caller. Agreement is nil only
// when Status is StatusError.
type Result struct {
	Status    Status               `json:"status"`
	Agreement *agreement.Agreement `json:"agreement"`
	Message   string               `json:"message"`
	Metadata  Metadata             `json:"metadata"`
}

// Config holds orchestration tuning. Zero values select defaults.
type Config struct {
	// EnrichmentThreshold: enrichment runs when reconciled confidence is
	// below this.
	EnrichmentThreshold float64
	// SuccessThreshold separates "success" from "partial".
	SuccessThreshold float64
	// MaxConcurrentExtractions bounds stage-2 fan-out.
	MaxConcurrentExtractions int
}

// Default orchestration tuning.
const (
	DefaultEnrichmentThreshold      = 0.7
	DefaultSuccessThreshold         = 0.5
	DefaultMaxConcurrentExtractions = 3

	// maxErrorMessageChars bounds the diagnostic in an error envelope.
	maxErrorMessageChars = 300
)

func (c Config) withDefaults() Config {
	if c.EnrichmentThreshold <= 0 {
		c.EnrichmentThreshold = DefaultEnrichmentThreshold
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = DefaultSuccessThreshold
	}
	if c.MaxConcurrentExtractions <= 0 {
		c.MaxConcurrentExtractions = DefaultMaxConcurrentExtractions
	}
	return c
}

func elapsedSeconds(start time.Time) float64 {
	return float64(time.Since(start).Milliseconds()) / 1000.0
}
