package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/agreementd/internal/agreement"
	"github.com/fyrsmithlabs/agreementd/internal/enrich"
	"github.com/fyrsmithlabs/agreementd/internal/extract"
	"github.com/fyrsmithlabs/agreementd/internal/reconcile"
	"github.com/fyrsmithlabs/agreementd/internal/segment"
)

const tracerName = "github.com/fyrsmithlabs/agreementd/internal/pipeline"
const meterName = "pipeline"

// Service sequences the extraction stages for one document at a time.
// A Service is safe for concurrent use; each Run owns its aggregate.
type Service struct {
	segmenter *segment.Segmenter
	extractor *extract.Extractor
	cfg       Config
	logger    *zap.Logger

	tracer trace.Tracer
	meter  metric.Meter

	runsTotal     metric.Int64Counter
	runDuration   metric.Float64Histogram
	runConfidence metric.Float64Histogram
}

// NewService creates a pipeline service. logger may be nil.
func NewService(segmenter *segment.Segmenter, extractor *extract.Extractor, cfg Config, logger *zap.Logger) (*Service, error) {
	if segmenter == nil {
		return nil, fmt.Errorf("segmenter is required")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		segmenter: segmenter,
		extractor: extractor,
		cfg:       cfg.withDefaults(),
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		meter:     otel.Meter(meterName),
	}
	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return s, nil
}

// Run executes one pipeline run over raw document text. It always
// returns a well-formed envelope: expected-but-imperfect input yields a
// low-confidence result, and only a fatal failure (unusable completion
// client) yields StatusError with a nil agreement.
func (s *Service) Run(ctx context.Context, text string) *Result {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.Int("document_chars", len(text))),
	)
	defer span.End()

	agg := agreement.Agreement{}

	// Stage 1: segmentation. Never fails; an unstructured document
	// becomes a single fallback chunk.
	sections := s.segmenter.Segment(text)
	if len(sections) == 0 {
		sections = []segment.DocumentSection{s.segmenter.FallbackSection(text)}
	}
	agg.MarkStage(agreement.StageStructureAnalysis)
	s.logger.Debug("document segmented",
		zap.Int("document_chars", len(text)),
		zap.Int("sections", len(sections)),
	)

	// Stage 2: concurrent entity extraction. The three operations write
	// disjoint fields, so the only synchronization is the group wait.
	var (
		parties    []agreement.Party
		facilities []agreement.Facility
		total      *decimal.Decimal
		dates      extract.DatesAndTerms

		partyWarnings    []string
		facilityWarnings []string
		dateWarnings     []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrentExtractions)
	g.Go(func() error {
		var err error
		parties, partyWarnings, err = s.extractor.ExtractParties(gctx, sections)
		return err
	})
	g.Go(func() error {
		var err error
		facilities, total, facilityWarnings, err = s.extractor.ExtractFacilities(gctx, sections)
		return err
	})
	g.Go(func() error {
		var err error
		dates, dateWarnings, err = s.extractor.ExtractDatesAndTerms(gctx, sections)
		return err
	})
	fatal := g.Wait()

	agg.Parties = parties
	agg.Facilities = facilities
	agg.TotalCommitment = total
	agg.AgreementDate = dates.AgreementDate
	agg.EffectiveDate = dates.EffectiveDate
	agg.GoverningLaw = dates.GoverningLaw
	agg.SustainabilityLinked = dates.SustainabilityLinked
	agg.ESGTerms = dates.ESGTerms
	agg.Warnings = append(agg.Warnings, partyWarnings...)
	agg.Warnings = append(agg.Warnings, facilityWarnings...)
	agg.Warnings = append(agg.Warnings, dateWarnings...)
	agg.MarkStage(agreement.StageEntityExtraction)

	if fatal != nil && ctx.Err() == nil {
		span.RecordError(fatal)
		s.logger.Error("pipeline run aborted", zap.Error(fatal))
		return s.finish(ctx, start, errorResult(fatal, text, len(sections), agg.StagesCompleted, start))
	}

	// Stage 3: reconciliation. Pure scoring; owns ConfidenceScore.
	agg = reconcile.Reconcile(agg)
	agg.MarkStage(agreement.StageReconciliation)

	cancelled := ctx.Err() != nil

	// Stage 4: enrichment, only for low-confidence results and only on
	// uncancelled runs. Best-effort: the pre-enrichment score stands.
	if !cancelled && agg.ConfidenceScore < s.cfg.EnrichmentThreshold {
		agg = enrich.Enrich(agg, text)
		agg.MarkStage(agreement.StageEnrichment)
	}

	status := s.deriveStatus(agg, cancelled)
	result := &Result{
		Status:    status,
		Agreement: &agg,
		Message:   statusMessage(status, agg),
		Metadata: Metadata{
			DocumentChars:         len(text),
			SectionsAnalyzed:      len(sections),
			StagesCompleted:       agg.StagesCompleted,
			ProcessingTimeSeconds: elapsedSeconds(start),
		},
	}

	span.SetAttributes(
		attribute.String("status", string(status)),
		attribute.Float64("confidence", agg.ConfidenceScore),
		attribute.Int("parties", len(agg.Parties)),
		attribute.Int("facilities", len(agg.Facilities)),
	)
	s.logger.Info("pipeline run complete",
		zap.String("status", string(status)),
		zap.Float64("confidence", agg.ConfidenceScore),
		zap.Int("parties", len(agg.Parties)),
		zap.Int("facilities", len(agg.Facilities)),
		zap.Int("warnings", len(agg.Warnings)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return s.finish(ctx, start, result)
}

// deriveStatus maps the reconciled aggregate to a run status. An empty
// extraction is failed regardless of the numeric confidence; a cancelled
// run is at best partial.
func (s *Service) deriveStatus(agg agreement.Agreement, cancelled bool) Status {
	if len(agg.Parties) == 0 && len(agg.Facilities) == 0 {
		return StatusFailed
	}
	if cancelled {
		return StatusPartial
	}
	if agg.ConfidenceScore >= s.cfg.SuccessThreshold {
		return StatusSuccess
	}
	return StatusPartial
}

func (s *Service) finish(ctx context.Context, start time.Time, result *Result) *Result {
	attrs := metric.WithAttributes(attribute.String("status", string(result.Status)))
	s.runsTotal.Add(ctx, 1, attrs)
	s.runDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	if result.Agreement != nil {
		s.runConfidence.Record(ctx, result.Agreement.ConfidenceScore, attrs)
	}
	return result
}

func errorResult(err error, text string, sectionCount int, stages []string, start time.Time) *Result {
	return &Result{
		Status:    StatusError,
		Agreement: nil,
		Message:   truncateMessage(fmt.Sprintf("extraction failed: %v", err)),
		Metadata: Metadata{
			DocumentChars:         len(text),
			SectionsAnalyzed:      sectionCount,
			StagesCompleted:       stages,
			ProcessingTimeSeconds: elapsedSeconds(start),
		},
	}
}

func statusMessage(status Status, agg agreement.Agreement) string {
	switch status {
	case StatusSuccess:
		return fmt.Sprintf("Extracted %d parties and %d facilities with confidence %.2f",
			len(agg.Parties), len(agg.Facilities), agg.ConfidenceScore)
	case StatusPartial:
		return fmt.Sprintf("Partial extraction: %d parties, %d facilities, confidence %.2f (%d warnings)",
			len(agg.Parties), len(agg.Facilities), agg.ConfidenceScore, len(agg.Warnings))
	case StatusFailed:
		return "Extraction failed: no parties or facilities could be identified"
	default:
		return "Extraction error"
	}
}

func truncateMessage(msg string) string {
	if len(msg) > maxErrorMessageChars {
		return msg[:maxErrorMessageChars]
	}
	return msg
}

func (s *Service) initMetrics() error {
	var err error

	s.runsTotal, err = s.meter.Int64Counter(
		"pipeline.runs_total",
		metric.WithDescription("Total number of pipeline runs by status"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create runs counter: %w", err)
	}

	s.runDuration, err = s.meter.Float64Histogram(
		"pipeline.run_duration_seconds",
		metric.WithDescription("End-to-end pipeline run duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 15, 30, 60, 120, 300),
	)
	if err != nil {
		return fmt.Errorf("failed to create duration histogram: %w", err)
	}

	s.runConfidence, err = s.meter.Float64Histogram(
		"pipeline.run_confidence",
		metric.WithDescription("Confidence scores of completed runs"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(0.0, 0.2, 0.4, 0.6, 0.8, 1.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create confidence histogram: %w", err)
	}

	return nil
}
