package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agreementd/internal/agreement"
	"github.com/fyrsmithlabs/agreementd/internal/segment"
)

const retryBaseBackoff = 250 * time.Millisecond

// ExtractParties extracts named parties from the highest-value sections.
// Individual call failures are returned as warnings; the operation only
// errors when the completion client itself is unusable.
func (e *Extractor) ExtractParties(ctx context.Context, sections []segment.DocumentSection) ([]agreement.Party, []string, error) {
	if err := e.checkClient(); err != nil {
		return nil, nil, err
	}

	selected := e.selectSections(sections, partySectionTypes)
	var parties []agreement.Party
	var warnings []string

	for _, sec := range selected {
		if ctx.Err() != nil {
			break
		}
		var payload partiesPayload
		if err := e.completeJSON(ctx, partiesPrompt, sec, &payload); err != nil {
			warnings = append(warnings, fmt.Sprintf("party extraction failed for %q: %v", sec.Title, err))
			continue
		}
		parties = mergeParties(parties, partiesFromRows(payload.Parties, sec.Title))
	}

	e.logger.Debug("parties extracted",
		zap.Int("sections", len(selected)),
		zap.Int("parties", len(parties)),
		zap.Int("warnings", len(warnings)),
	)
	return parties, warnings, nil
}

// ExtractFacilities extracts credit facilities and the aggregate total
// commitment. On duplicate total commitments the first-seen value wins.
func (e *Extractor) ExtractFacilities(ctx context.Context, sections []segment.DocumentSection) ([]agreement.Facility, *decimal.Decimal, []string, error) {
	if err := e.checkClient(); err != nil {
		return nil, nil, nil, err
	}

	selected := e.selectSections(sections, facilitySectionTypes)
	var facilities []agreement.Facility
	var total *decimal.Decimal
	var warnings []string

	for _, sec := range selected {
		if ctx.Err() != nil {
			break
		}
		var payload facilitiesPayload
		if err := e.completeJSON(ctx, facilitiesPrompt, sec, &payload); err != nil {
			warnings = append(warnings, fmt.Sprintf("facility extraction failed for %q: %v", sec.Title, err))
			continue
		}
		facilities = mergeFacilities(facilities, facilitiesFromRows(payload.Facilities, sec.Title))
		if total == nil {
			total = parseAmount(string(payload.TotalCommitment))
		}
	}

	e.logger.Debug("facilities extracted",
		zap.Int("sections", len(selected)),
		zap.Int("facilities", len(facilities)),
		zap.Bool("total_commitment", total != nil),
		zap.Int("warnings", len(warnings)),
	)
	return facilities, total, warnings, nil
}

// ExtractDatesAndTerms extracts agreement dates, governing law and ESG
// terms. Scalar fields resolve first-seen-wins across sections.
func (e *Extractor) ExtractDatesAndTerms(ctx context.Context, sections []segment.DocumentSection) (DatesAndTerms, []string, error) {
	if err := e.checkClient(); err != nil {
		return DatesAndTerms{}, nil, err
	}

	selected := e.selectSections(sections, dateSectionTypes)
	var result DatesAndTerms
	var warnings []string
	seenTerms := map[string]bool{}

	for _, sec := range selected {
		if ctx.Err() != nil {
			break
		}
		var payload datesPayload
		if err := e.completeJSON(ctx, datesPrompt, sec, &payload); err != nil {
			warnings = append(warnings, fmt.Sprintf("dates extraction failed for %q: %v", sec.Title, err))
			continue
		}
		if result.AgreementDate == "" {
			result.AgreementDate = payload.AgreementDate
		}
		if result.EffectiveDate == "" {
			result.EffectiveDate = payload.EffectiveDate
		}
		if result.GoverningLaw == "" {
			result.GoverningLaw = payload.GoverningLaw
		}
		if payload.SustainabilityLinked {
			result.SustainabilityLinked = true
		}
		for _, term := range payload.ESGTerms {
			key := agreement.NormalizeName(term)
			if key == "" || seenTerms[key] {
				continue
			}
			seenTerms[key] = true
			result.ESGTerms = append(result.ESGTerms, term)
		}
	}

	e.logger.Debug("dates and terms extracted",
		zap.Int("sections", len(selected)),
		zap.String("agreement_date", result.AgreementDate),
		zap.Int("warnings", len(warnings)),
	)
	return result, warnings, nil
}

func (e *Extractor) checkClient() error {
	if e.client == nil || !e.client.Configured() {
		return ErrClientNotConfigured
	}
	return nil
}

// Preferred structural types per operation. Sections of these types are
// selected even below the importance cutoff.
var (
	partySectionTypes    = map[segment.SectionType]bool{segment.TypePreamble: true, segment.TypeSignature: true, segment.TypeUnknown: true}
	facilitySectionTypes = map[segment.SectionType]bool{segment.TypeSchedule: true, segment.TypeUnknown: true}
	dateSectionTypes     = map[segment.SectionType]bool{segment.TypePreamble: true, segment.TypeSignature: true, segment.TypeUnknown: true}
)

// selectSections filters to a bounded subset, preserving the segmenter's
// importance-descending order.
func (e *Extractor) selectSections(sections []segment.DocumentSection, preferred map[segment.SectionType]bool) []segment.DocumentSection {
	var out []segment.DocumentSection
	for _, sec := range sections {
		if len(out) >= e.cfg.MaxSectionsPerEntity {
			break
		}
		if preferred[sec.Type] || sec.Importance >= e.cfg.MinImportance {
			out = append(out, sec)
		}
	}
	return out
}

// completeJSON issues one structured-completion call for a section,
// retrying on transport failure or malformed JSON. The last error is
// returned after retries are exhausted; callers record it as a warning.
func (e *Extractor) completeJSON(ctx context.Context, systemPrompt string, sec segment.DocumentSection, out any) error {
	userContent := fmt.Sprintf("Section: %s\n\n%s", sec.Title, sec.Content)

	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := retryBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
		raw, err := e.client.Complete(callCtx, systemPrompt, userContent)
		cancel()
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		if err := json.Unmarshal([]byte(stripFences(raw)), out); err != nil {
			lastErr = fmt.Errorf("malformed response: %w", err)
			continue
		}
		return nil
	}
	return lastErr
}

func partiesFromRows(rows []partyRow, source string) []agreement.Party {
	var parties []agreement.Party
	for _, row := range rows {
		if row.Name == "" {
			continue
		}
		lei := row.LEI
		if len(lei) != 20 {
			lei = ""
		}
		parties = append(parties, agreement.Party{
			Name:          row.Name,
			Role:          row.Role,
			LEI:           lei,
			SourceSection: source,
			Confidence:    1.0,
		})
	}
	return parties
}

func facilitiesFromRows(rows []facilityRow, source string) []agreement.Facility {
	var facilities []agreement.Facility
	for _, row := range rows {
		if row.Name == "" {
			continue
		}
		currency := row.Currency
		if currency == "" {
			currency = "USD"
		}
		facilities = append(facilities, agreement.Facility{
			Name:          row.Name,
			Amount:        parseAmount(string(row.Amount)),
			Currency:      currency,
			FacilityType:  row.FacilityType,
			SpreadBps:     parseSpread(string(row.SpreadBps)),
			Benchmark:     row.Benchmark,
			MaturityDate:  row.MaturityDate,
			SourceSection: source,
			Confidence:    1.0,
		})
	}
	return facilities
}
