// Package agreement defines the extracted credit-agreement data model
// shared by the segmentation, extraction, reconciliation and enrichment
// stages. One Agreement value is owned by exactly one pipeline run.
package agreement

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Stage names recorded in StagesCompleted, in pipeline order.
const (
	StageStructureAnalysis = "structure_analysis"
	StageEntityExtraction  = "entity_extraction"
	StageReconciliation    = "reconciliation"
	StageEnrichment        = "enrichment"
)

// Party is a named legal entity with its role in the agreement.
type Party struct {
	Name          string  `json:"name"`
	Role          string  `json:"role"`
	LEI           string  `json:"lei,omitempty"`
	SourceSection string  `json:"source_section,omitempty"`
	Confidence    float64 `json:"confidence"`
}

// Facility is a single credit facility (term loan, revolver, etc.).
// Amount is nil when the source text did not yield a parseable number.
type Facility struct {
	Name          string           `json:"name"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Currency      string           `json:"currency"`
	FacilityType  string           `json:"facility_type,omitempty"`
	SpreadBps     *float64         `json:"spread_bps,omitempty"`
	Benchmark     string           `json:"benchmark,omitempty"`
	MaturityDate  string           `json:"maturity_date,omitempty"`
	SourceSection string           `json:"source_section,omitempty"`
	Confidence    float64          `json:"confidence"`
}

// Agreement is the aggregate built incrementally across pipeline stages.
// During the concurrent extraction stage each operation writes a disjoint
// set of fields, so no locking is needed.
type Agreement struct {
	AgreementDate        string           `json:"agreement_date,omitempty"`
	EffectiveDate        string           `json:"effective_date,omitempty"`
	GoverningLaw         string           `json:"governing_law,omitempty"`
	Parties              []Party          `json:"parties"`
	Facilities           []Facility       `json:"facilities"`
	TotalCommitment      *decimal.Decimal `json:"total_commitment,omitempty"`
	SustainabilityLinked bool             `json:"sustainability_linked"`
	ESGTerms             []string         `json:"esg_terms,omitempty"`
	ConfidenceScore      float64          `json:"confidence_score"`
	Warnings             []string         `json:"warnings,omitempty"`
	StagesCompleted      []string         `json:"stages_completed"`
}

// MarkStage appends a completed stage name. Append-only; the slice is
// never reordered or truncated.
func (a *Agreement) MarkStage(name string) {
	a.StagesCompleted = append(a.StagesCompleted, name)
}

// HasBorrower reports whether any party's role contains "borrower",
// case-insensitively.
func (a *Agreement) HasBorrower() bool {
	for _, p := range a.Parties {
		if strings.Contains(strings.ToLower(p.Role), "borrower") {
			return true
		}
	}
	return false
}

// NormalizeName returns the dedup key for party and facility names.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
