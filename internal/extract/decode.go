package extract

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Wire shapes for model responses. Every field is optional; the model is
// never trusted to honor the instructed shape exactly.

type partiesPayload struct {
	Parties []partyRow `json:"parties"`
}

type partyRow struct {
	Name string `json:"name"`
	Role string `json:"role"`
	LEI  string `json:"lei"`
}

type facilitiesPayload struct {
	Facilities      []facilityRow `json:"facilities"`
	TotalCommitment looseString   `json:"total_commitment"`
}

type facilityRow struct {
	Name         string      `json:"name"`
	Amount       looseString `json:"amount"`
	Currency     string      `json:"currency"`
	FacilityType string      `json:"facility_type"`
	SpreadBps    looseString `json:"spread_bps"`
	Benchmark    string      `json:"benchmark"`
	MaturityDate string      `json:"maturity_date"`
}

type datesPayload struct {
	AgreementDate        string   `json:"agreement_date"`
	EffectiveDate        string   `json:"effective_date"`
	GoverningLaw         string   `json:"governing_law"`
	SustainabilityLinked bool     `json:"sustainability_linked"`
	ESGTerms             []string `json:"esg_terms"`
}

// looseString accepts a JSON string, number or null. Models frequently
// return amounts as either "1,000,000" or 1000000.
type looseString string

func (l *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*l = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = looseString(s)
		return nil
	}
	// Bare number token; keep it verbatim for the amount parser.
	*l = looseString(data)
	return nil
}

// stripFences removes markdown code fences that models sometimes wrap
// around JSON output.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// parseAmount normalizes a monetary string (strip $, commas, whitespace)
// and parses it as a decimal. Ambiguous or unparseable amounts yield nil,
// never an error.
func parseAmount(s string) *decimal.Decimal {
	clean := strings.NewReplacer("$", "", ",", "", " ", "", "\t", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return nil
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return nil
	}
	return &d
}

// parseSpread parses a basis-point value. Unparseable spreads yield nil.
func parseSpread(s string) *float64 {
	d := parseAmount(s)
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}
