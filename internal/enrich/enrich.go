// Package enrich runs targeted, regex-based fallback searches over raw
// document text to fill fields the structured extraction path missed.
// Enrichment is strictly additive: it inserts a missing borrower,
// appends missing facilities or a missing date, and never removes or
// overwrites existing data. It is invoked only when reconciliation
// scored the agreement below the confidence threshold, and it does not
// re-run reconciliation afterwards.
package enrich

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fyrsmithlabs/agreementd/internal/agreement"
)

const (
	// Scan windows bound the fallback searches to the regions where the
	// target phrases conventionally appear.
	borrowerScanChars = 50_000
	dateScanChars     = 30_000

	// maxFacilityMatches caps pattern-matched facilities to avoid noise.
	maxFacilityMatches = 5

	// Amounts below this are conventionally expressed in millions.
	millionsCutoff = 10_000

	borrowerConfidence = 0.9
	facilityConfidence = 0.7

	patternSource = "Pattern Match"
)

// Compiled once; regexps are safe for concurrent reuse.
var (
	borrowerPatterns = []*regexp.Regexp{
		// Quoted entity name defined adjacent to "Borrower":
		//   ... "Acme Holdings Inc." (the "Borrower")
		regexp.MustCompile(`"([^"]{2,100})"\s*\)?[^.]{0,60}?\(?\s*(?:the\s+)?["\x60']?Borrower`),
		// Capitalized entity with a corporate suffix named as Borrower:
		//   Acme Corp., as Borrower / Acme Corp., a Borrower
		// Name tokens must each be capitalized so the match cannot
		// swallow surrounding prose.
		regexp.MustCompile(`((?:[A-Z][\w&.'-]*\s+){0,5}(?:Inc|LLC|Corp|Corporation|LP|L\.P\.|Ltd)\.?),?\s+(?:as\s+)?(?:a\s+|the\s+)?Borrower`),
	}

	amountPattern = regexp.MustCompile(`\$\s?([\d,]+(?:\.\d+)?)\s*(million|MM|M\b)?`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`dated\s+as\s+of\s+([A-Z][a-z]+\s+\d{1,2},?\s+\d{4})`),
		regexp.MustCompile(`(\d{1,2})(?:st|nd|rd|th)?\s+day\s+of\s+([A-Z][a-z]+),?\s+(\d{4})`),
		regexp.MustCompile(`effective\s+as\s+of\s+([A-Z][a-z]+\s+\d{1,2},?\s+\d{4})`),
	}
)

// Enrich fills missing fields of a from rawText. Operates on the
// original raw text rather than segmented sections: by this point the
// structured path has been tried and failed to produce confident
// results.
func Enrich(a agreement.Agreement, rawText string) agreement.Agreement {
	out := a

	if !out.HasBorrower() {
		if p, ok := findBorrower(rawText); ok {
			// Borrower leads the party list by convention.
			out.Parties = append([]agreement.Party{p}, out.Parties...)
		}
	}

	if len(out.Facilities) == 0 {
		out.Facilities = append(out.Facilities, findFacilities(rawText)...)
	}

	if out.AgreementDate == "" {
		if d, ok := findAgreementDate(rawText); ok {
			out.AgreementDate = d
		}
	}

	return out
}

// findBorrower looks for an entity name adjacent to the word "Borrower"
// within the head of the document. First match wins.
func findBorrower(text string) (agreement.Party, bool) {
	window := head(text, borrowerScanChars)
	for _, re := range borrowerPatterns {
		m := re.FindStringSubmatch(window)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(strings.Trim(m[1], ",. "))
		if name == "" {
			continue
		}
		return agreement.Party{
			Name:          name,
			Role:          "Borrower",
			SourceSection: patternSource,
			Confidence:    borrowerConfidence,
		}, true
	}
	return agreement.Party{}, false
}

// findFacilities scans the whole document for dollar amounts whose
// surrounding text names a term loan or revolving facility.
func findFacilities(text string) []agreement.Facility {
	var facilities []agreement.Facility
	seen := map[string]bool{}

	for _, m := range amountPattern.FindAllStringSubmatchIndex(text, -1) {
		if len(facilities) >= maxFacilityMatches {
			break
		}

		// Inspect a small window around the match for a facility phrase.
		winStart := m[0] - 200
		if winStart < 0 {
			winStart = 0
		}
		winEnd := m[1] + 100
		if winEnd > len(text) {
			winEnd = len(text)
		}
		window := strings.ToLower(text[winStart:winEnd])

		name, facilityType := classifyFacility(window, m[0]-winStart)
		if name == "" {
			continue
		}
		if seen[agreement.NormalizeName(name)] {
			continue
		}

		amount := parseDollarAmount(text[m[2]:m[3]], m[4] >= 0)
		if amount == nil {
			continue
		}

		seen[agreement.NormalizeName(name)] = true
		facilities = append(facilities, agreement.Facility{
			Name:          name,
			Amount:        amount,
			Currency:      "USD",
			FacilityType:  facilityType,
			SourceSection: patternSource,
			Confidence:    facilityConfidence,
		})
	}
	return facilities
}

// classifyFacility names the facility an amount belongs to from its
// lowercased surrounding window. amtPos is the amount's offset within
// the window. Facility names conventionally precede their amounts, so
// the phrase nearest before the amount wins; text after the amount is
// consulted only when nothing precedes it ("$250,000,000 Term Loan").
func classifyFacility(window string, amtPos int) (name, facilityType string) {
	before := window[:amtPos]
	termIdx := strings.LastIndex(before, "term loan")
	if i := strings.LastIndex(before, "term facility"); i > termIdx {
		termIdx = i
	}
	revolverIdx := strings.LastIndex(before, "revolv")

	if termIdx < 0 && revolverIdx < 0 {
		after := window[amtPos:]
		hasTerm := strings.Contains(after, "term loan") || strings.Contains(after, "term facility")
		hasRevolver := strings.Contains(after, "revolv")
		switch {
		case hasTerm:
			return "Term Loan Facility", "term loan"
		case hasRevolver:
			return "Revolving Credit Facility", "revolving credit"
		default:
			return "", ""
		}
	}

	if termIdx > revolverIdx {
		return "Term Loan Facility", "term loan"
	}
	return "Revolving Credit Facility", "revolving credit"
}

// parseDollarAmount parses digits (commas stripped) and scales values
// expressed in millions, either via an explicit suffix or when the bare
// number is implausibly small for a credit facility.
func parseDollarAmount(digits string, millionSuffix bool) *decimal.Decimal {
	d, err := decimal.NewFromString(strings.ReplaceAll(digits, ",", ""))
	if err != nil {
		return nil
	}
	if millionSuffix || d.LessThan(decimal.NewFromInt(millionsCutoff)) {
		d = d.Mul(decimal.NewFromInt(1_000_000))
	}
	return &d
}

// findAgreementDate tries three phrasing patterns within the document
// head and normalizes the first hit to YYYY-MM-DD.
func findAgreementDate(text string) (string, bool) {
	window := head(text, dateScanChars)
	for i, re := range datePatterns {
		m := re.FindStringSubmatch(window)
		if m == nil {
			continue
		}

		var candidate string
		if i == 1 {
			// "17th day of March, 2024" -> "March 17, 2024"
			candidate = m[2] + " " + m[1] + ", " + m[3]
		} else {
			candidate = m[1]
		}
		if normalized, ok := normalizeDate(candidate); ok {
			return normalized, true
		}
	}
	return "", false
}

var dateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

func normalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func head(text string, n int) string {
	if len(text) > n {
		return text[:n]
	}
	return text
}
