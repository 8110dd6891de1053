// Package reconcile validates and scores an assembled agreement record.
// Reconcile is a pure function: it reads extracted fields and writes only
// ConfidenceScore and Warnings.
//
// The confidence model is a fixed base of 1.0 minus independently
// triggered penalties, clamped to [0,1]:
//
//	-0.2  no party with a Borrower role
//	-0.2  no facilities (generic check)
//	-0.2  no facilities (commitment-verification check; the double
//	      penalty for a facility-less agreement is intentional)
//	-0.1  no agreement date
//	-0.1  no governing law
package reconcile

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fyrsmithlabs/agreementd/internal/agreement"
)

const (
	missingBorrowerPenalty   = 0.2
	missingFacilitiesPenalty = 0.2
	missingDatePenalty       = 0.1
	missingLawPenalty        = 0.1

	// commitmentTolerance is the relative mismatch between the facility
	// sum and the stated total commitment above which a warning fires.
	commitmentTolerance = 0.10

	minPlausibleYear = 2000
	maxPlausibleYear = 2030
)

// Reconcile returns a copy of a with ConfidenceScore and Warnings
// populated. All other fields pass through unchanged. Warnings already
// present are kept; reconciliation warnings are appended without
// duplicates, which makes Reconcile idempotent on its own output.
func Reconcile(a agreement.Agreement) agreement.Agreement {
	penalty := 0.0
	var warnings []string

	if !a.HasBorrower() {
		warnings = append(warnings, "no party with a Borrower role identified")
		penalty += missingBorrowerPenalty
	}

	if len(a.Facilities) == 0 {
		warnings = append(warnings, "no credit facilities identified")
		penalty += missingFacilitiesPenalty
	}

	if len(a.Facilities) == 0 {
		// Second, distinct check on the same condition: the total
		// commitment cannot be verified without a facility schedule.
		warnings = append(warnings, "total commitment cannot be verified: facility schedule missing")
		penalty += missingFacilitiesPenalty
	} else if a.TotalCommitment != nil {
		if w := checkCommitmentSum(a.Facilities, *a.TotalCommitment); w != "" {
			warnings = append(warnings, w)
		}
	}

	if a.AgreementDate == "" {
		warnings = append(warnings, "agreement date not found")
		penalty += missingDatePenalty
	} else if w := checkAgreementDate(a.AgreementDate); w != "" {
		warnings = append(warnings, w)
	}

	if a.GoverningLaw == "" {
		warnings = append(warnings, "governing law not found")
		penalty += missingLawPenalty
	}

	score := 1.0 - penalty
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	out := a
	out.ConfidenceScore = score
	out.Warnings = appendMissing(out.Warnings, warnings)
	return out
}

// checkCommitmentSum compares the sum of facility amounts against the
// stated total commitment. A mismatch above the tolerance is a warning
// only, never a penalty. Facilities without amounts are skipped; if no
// facility has an amount there is nothing to compare.
func checkCommitmentSum(facilities []agreement.Facility, total decimal.Decimal) string {
	sum := decimal.Zero
	counted := 0
	for _, f := range facilities {
		if f.Amount != nil {
			sum = sum.Add(*f.Amount)
			counted++
		}
	}
	if counted == 0 || total.IsZero() {
		return ""
	}

	diff := sum.Sub(total).Abs()
	ratio, _ := diff.Div(total.Abs()).Float64()
	if ratio > commitmentTolerance {
		return fmt.Sprintf("facility amounts sum to %s but total commitment is %s (%.0f%% apart)",
			sum.String(), total.String(), ratio*100)
	}
	return ""
}

// checkAgreementDate validates the YYYY-MM-DD format and a plausible year
// range. Violations are unusual-but-not-invalid: warning, no penalty.
func checkAgreementDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Sprintf("agreement date %q is not a valid YYYY-MM-DD date", date)
	}
	if y := t.Year(); y < minPlausibleYear || y > maxPlausibleYear {
		return fmt.Sprintf("agreement date %q falls outside the plausible range %d-%d", date, minPlausibleYear, maxPlausibleYear)
	}
	return ""
}

// appendMissing appends entries from add that are not already present.
func appendMissing(existing, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, w := range existing {
		seen[w] = true
	}
	for _, w := range add {
		if !seen[w] {
			existing = append(existing, w)
			seen[w] = true
		}
	}
	return existing
}
