package reconcile

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/agreementd/internal/agreement"
)

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// completeAgreement has every reconciliation check satisfied.
func completeAgreement() agreement.Agreement {
	return agreement.Agreement{
		AgreementDate: "2024-03-15",
		GoverningLaw:  "New York",
		Parties: []agreement.Party{
			{Name: "Acme Industries Inc.", Role: "Borrower"},
			{Name: "First National Bank", Role: "Administrative Agent"},
		},
		Facilities: []agreement.Facility{
			{Name: "Term Loan Facility", Amount: amount(300_000_000), Currency: "USD"},
			{Name: "Revolving Credit Facility", Amount: amount(200_000_000), Currency: "USD"},
		},
		TotalCommitment: amount(500_000_000),
	}
}

func assertScore(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("ConfidenceScore = %v, want %v", got, want)
	}
}

func TestReconcile_CompleteAgreement(t *testing.T) {
	out := Reconcile(completeAgreement())

	assertScore(t, out.ConfidenceScore, 1.0)
	assert.Empty(t, out.Warnings)
}

func TestReconcile_Penalties(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*agreement.Agreement)
		wantScore float64
		wantWarns int
	}{
		{
			name: "missing borrower",
			mutate: func(a *agreement.Agreement) {
				a.Parties = []agreement.Party{{Name: "First National Bank", Role: "Lender"}}
			},
			wantScore: 0.8,
			wantWarns: 1,
		},
		{
			// A facility-less agreement fails both the generic facility
			// check and the commitment verification, so it loses 0.4.
			name: "missing facilities",
			mutate: func(a *agreement.Agreement) {
				a.Facilities = nil
			},
			wantScore: 0.6,
			wantWarns: 2,
		},
		{
			name: "missing agreement date",
			mutate: func(a *agreement.Agreement) {
				a.AgreementDate = ""
			},
			wantScore: 0.9,
			wantWarns: 1,
		},
		{
			name: "missing governing law",
			mutate: func(a *agreement.Agreement) {
				a.GoverningLaw = ""
			},
			wantScore: 0.9,
			wantWarns: 1,
		},
		{
			name: "everything missing",
			mutate: func(a *agreement.Agreement) {
				*a = agreement.Agreement{}
			},
			wantScore: 0.2,
			wantWarns: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := completeAgreement()
			tt.mutate(&a)

			out := Reconcile(a)
			assertScore(t, out.ConfidenceScore, tt.wantScore)
			assert.Len(t, out.Warnings, tt.wantWarns)
		})
	}
}

func TestReconcile_BorrowerRoleMatchesSubstring(t *testing.T) {
	a := completeAgreement()
	a.Parties[0].Role = "Co-Borrower and Guarantor"

	out := Reconcile(a)
	assertScore(t, out.ConfidenceScore, 1.0)
}

func TestReconcile_CommitmentMismatchWarnsWithoutPenalty(t *testing.T) {
	a := completeAgreement()
	a.TotalCommitment = amount(900_000_000) // facilities sum to 500M

	out := Reconcile(a)
	assertScore(t, out.ConfidenceScore, 1.0)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "total commitment")
}

func TestReconcile_CommitmentWithinTolerance(t *testing.T) {
	a := completeAgreement()
	a.TotalCommitment = amount(520_000_000) // 4% off, inside tolerance

	out := Reconcile(a)
	assert.Empty(t, out.Warnings)
}

func TestReconcile_ImplausibleDateWarnsWithoutPenalty(t *testing.T) {
	tests := []struct {
		name string
		date string
	}{
		{name: "pre-range year", date: "1999-12-31"},
		{name: "post-range year", date: "2031-01-01"},
		{name: "not a date", date: "March 15, 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := completeAgreement()
			a.AgreementDate = tt.date

			out := Reconcile(a)
			assertScore(t, out.ConfidenceScore, 1.0)
			require.Len(t, out.Warnings, 1)
			assert.Contains(t, out.Warnings[0], "agreement date")
		})
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	a := completeAgreement()
	a.Facilities = nil
	a.GoverningLaw = ""

	once := Reconcile(a)
	twice := Reconcile(once)

	assertScore(t, twice.ConfidenceScore, once.ConfidenceScore)
	assert.Equal(t, once.Warnings, twice.Warnings)
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	a := agreement.Agreement{}
	_ = Reconcile(a)

	assert.Zero(t, a.ConfidenceScore)
	assert.Empty(t, a.Warnings)
}

func TestCheckCommitmentSum_NoAmounts(t *testing.T) {
	facilities := []agreement.Facility{{Name: "Term Loan Facility"}}
	assert.Empty(t, checkCommitmentSum(facilities, decimal.NewFromInt(500_000_000)))
}
