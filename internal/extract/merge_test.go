package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/agreementd/internal/agreement"
)

func TestMergeParties(t *testing.T) {
	existing := []agreement.Party{
		{Name: "Acme Industries Inc.", Role: "Borrower", LEI: ""},
	}
	incoming := []agreement.Party{
		{Name: "acme industries inc.", Role: "Obligor", LEI: "5493001KJTIIGC8Y1R12"},
		{Name: "First National Bank", Role: "Lender"},
		{Name: ""},
	}

	merged := mergeParties(existing, incoming)
	require.Len(t, merged, 2)

	// First-seen entry keeps its role but gains the missing LEI.
	assert.Equal(t, "Acme Industries Inc.", merged[0].Name)
	assert.Equal(t, "Borrower", merged[0].Role)
	assert.Equal(t, "5493001KJTIIGC8Y1R12", merged[0].LEI)
	assert.Equal(t, "First National Bank", merged[1].Name)
}

func TestMergeFacilities(t *testing.T) {
	amount := decimal.NewFromInt(300_000_000)
	spread := 225.0

	existing := []agreement.Facility{
		{Name: "Term Loan Facility", Currency: "USD"},
	}
	incoming := []agreement.Facility{
		{
			Name:         "TERM LOAN FACILITY",
			Amount:       &amount,
			FacilityType: "term",
			SpreadBps:    &spread,
			Benchmark:    "SOFR",
			MaturityDate: "2029-03-15",
		},
	}

	merged := mergeFacilities(existing, incoming)
	require.Len(t, merged, 1)

	got := merged[0]
	assert.Equal(t, "Term Loan Facility", got.Name)
	require.NotNil(t, got.Amount)
	assert.True(t, got.Amount.Equal(amount))
	assert.Equal(t, "term", got.FacilityType)
	require.NotNil(t, got.SpreadBps)
	assert.Equal(t, 225.0, *got.SpreadBps)
	assert.Equal(t, "SOFR", got.Benchmark)
	assert.Equal(t, "2029-03-15", got.MaturityDate)
}

func TestMergeFacilities_FirstSeenFieldWins(t *testing.T) {
	first := decimal.NewFromInt(100)
	second := decimal.NewFromInt(999)

	merged := mergeFacilities(
		[]agreement.Facility{{Name: "Revolver", Amount: &first, Benchmark: "SOFR"}},
		[]agreement.Facility{{Name: "Revolver", Amount: &second, Benchmark: "LIBOR"}},
	)
	require.Len(t, merged, 1)
	assert.True(t, merged[0].Amount.Equal(first))
	assert.Equal(t, "SOFR", merged[0].Benchmark)
}
