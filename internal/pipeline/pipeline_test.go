package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/agreementd/internal/agreement"
	"github.com/fyrsmithlabs/agreementd/internal/extract"
	"github.com/fyrsmithlabs/agreementd/internal/llm"
	"github.com/fyrsmithlabs/agreementd/internal/segment"
)

// fullResponse satisfies all three extraction payload shapes at once, so
// the scripted client stays deterministic regardless of which concurrent
// operation calls first.
const fullResponse = `{
	"parties": [
		{"name": "Acme Industries Inc.", "role": "Borrower"},
		{"name": "First National Bank", "role": "Administrative Agent"}
	],
	"facilities": [
		{"name": "Term Loan Facility", "amount": "300,000,000", "facility_type": "term"},
		{"name": "Revolving Credit Facility", "amount": "200,000,000", "facility_type": "revolving"}
	],
	"total_commitment": "500000000",
	"agreement_date": "2024-03-15",
	"governing_law": "New York"
}`

func newTestService(t *testing.T, client extract.CompletionClient) *Service {
	t.Helper()
	svc, err := NewService(
		segment.New(segment.Config{}),
		extract.New(client, extract.Config{MaxRetries: 1}, nil),
		Config{},
		nil,
	)
	require.NoError(t, err)
	return svc
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(nil, extract.New(&llm.MockClient{}, extract.Config{}, nil), Config{}, nil)
	require.Error(t, err)

	_, err = NewService(segment.New(segment.Config{}), nil, Config{}, nil)
	require.Error(t, err)
}

func TestRun_Success(t *testing.T) {
	svc := newTestService(t, &llm.MockClient{Responses: []string{fullResponse}})

	result := svc.Run(context.Background(), "This credit agreement has no structural markers at all.")
	require.NotNil(t, result)
	assert.Equal(t, StatusSuccess, result.Status)
	require.NotNil(t, result.Agreement)

	agg := result.Agreement
	assert.Equal(t, 1.0, agg.ConfidenceScore)
	assert.Len(t, agg.Parties, 2)
	assert.Len(t, agg.Facilities, 2)
	assert.Equal(t, "2024-03-15", agg.AgreementDate)
	assert.Equal(t, "New York", agg.GoverningLaw)
	assert.Empty(t, agg.Warnings)

	// High confidence skips enrichment.
	assert.Equal(t, []string{
		agreement.StageStructureAnalysis,
		agreement.StageEntityExtraction,
		agreement.StageReconciliation,
	}, agg.StagesCompleted)

	assert.Equal(t, 1, result.Metadata.SectionsAnalyzed)
	assert.NotZero(t, result.Metadata.DocumentChars)
	assert.Contains(t, result.Message, "confidence")
}

func TestRun_EnrichmentRecoversPartial(t *testing.T) {
	// The model finds nothing; the pattern fallbacks recover a borrower,
	// a facility and a date from the raw text.
	svc := newTestService(t, &llm.MockClient{Responses: []string{"{}"}})

	text := `This loan agreement is made between Acme Corp., a Borrower, and
Big Bank N.A. Acme Corp. has requested a term loan of $1,000,000.
The agreement is dated as of June 1, 2023.`

	result := svc.Run(context.Background(), text)
	require.NotNil(t, result)
	assert.Equal(t, StatusPartial, result.Status)
	require.NotNil(t, result.Agreement)

	agg := result.Agreement
	require.NotEmpty(t, agg.Parties)
	assert.Equal(t, "Acme Corp", agg.Parties[0].Name)
	assert.Equal(t, "Borrower", agg.Parties[0].Role)
	require.Len(t, agg.Facilities, 1)
	assert.Equal(t, "2023-06-01", agg.AgreementDate)

	// The pre-enrichment confidence stands; reconciliation is not
	// re-run after enrichment.
	assert.InDelta(t, 0.2, agg.ConfidenceScore, 1e-9)
	assert.Contains(t, agg.StagesCompleted, agreement.StageEnrichment)
}

func TestRun_EmptyExtractionFails(t *testing.T) {
	svc := newTestService(t, &llm.MockClient{Responses: []string{"{}"}})

	result := svc.Run(context.Background(), "An unrelated document about something else entirely.")
	require.NotNil(t, result)
	assert.Equal(t, StatusFailed, result.Status)
	require.NotNil(t, result.Agreement)
	assert.Empty(t, result.Agreement.Parties)
	assert.Empty(t, result.Agreement.Facilities)
	assert.Contains(t, result.Message, "no parties or facilities")
}

func TestRun_UnconfiguredClientIsError(t *testing.T) {
	svc := newTestService(t, &llm.MockClient{Unconfigured: true})

	result := svc.Run(context.Background(), "some document text")
	require.NotNil(t, result)
	assert.Equal(t, StatusError, result.Status)
	assert.Nil(t, result.Agreement)
	assert.Contains(t, result.Message, "extraction failed")

	// Stages completed before the failure are still reported.
	assert.Equal(t, []string{
		agreement.StageStructureAnalysis,
		agreement.StageEntityExtraction,
	}, result.Metadata.StagesCompleted)
}

// cancellingClient returns a full response on every call and cancels the
// run context during the last expected call, simulating the caller
// walking away mid-run. With a single-section document each operation
// makes exactly one call, so cancelling on the third keeps the test
// deterministic.
type cancellingClient struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingClient) Complete(_ context.Context, _, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls >= 3 {
		c.cancel()
	}
	return fullResponse, nil
}

func (c *cancellingClient) Configured() bool { return true }

func TestRun_CancelledMidRunIsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := newTestService(t, &cancellingClient{cancel: cancel})

	result := svc.Run(ctx, "document text without structure")
	require.NotNil(t, result)

	// At least one operation completed before cancellation, so the
	// result is non-empty: partial, not failed and not error.
	assert.Equal(t, StatusPartial, result.Status)
	require.NotNil(t, result.Agreement)
	assert.NotContains(t, result.Agreement.StagesCompleted, agreement.StageEnrichment)
}

func TestRun_EmptyDocument(t *testing.T) {
	svc := newTestService(t, &llm.MockClient{Responses: []string{"{}"}})

	result := svc.Run(context.Background(), "")
	require.NotNil(t, result)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, 1, result.Metadata.SectionsAnalyzed)
	assert.Equal(t, 0, result.Metadata.DocumentChars)
}

func TestTruncateMessage(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, truncateMessage(string(long)), maxErrorMessageChars)
	assert.Equal(t, "short", truncateMessage("short"))
}

func TestDeriveStatus(t *testing.T) {
	svc := newTestService(t, &llm.MockClient{})

	withParties := agreement.Agreement{
		Parties:         []agreement.Party{{Name: "A", Role: "Borrower"}},
		Facilities:      []agreement.Facility{{Name: "F"}},
		ConfidenceScore: 0.8,
	}

	tests := []struct {
		name      string
		agg       agreement.Agreement
		cancelled bool
		want      Status
	}{
		{name: "confident result", agg: withParties, want: StatusSuccess},
		{
			name: "low confidence",
			agg: agreement.Agreement{
				Parties:         withParties.Parties,
				ConfidenceScore: 0.3,
			},
			want: StatusPartial,
		},
		{name: "cancelled non-empty", agg: withParties, cancelled: true, want: StatusPartial},
		{
			// Empty beats cancelled: nothing was extracted either way.
			name:      "cancelled and empty",
			agg:       agreement.Agreement{ConfidenceScore: 0.9},
			cancelled: true,
			want:      StatusFailed,
		},
		{name: "empty", agg: agreement.Agreement{ConfidenceScore: 0.6}, want: StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.deriveStatus(tt.agg, tt.cancelled))
		})
	}
}
