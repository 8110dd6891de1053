package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProviderSwitch(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "anthropic", cfg: Config{Provider: "anthropic", APIKey: "k"}},
		{name: "anthropic without key", cfg: Config{Provider: "anthropic"}, wantErr: true},
		{name: "openai", cfg: Config{Provider: "openai", APIKey: "k"}},
		{name: "ollama", cfg: Config{Provider: "ollama"}},
		{name: "mock", cfg: Config{Provider: "mock"}},
		{name: "empty", cfg: Config{}, wantErr: true},
		{name: "unknown", cfg: Config{Provider: "carrier-pigeon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestMockClient(t *testing.T) {
	m := &MockClient{Responses: []string{"first", "second"}}

	got, err := m.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	got, err = m.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	// Exhausted scripts repeat the last response.
	got, err = m.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	assert.Equal(t, 3, m.Calls())
	assert.True(t, m.Configured())
}

func TestMockClient_Error(t *testing.T) {
	wantErr := errors.New("boom")
	m := &MockClient{Err: wantErr}

	_, err := m.Complete(context.Background(), "", "")
	assert.ErrorIs(t, err, wantErr)

	assert.False(t, (&MockClient{Unconfigured: true}).Configured())
}

func TestAnthropicClient_Complete(t *testing.T) {
	var gotAPIKey, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("X-API-Key")
		gotVersion = r.Header.Get("Anthropic-Version")
		assert.Equal(t, "/v1/messages", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"content": [{"type": "text", "text": "{\"parties\": []}"}], "stop_reason": "end_turn"}`)
	}))
	defer srv.Close()

	client, err := NewAnthropicClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.True(t, client.Configured())

	got, err := client.Complete(context.Background(), "system", "user content")
	require.NoError(t, err)
	assert.Equal(t, `{"parties": []}`, got)
	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, "2023-06-01", gotVersion)
}

func TestAnthropicClient_RetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"content": [{"type": "text", "text": "ok"}]}`)
	}))
	defer srv.Close()

	client, err := NewAnthropicClient(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	got, err := client.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, calls)
}

func TestAnthropicClient_ClientErrorNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"type": "invalid_request_error", "message": "bad model"}}`)
	}))
	defer srv.Close()

	client, err := NewAnthropicClient(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad model")
	assert.Equal(t, 1, calls)
}

func TestOpenAIClient_Complete(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		fmt.Fprint(w, `{"choices": [{"message": {"content": "{\"facilities\": []}"}, "finish_reason": "stop"}]}`)
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.True(t, client.Configured())

	got, err := client.Complete(context.Background(), "system", "user content")
	require.NoError(t, err)
	assert.Equal(t, `{"facilities": []}`, got)
	assert.Equal(t, "Bearer sk-test", gotAuth)
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestIsRetryableError(t *testing.T) {
	base := &retryableError{err: errors.New("rate limited")}
	assert.True(t, isRetryableError(base))
	assert.True(t, isRetryableError(fmt.Errorf("wrapped: %w", base)))
	assert.False(t, isRetryableError(errors.New("plain")))
}
