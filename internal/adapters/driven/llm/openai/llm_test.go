package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestNewCompletionService(t *testing.T) {
	_, err := NewCompletionService(Config{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	svc, err := NewCompletionService(Config{APIKey: "sk"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
}

func TestComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Equal(t, 64, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "the prompt", req.Messages[0].Content)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"The sky is blue."},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	svc, err := NewCompletionService(Config{APIKey: "sk", BaseURL: server.URL, MaxTokens: 64})
	require.NoError(t, err)

	got, err := svc.Complete(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "The sky is blue.", got)
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"quota"}}`, domain.ErrRateLimited},
		{"forbidden", http.StatusForbidden, `{"error":{"message":"nope"}}`, domain.ErrAuth},
		{"no choices", http.StatusOK, `{"choices":[]}`, domain.ErrCompletionService},
		{"garbage", http.StatusOK, `not json`, domain.ErrCompletionService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc, err := NewCompletionService(Config{APIKey: "sk", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = svc.Complete(context.Background(), "p")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
