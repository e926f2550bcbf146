package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/clinic-phone/internal/resilience"
)

func chatCompletionJSON(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func TestOpenAI_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/chat/completions")
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o", body["model"])
		assert.EqualValues(t, 0, body["temperature"])
		assert.EqualValues(t, 5, body["max_completion_tokens"])

		msgs := body["messages"].([]any)
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
		assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
		assert.Equal(t, "Studio Medico Rossi", msgs[1].(map[string]any)["content"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletionJSON("YES"))
	}))
	defer srv.Close()

	c := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL})
	assert.Equal(t, "openai", c.Name())

	reply, err := c.Complete(context.Background(), Prompt{
		System:    "Reply ONLY with YES or NO.",
		User:      "Studio Medico Rossi",
		MaxTokens: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "YES", reply)
}

func TestOpenAI_NoSystemMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body["messages"].([]any), 1)
		assert.NotContains(t, body, "max_completion_tokens")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletionJSON("02 1234 5678"))
	}))
	defer srv.Close()

	reply, err := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL}).
		Complete(context.Background(), Prompt{User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "02 1234 5678", reply)
}

func TestOpenAI_ErrorsAreNotRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL}).
		Complete(context.Background(), Prompt{User: "hi"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "openai: chat completion")
	assert.Equal(t, int32(1), attempts.Load())
}

func TestOpenAI_PermanentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL}).
		Complete(context.Background(), Prompt{User: "hi"})
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}

func TestOpenAI_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatCompletionJSON("")
		resp["choices"] = []any{}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	_, err := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL}).
		Complete(context.Background(), Prompt{User: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
