package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicClient_Complete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-haiku-4-5-20251001", body["model"])
		assert.EqualValues(t, 1024, body["max_tokens"])
		assert.InDelta(t, 0.3, body["temperature"], 0.001)
		assert.NotNil(t, body["system"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":   "msg_test_001",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": `{"final_answer": "x = 2"}`},
			},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer ts.Close()

	client := NewAnthropicClient("test-key", "claude-haiku-4-5-20251001", WithAnthropicBaseURL(ts.URL))
	text, err := client.Complete(context.Background(), Request{
		Prompt:       "Solve x - 2 = 0",
		SystemPrompt: "You are a math teacher.",
		Temperature:  0.3,
		MaxTokens:    1024,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"final_answer": "x = 2"}`, text)
}

func TestAnthropicClient_StatusError(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
	}))
	defer ts.Close()

	client := NewAnthropicClient("test-key", "claude-haiku-4-5-20251001", WithAnthropicBaseURL(ts.URL))
	_, err := client.Complete(context.Background(), Request{Prompt: "2+2"})
	require.Error(t, err)

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusInternalServerError, upErr.StatusCode)
	assert.Contains(t, upErr.Body, "overloaded")
	assert.Equal(t, 1, calls, "SDK retries must be disabled")
}
