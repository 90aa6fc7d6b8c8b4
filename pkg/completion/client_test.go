package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{"id":"gen-1","choices":[{"index":0,"message":{"role":"assistant","content":"x = 2"}}]}`

func TestComplete(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantText   string
		wantStatus int
		wantErr    string
	}{
		{
			name:     "success",
			status:   http.StatusOK,
			body:     okBody,
			wantText: "x = 2",
		},
		{
			name:       "rate_limit",
			status:     http.StatusTooManyRequests,
			body:       `{"error":"rate limit exceeded"}`,
			wantStatus: 429,
			wantErr:    "upstream status 429",
		},
		{
			name:       "server_error",
			status:     http.StatusInternalServerError,
			body:       `{"error":"internal server error"}`,
			wantStatus: 500,
			wantErr:    "internal server error",
		},
		{
			name:    "malformed_response",
			status:  http.StatusOK,
			body:    `{invalid json`,
			wantErr: "unmarshal response",
		},
		{
			name:    "no_choices",
			status:  http.StatusOK,
			body:    `{"choices":[]}`,
			wantErr: "no choices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))

			text, err := client.Complete(context.Background(), Request{Prompt: "Solve x - 2 = 0"})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Empty(t, text)

				var upErr *UpstreamError
				require.True(t, errors.As(err, &upErr), "expected *UpstreamError, got %T", err)
				assert.Equal(t, tt.wantStatus, upErr.StatusCode)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantText, text)
		})
	}
}

func TestComplete_RequestBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "deepseek/deepseek-r1", req.Model)
		assert.InDelta(t, 0.2, req.Temperature, 0.001)
		assert.Equal(t, 3000, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "You are a math teacher.", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, "integrate x^2", req.Messages[1].Content)

		assert.Equal(t, "http://localhost:3000", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Math Mentor AI", r.Header.Get("X-Title"))

		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	client := NewClient("test-key",
		WithBaseURL(srv.URL),
		WithModel("deepseek/deepseek-r1"),
		WithHeader("HTTP-Referer", "http://localhost:3000"),
		WithHeader("X-Title", "Math Mentor AI"),
	)
	_, err := client.Complete(context.Background(), Request{
		Prompt:       "integrate x^2",
		SystemPrompt: "You are a math teacher.",
		Temperature:  0.2,
		MaxTokens:    3000,
	})
	require.NoError(t, err)
}

func TestComplete_NoSystemMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	_, err := NewClient("test-key", WithBaseURL(srv.URL)).Complete(context.Background(), Request{Prompt: "2+2"})
	require.NoError(t, err)
}

func TestComplete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithTimeout(20*time.Millisecond))
	_, err := client.Complete(context.Background(), Request{Prompt: "2+2"})
	require.Error(t, err)

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Zero(t, upErr.StatusCode)
	assert.True(t, upErr.Transient())
	assert.Contains(t, err.Error(), "send request")
}

func TestComplete_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, Request{Prompt: "2+2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.False(t, upErr.Transient())
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()
	c := NewClient("my-key")
	hc := c.(*httpClient)
	assert.Equal(t, "my-key", hc.apiKey)
	assert.Equal(t, defaultBaseURL, hc.baseURL)
	assert.Equal(t, defaultModel, hc.model)
	assert.Equal(t, defaultTimeout, hc.http.Timeout)
	assert.NotNil(t, hc.http.Transport)
	assert.Empty(t, hc.headers)
}

func TestWithHeader_SkipsEmpty(t *testing.T) {
	t.Parallel()
	c := NewClient("k", WithHeader("X-Title", "")).(*httpClient)
	assert.NotContains(t, c.headers, "X-Title")
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()
	customClient := &http.Client{}
	c := NewClient("test-key", WithHTTPClient(customClient))
	hc := c.(*httpClient)
	assert.Equal(t, customClient, hc.http)
}
