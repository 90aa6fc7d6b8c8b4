package completion

import (
	"context"
	"errors"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// AnthropicOption configures the Anthropic-backed Completer.
type AnthropicOption func(*anthropicSettings)

type anthropicSettings struct {
	baseURL string
	timeout time.Duration
}

// WithAnthropicBaseURL points the SDK at a different API host.
func WithAnthropicBaseURL(url string) AnthropicOption {
	return func(s *anthropicSettings) {
		s.baseURL = url
	}
}

// WithAnthropicTimeout overrides the per-request timeout.
func WithAnthropicTimeout(d time.Duration) AnthropicOption {
	return func(s *anthropicSettings) {
		s.timeout = d
	}
}

// anthropicClient implements Completer using the official anthropic-sdk-go.
type anthropicClient struct {
	client sdk.Client
	model  string
}

// NewAnthropicClient creates a Completer backed by the Anthropic Messages API.
// SDK retries are disabled; fallback policy belongs to the caller.
func NewAnthropicClient(apiKey, model string, opts ...AnthropicOption) Completer {
	s := anthropicSettings{timeout: defaultTimeout}
	for _, o := range opts {
		o(&s)
	}

	sdkOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(s.timeout),
	}
	if s.baseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(s.baseURL))
	}

	return &anthropicClient{
		client: sdk.NewClient(sdkOpts...),
		model:  model,
	}
}

func (c *anthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4000
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   maxTokens,
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt))},
		Temperature: sdk.Float(req.Temperature),
	}
	if req.SystemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemPrompt}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return "", &UpstreamError{StatusCode: apiErr.StatusCode, Body: apiErr.RawJSON(), Err: err}
		}
		return "", transportError(eris.Wrap(err, "completion: anthropic create message"))
	}

	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", transportError(eris.New("completion: anthropic response has no text content"))
	}
	return strings.Join(parts, "\n"), nil
}
