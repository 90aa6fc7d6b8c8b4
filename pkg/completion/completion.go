// Package completion sends chat-style prompts to a hosted LLM and returns
// the generated text.
package completion

import "context"

// Request is a single completion request: an optional system prompt and one
// user prompt.
type Request struct {
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// Completer returns the text of one completion. Failures are reported as
// *UpstreamError. Implementations never retry.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Messages builds the chat message list for req. The system message is
// omitted when SystemPrompt is empty.
func (r Request) Messages() []Message {
	msgs := make([]Message, 0, 2)
	if r.SystemPrompt != "" {
		msgs = append(msgs, Message{Role: "system", Content: r.SystemPrompt})
	}
	return append(msgs, Message{Role: "user", Content: r.Prompt})
}
