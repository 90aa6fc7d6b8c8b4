package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/math-mentor/internal/model"
)

func TestCasualReply(t *testing.T) {
	tests := []struct {
		text      string
		wantStart string
	}{
		{"hi", "Hello! I'm your Math Mentor"},
		{"Hello!", "Hi there!"},
		{"hey there", "Hey!"},
		{"Good evening.", "Good evening!"},
		{"what can you do?", "I'm a Math Mentor specialized"},
		{"who are you", "I'm your Math Mentor - an AI assistant"},
		{"thank you", "You're welcome!"},
		{"hello there, friend", "Hi there!"},
		{"tell me a joke", "I'm a Math Mentor, specialized"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(CasualReply(tt.text), tt.wantStart), CasualReply(tt.text))
		})
	}
}

func TestCasualReply_EveryCasualPhraseHasReply(t *testing.T) {
	for phrase := range casualPhrases {
		if phrase == "sup" || phrase == "how are you doing" {
			continue
		}
		assert.NotEqual(t, defaultCasualReply, CasualReply(phrase), phrase)
	}
}

func TestCasualResponse(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	resp := CasualResponse("hello", now)

	reply := CasualReply("hello")
	assert.Equal(t, `\text{`+strings.ReplaceAll(reply, " ", `\ `)+`}`, resp.FinalAnswer.Latex)
	assert.InDelta(t, 1.0, resp.FinalAnswer.Confidence, 1e-9)
	require.Len(t, resp.Steps, 1)
	assert.Equal(t, model.Step{Step: 1, Description: reply, Latex: `\text{Ready to help with math!}`}, resp.Steps[0])
	assert.Equal(t, model.Verification{Status: "casual_response", Method: "conversational"}, resp.Verification)
	assert.Equal(t, []string{"conversational_handler"}, resp.AgentTrace)
	assert.False(t, resp.HITLApplied)
	assert.Equal(t, []model.AgentTraceEntry{{
		Name:      "conversational_handler",
		Result:    "Handled casual query",
		Timestamp: "2026-03-01T12:00:00Z",
	}}, resp.AgentResults)
}
