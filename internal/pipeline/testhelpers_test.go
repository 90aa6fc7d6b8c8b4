package pipeline

import (
	"strings"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/math-mentor/internal/config"
	"github.com/sells-group/math-mentor/pkg/completion"
)

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		Parser:        config.ModeLLM,
		Verifier:      config.ModeLLM,
		HITLThreshold: 0.75,
		MaxTokens:     4000,
		Temperature:   0.3,
	}
}

// forStage matches completion requests issued by one pipeline stage.
func forStage(systemPrompt string) any {
	return mock.MatchedBy(func(r completion.Request) bool {
		return r.SystemPrompt == systemPrompt
	})
}

// promptContains matches requests whose user prompt contains every fragment.
func promptContains(fragments ...string) any {
	return mock.MatchedBy(func(r completion.Request) bool {
		for _, f := range fragments {
			if !strings.Contains(r.Prompt, f) {
				return false
			}
		}
		return true
	})
}

var errUpstream500 = &completion.UpstreamError{StatusCode: 500, Body: `{"error":"internal"}`}
