package pipeline

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/sells-group/math-mentor/internal/config"
	"github.com/sells-group/math-mentor/internal/model"
	"github.com/sells-group/math-mentor/pkg/completion"
)

const fallbackProblemType = "mathematical problem"

// fallbackParsed is used whenever the problem type cannot be determined.
func fallbackParsed(question string) model.ParsedProblem {
	return model.ParsedProblem{
		ProblemType:        fallbackProblemType,
		Concepts:           []string{"general math"},
		NormalizedQuestion: question,
	}
}

// ParseQuestion classifies the problem type and concepts of question. It never
// fails: upstream errors and unusable output yield fallbackParsed.
func ParseQuestion(ctx context.Context, llm completion.Completer, cfg config.PipelineConfig, question string) model.ParsedProblem {
	if cfg.Parser == config.ModeKeyword {
		return ParseKeywords(question)
	}

	text, err := llm.Complete(ctx, completion.Request{
		Prompt:       fmt.Sprintf(parserPrompt, question),
		SystemPrompt: parserSystemPrompt,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
	})
	if err != nil {
		zap.L().Warn("parser: completion failed, using fallback", zap.Error(err))
		return fallbackParsed(question)
	}
	zap.L().Debug("parser: raw response", zap.String("response", truncateRunes(text, 200)))

	return parsedFromMap(ExtractStructured(text), question)
}

func parsedFromMap(m map[string]any, question string) model.ParsedProblem {
	problemType := firstString(m, "problem_type", "problemType")
	if problemType == "" {
		zap.L().Warn("parser: response missing problem_type, using fallback")
		return fallbackParsed(question)
	}

	parsed := model.ParsedProblem{
		ProblemType:        problemType,
		NormalizedQuestion: firstString(m, "normalized_question", "normalizedQuestion"),
	}
	if v, ok := lookup(m, "concepts"); ok {
		parsed.Concepts = toStringSlice(v)
	}
	if len(parsed.Concepts) == 0 {
		parsed.Concepts = []string{"general math"}
	}
	if parsed.NormalizedQuestion == "" {
		parsed.NormalizedQuestion = question
	}
	return parsed
}

type keywordRule struct {
	problemType string
	concepts    []string
	pattern     *regexp.Regexp
}

// keywordRules are checked in order; the first match decides.
var keywordRules = []keywordRule{
	{"trigonometry", []string{"trigonometric equations", "identities"},
		regexp.MustCompile(`\b(?:sin|cos|tan|cot|sec|csc|arcsin|arccos|arctan)\b|trigonometr`)},
	{"integration", []string{"calculus", "integration"},
		regexp.MustCompile(`\bintegra(?:te|l|ls|tion)\b|∫`)},
	{"differentiation", []string{"calculus", "differentiation"},
		regexp.MustCompile(`\bdifferentiat(?:e|ion)\b|\bderivatives?\b|\bd/d[a-z]\b`)},
	{"algebra", []string{"algebraic equations"},
		regexp.MustCompile(`\bequations?\b|\bsolve\b|\bfind [xyz]\b|=`)},
	{"geometry", []string{"geometric calculations"},
		regexp.MustCompile(`\b(?:triangle|circle|angle|area|perimeter)s?\b`)},
}

// ParseKeywords infers the problem type locally, without a completion request.
func ParseKeywords(question string) model.ParsedProblem {
	t := normalizeText(question)
	for _, r := range keywordRules {
		if r.pattern.MatchString(t) {
			return model.ParsedProblem{
				ProblemType:        r.problemType,
				Concepts:           append([]string(nil), r.concepts...),
				NormalizedQuestion: question,
			}
		}
	}
	return fallbackParsed(question)
}
