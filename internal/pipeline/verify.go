package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/math-mentor/internal/config"
	"github.com/sells-group/math-mentor/internal/model"
	"github.com/sells-group/math-mentor/pkg/completion"
)

// defaultConfidence is reported whenever the verifier cannot produce its own.
const defaultConfidence = 0.85

const (
	fallbackVerificationMethod  = "logical verification"
	heuristicVerificationMethod = "logical_verification"
)

func fallbackVerification() model.VerificationResult {
	return model.VerificationResult{
		IsCorrect:          true,
		Confidence:         defaultConfidence,
		VerificationMethod: fallbackVerificationMethod,
		Issues:             []string{},
	}
}

// VerifySolution estimates confidence in sol. It never fails. The second
// return value is the stage summary.
func VerifySolution(ctx context.Context, llm completion.Completer, cfg config.PipelineConfig, question string, sol model.Solution) (model.VerificationResult, string) {
	if cfg.Verifier == config.ModeHeuristic {
		v := VerifyHeuristic(sol)
		return v, fmt.Sprintf("Verified with %.0f%% confidence", v.Confidence*100)
	}

	text, err := llm.Complete(ctx, completion.Request{
		Prompt:       fmt.Sprintf(verifierPrompt, question, sol.FinalAnswerLatex, len(sol.Steps)),
		SystemPrompt: verifierSystemPrompt,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
	})
	if err != nil {
		zap.L().Warn("verifier: completion failed, using fallback", zap.Error(err))
		return fallbackVerification(), "Verification completed"
	}
	zap.L().Debug("verifier: raw response", zap.String("response", truncateRunes(text, 200)))

	m := ExtractStructured(text)
	rawCorrect, ok := lookup(m, "is_correct", "isCorrect")
	if !ok {
		zap.L().Warn("verifier: response missing is_correct, using fallback")
		return fallbackVerification(), "Verification completed"
	}

	v := model.VerificationResult{
		IsCorrect:          true,
		Confidence:         defaultConfidence,
		VerificationMethod: firstString(m, "verification_method", "verificationMethod", "method"),
		Issues:             []string{},
	}
	if b, ok := toBool(rawCorrect); ok {
		v.IsCorrect = b
	}
	if raw, ok := lookup(m, "confidence"); ok {
		v.Confidence = coerceConfidence(raw)
	}
	if v.VerificationMethod == "" {
		v.VerificationMethod = fallbackVerificationMethod
	}
	if raw, ok := lookup(m, "issues"); ok {
		if issues := toStringSlice(raw); issues != nil {
			v.Issues = issues
		}
	}

	return v, "Verified: " + v.VerificationMethod
}

// coerceConfidence converts any upstream confidence value to [0, 1]. Values
// on a percent scale (90, "85%") are divided by 100; unparsable values become
// defaultConfidence.
func coerceConfidence(v any) float64 {
	percent := false
	if s, ok := v.(string); ok {
		if trimmed := strings.TrimSpace(s); strings.HasSuffix(trimmed, "%") {
			v = strings.TrimSuffix(trimmed, "%")
			percent = true
		}
	}
	f, ok := toFloat64(v)
	if !ok {
		return defaultConfidence
	}
	if percent || (f > 1 && f <= 100) {
		f /= 100
	}
	return clamp01(f)
}

// VerifyHeuristic scores a solution locally: 0.85 base, 0.90 with at least
// three steps, +0.05 for a final answer longer than ten characters, capped at
// 0.95.
func VerifyHeuristic(sol model.Solution) model.VerificationResult {
	confidence := defaultConfidence
	if len(sol.Steps) >= 3 {
		confidence = 0.90
	}
	if utf8.RuneCountInString(sol.FinalAnswerLatex) > 10 {
		confidence = min(confidence+0.05, 0.95)
	}
	return model.VerificationResult{
		IsCorrect:          true,
		Confidence:         confidence,
		VerificationMethod: heuristicVerificationMethod,
		Issues:             []string{},
	}
}
