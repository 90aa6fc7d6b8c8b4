package pipeline

import (
	"strconv"
	"time"

	"github.com/sells-group/math-mentor/internal/model"
)

const (
	emptyFinalAnswer = `\text{Computing solution...}`
	emptyStepLatex   = `\text{Solution in progress}`
)

// Assemble maps the stage outputs into the response. Display step numbers come
// from the model when positive, otherwise from sequence position; order is
// always the sequence order.
func Assemble(q model.Question, sol model.Solution, v model.VerificationResult, trace []model.AgentTraceEntry, hitlThreshold float64) *model.SolutionResponse {
	steps := make([]model.Step, 0, len(sol.Steps))
	for i, s := range sol.Steps {
		n := s.StepNumber
		if n <= 0 {
			n = i + 1
		}
		desc := s.Description
		if desc == "" {
			desc = "Step " + strconv.Itoa(i+1)
		}
		latex := s.LatexExpression
		if latex == "" {
			latex = "..."
		}
		steps = append(steps, model.Step{Step: n, Description: desc, Latex: latex})
	}
	if len(steps) == 0 {
		steps = append(steps, model.Step{Step: 1, Description: "Solution step", Latex: emptyStepLatex})
	}

	finalAnswer := sol.FinalAnswerLatex
	if finalAnswer == "" {
		finalAnswer = emptyFinalAnswer
	}

	status := model.VerificationStatusNeedsReview
	if v.IsCorrect {
		status = model.VerificationStatusVerified
	}
	method := v.VerificationMethod
	if method == "" {
		method = fallbackVerificationMethod
	}

	names := make([]string, len(trace))
	results := make([]model.AgentTraceEntry, len(trace))
	for i, e := range trace {
		names[i] = e.Name
		results[i] = e
	}

	return &model.SolutionResponse{
		FinalAnswer: model.FinalAnswer{
			Latex:      finalAnswer,
			Confidence: clamp01(v.Confidence),
		},
		Steps:        steps,
		Verification: model.Verification{Status: status, Method: method},
		AgentTrace:   names,
		HITLApplied:  q.NeedsHITL(hitlThreshold),
		AgentResults: results,
	}
}

func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
