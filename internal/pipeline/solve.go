package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/math-mentor/internal/config"
	"github.com/sells-group/math-mentor/internal/model"
	"github.com/sells-group/math-mentor/pkg/completion"
)

// SolvePath records how the Solver produced its Solution.
type SolvePath string

// Solver paths, from best to worst.
const (
	SolvePathStructured  SolvePath = "structured"
	SolvePathFreeform    SolvePath = "freeform"
	SolvePathPlaceholder SolvePath = "placeholder"
)

var (
	finalAnswerKeys = []string{"final_answer_latex", "final_answer", "answer"}
	stepListKeys    = []string{"solution_steps", "steps"}
)

// questionExcerptLen bounds how much of the question is echoed into fallback steps.
const questionExcerptLen = 100

// SolveProblem produces the worked solution. It tries a structured JSON
// request, then a free-form request, and finally a static placeholder; it
// never fails and the returned Solution always has a final answer and at
// least one step.
func SolveProblem(ctx context.Context, llm completion.Completer, cfg config.PipelineConfig, question string, parsed model.ParsedProblem, strategy model.Strategy) (model.Solution, SolvePath) {
	log := zap.L().With(zap.String("problem_type", parsed.ProblemType))

	text, err := llm.Complete(ctx, completion.Request{
		Prompt:       fmt.Sprintf(solverPrompt, question, parsed.ProblemType, strategy.Name, formatKeySteps(strategy.KeySteps)),
		SystemPrompt: solverSystemPrompt,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
	})
	if err != nil {
		log.Warn("solver: structured request failed", zap.Error(err))
	} else {
		log.Debug("solver: raw response", zap.String("response", truncateRunes(text, 300)))
		m, strategyName := extractWithStrategy(text)
		if hasAny(m, finalAnswerKeys...) {
			log.Debug("solver: extracted structured solution", zap.String("recovery", strategyName))
			return structureSolution(m, question), SolvePathStructured
		}
		log.Warn("solver: response missing final answer, retrying free-form",
			zap.Int("response_len", len(text)),
		)
	}

	if ctx.Err() != nil {
		return placeholderSolution(question, parsed.ProblemType), SolvePathPlaceholder
	}

	text, err = llm.Complete(ctx, completion.Request{
		Prompt:       fmt.Sprintf(freeformPrompt, question),
		SystemPrompt: freeformSystemPrompt,
		Temperature:  freeformTemperature,
		MaxTokens:    cfg.MaxTokens,
	})
	if err != nil {
		log.Warn("solver: free-form request failed, using placeholder", zap.Error(err))
		return placeholderSolution(question, parsed.ProblemType), SolvePathPlaceholder
	}
	if strings.TrimSpace(text) == "" {
		log.Warn("solver: empty free-form response, using placeholder")
		return placeholderSolution(question, parsed.ProblemType), SolvePathPlaceholder
	}

	return structureSolution(segmentFreeform(text), question), SolvePathFreeform
}

func formatKeySteps(steps []string) string {
	var b strings.Builder
	for i, s := range steps {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i+1) + ". " + s)
	}
	return b.String()
}

// structureSolution normalises the response shapes models produce into a
// Solution. With fewer than two usable steps it synthesises an analysis step
// and a solution step from the final answer.
func structureSolution(m map[string]any, question string) model.Solution {
	finalAnswer := firstString(m, finalAnswerKeys...)
	if finalAnswer == "" {
		finalAnswer = "See detailed steps"
	}

	var steps []model.SolutionStep
	raw, _ := lookup(m, stepListKeys...)
	items, _ := raw.([]any)
	for i, item := range items {
		if step, ok := toSolutionStep(item, i); ok {
			steps = append(steps, step)
		}
	}

	if len(steps) < 2 {
		steps = []model.SolutionStep{
			{
				StepNumber:      1,
				Description:     "Problem Analysis",
				LatexExpression: `\text{Given: } ` + truncateRunes(question, questionExcerptLen),
			},
			{
				StepNumber:      2,
				Description:     "Solution",
				LatexExpression: finalAnswer,
			},
		}
	}

	return model.Solution{FinalAnswerLatex: finalAnswer, Steps: steps}
}

// toSolutionStep accepts {step_number|step, description, latex_expression|math|latex}
// objects or bare strings. Items with neither a description nor math are unusable.
func toSolutionStep(item any, i int) (model.SolutionStep, bool) {
	if s := toString(item); s != "" {
		return model.SolutionStep{StepNumber: i + 1, Description: "Step " + strconv.Itoa(i+1), LatexExpression: s}, true
	}

	m, ok := item.(map[string]any)
	if !ok {
		return model.SolutionStep{}, false
	}

	description := firstString(m, "description", "explanation")
	latex := firstString(m, "latex_expression", "math", "latex", "expression")
	if description == "" && latex == "" {
		return model.SolutionStep{}, false
	}

	number := i + 1
	if v, ok := lookup(m, "step_number", "step"); ok {
		if n, ok := toPositiveInt(v); ok {
			number = n
		}
	}
	if description == "" {
		description = "Step " + strconv.Itoa(number)
	}
	if latex == "" {
		latex = "..."
	}

	return model.SolutionStep{StepNumber: number, Description: description, LatexExpression: latex}, true
}

// placeholderSolution is the Solver's last resort when no completion could be
// used.
func placeholderSolution(question, problemType string) model.Solution {
	return model.Solution{
		FinalAnswerLatex: `\text{Computing solution...}`,
		Steps: []model.SolutionStep{
			{
				StepNumber:      1,
				Description:     "Problem Identification",
				LatexExpression: `\text{Type: ` + escapeLatexText(problemType) + `}`,
			},
			{
				StepNumber:      2,
				Description:     "Given Problem",
				LatexExpression: `\text{` + escapeLatexText(truncateRunes(question, questionExcerptLen)) + `}`,
			},
			{
				StepNumber:      3,
				Description:     "Solution Approach",
				LatexExpression: `\text{Applying mathematical techniques to solve}`,
			},
		},
	}
}

// escapeLatexText escapes braces so arbitrary text can sit inside \text{...}.
func escapeLatexText(s string) string {
	return strings.NewReplacer(`{`, `\{`, `}`, `\}`).Replace(s)
}
