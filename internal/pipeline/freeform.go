package pipeline

import (
	"regexp"
	"strconv"
	"strings"
)

// Words that open a new step, and the subset that mark a final-answer line.
var (
	stepIndicators   = []string{"step", "solution", "therefore", "answer", "result"}
	answerIndicators = []string{"answer", "result", "therefore"}

	// answerLabelRe matches a leading "Answer:", "Therefore," or
	// "Therefore the answer is" style label on a final-answer line.
	answerLabelRe = regexp.MustCompile(`(?i)^(?:final\s+answer|answer|result|therefore|hence|thus)\b\s*[:,.\-]?\s*(?:the\s+(?:final\s+)?(?:answer|result)\s+is\b\s*:?\s*)?`)
)

// segmentFreeform splits a worked solution written as prose into steps. A line
// containing a step indicator closes the step accumulated so far; the last
// line containing an answer indicator becomes the final answer.
func segmentFreeform(text string) map[string]any {
	var (
		steps       []any
		current     []string
		finalAnswer string
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		n := len(steps) + 1
		steps = append(steps, map[string]any{
			"step_number":      n,
			"description":      "Step " + strconv.Itoa(n),
			"latex_expression": strings.Join(current, " "),
		})
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if containsAny(lower, stepIndicators) {
			flush()
			if containsAny(lower, answerIndicators) {
				finalAnswer = answerText(line)
			}
		}
		current = append(current, line)
	}
	flush()

	if finalAnswer == "" && len(steps) > 0 {
		finalAnswer = steps[len(steps)-1].(map[string]any)["latex_expression"].(string)
	}
	if finalAnswer == "" {
		finalAnswer = "See solution above"
	}

	return map[string]any{
		"final_answer": finalAnswer,
		"steps":        steps,
	}
}

// answerText strips markdown emphasis and a leading answer label from line.
// A line that is nothing but the label is kept as is.
func answerText(line string) string {
	trimmed := strings.TrimSpace(strings.Trim(line, "*# "))
	stripped := strings.TrimSpace(strings.Trim(answerLabelRe.ReplaceAllString(trimmed, ""), "*# "))
	if stripped == "" {
		return trimmed
	}
	return stripped
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
