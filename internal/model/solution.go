package model

// SolutionStep is one worked step. StepNumber comes from the model and is
// only used for display; ordering is the position in Solution.Steps.
type SolutionStep struct {
	StepNumber      int    `json:"step_number"`
	Description     string `json:"description"`
	LatexExpression string `json:"latex_expression"`
}

// Solution is the Solver stage output. Once it leaves the Solver it always
// has a non-empty final answer and at least one step.
type Solution struct {
	FinalAnswerLatex string         `json:"final_answer_latex"`
	Steps            []SolutionStep `json:"solution_steps"`
}

// VerificationResult is the Verifier stage output.
type VerificationResult struct {
	IsCorrect          bool     `json:"is_correct"`
	Confidence         float64  `json:"confidence"`
	VerificationMethod string   `json:"verification_method"`
	Issues             []string `json:"issues"`
}

// Explanation is the Explainer stage output.
type Explanation struct {
	Text string `json:"explanation"`
}
