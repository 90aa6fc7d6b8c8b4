package model

// Question is the caller-supplied input to the solver. It is never mutated.
type Question struct {
	Text         string  `json:"text"`
	InputMode    string  `json:"inputMode"`
	Confidence   float64 `json:"confidence"`
	RequiresHITL bool    `json:"requiresHITL"`
}

// DefaultHITLThreshold is the input confidence below which hitlApplied is set.
const DefaultHITLThreshold = 0.75

// NeedsHITL reports whether the caller's own confidence in the input falls
// below threshold.
func (q Question) NeedsHITL(threshold float64) bool {
	return q.Confidence < threshold
}

// ParsedProblem is the Parser stage output.
type ParsedProblem struct {
	ProblemType        string   `json:"problem_type"`
	Concepts           []string `json:"concepts"`
	NormalizedQuestion string   `json:"normalized_question"`
}

// Strategy is the Router stage output.
type Strategy struct {
	Name     string   `json:"strategy" yaml:"strategy"`
	KeySteps []string `json:"key_steps" yaml:"key_steps"`
}
