package model

// Verification statuses surfaced to callers.
const (
	VerificationStatusVerified    = "verified"
	VerificationStatusNeedsReview = "needs_review"
	VerificationStatusCasual      = "casual_response"
)

// AgentTraceEntry records one executed pipeline stage.
type AgentTraceEntry struct {
	Name      string `json:"name"`
	Result    string `json:"result"`
	Timestamp string `json:"timestamp"`
}

// FinalAnswer is the answer block of a SolutionResponse.
type FinalAnswer struct {
	Latex      string  `json:"latex"`
	Confidence float64 `json:"confidence"`
}

// Step is a rendered solution step.
type Step struct {
	Step        int    `json:"step"`
	Description string `json:"description"`
	Latex       string `json:"latex"`
}

// Verification is the verification block of a SolutionResponse.
type Verification struct {
	Status string `json:"status"`
	Method string `json:"method"`
}

// SolutionResponse is the externally visible result of solving a Question.
type SolutionResponse struct {
	FinalAnswer  FinalAnswer       `json:"finalAnswer"`
	Steps        []Step            `json:"steps"`
	Verification Verification      `json:"verification"`
	AgentTrace   []string          `json:"agentTrace"`
	HITLApplied  bool              `json:"hitlApplied"`
	AgentResults []AgentTraceEntry `json:"agentResults"`
}
