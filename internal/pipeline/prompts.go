package pipeline

const parserSystemPrompt = "You are a mathematical parser agent. Analyze math problems and return only valid JSON."

const parserPrompt = `Analyze this mathematical question and extract key information:

Question: %s

Provide a JSON response with:
1. problem_type (e.g., "trigonometry", "integration", "differentiation", "algebra", "geometry", "arithmetic", "probability", "statistics", "limits", "matrices", "sequences and series")
2. concepts (list of key mathematical concepts involved)
3. normalized_question (cleaned and properly formatted version)

Return ONLY valid JSON in this exact format:
{
  "problem_type": "type here",
  "concepts": ["concept1", "concept2"],
  "normalized_question": "question here"
}`

const solverSystemPrompt = `You are an expert mathematics teacher. You provide complete, detailed step-by-step solutions.
Never skip steps. Show all mathematical work. Use proper LaTeX formatting.
Return only valid JSON with complete solutions.`

const solverPrompt = `Solve this problem with a COMPLETE, DETAILED step-by-step solution.

Question: %s

Problem Type: %s
Approach: %s
Key steps:
%s

IMPORTANT INSTRUCTIONS:
1. Provide a COMPLETE solution with ALL steps shown
2. Each step should show actual mathematical work, not just descriptions
3. Use proper LaTeX formatting for all mathematical expressions
4. Show intermediate calculations clearly
5. The final answer should be exact and complete

Return your response as valid JSON in this EXACT format:
{
  "final_answer_latex": "complete final answer in LaTeX (e.g., x = \\frac{\\pi}{6})",
  "solution_steps": [
    {
      "step_number": 1,
      "description": "Clear description of what this step does",
      "latex_expression": "The actual mathematical work in LaTeX"
    },
    {
      "step_number": 2,
      "description": "Next step description",
      "latex_expression": "Next mathematical work in LaTeX"
    }
  ]
}

Include at least 2-6 detailed steps. Escape every backslash in JSON strings.
Return ONLY the JSON, nothing else.`

const freeformSystemPrompt = "You are an expert math teacher."

const freeformPrompt = `Solve this problem completely with full working:

%s

Show every step of your solution clearly. Finish with a line that starts with "Answer:".`

const verifierSystemPrompt = "You are a mathematical verifier. Return only valid JSON."

const verifierPrompt = `Verify this mathematical solution:

Question: %s
Final Answer: %s
Number of steps: %d

Check if:
1. The solution approach is mathematically sound
2. The final answer is reasonable
3. All steps are logically connected

Return ONLY valid JSON:
{
  "is_correct": true,
  "confidence": 0.9,
  "verification_method": "method used",
  "issues": []
}`

// freeformTemperature applies to the plain-text solver retry.
const freeformTemperature = 0.2
