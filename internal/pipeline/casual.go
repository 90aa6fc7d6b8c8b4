package pipeline

import (
	"strings"
	"time"

	"github.com/sells-group/math-mentor/internal/model"
)

const conversationalHandler = "conversational_handler"

const defaultCasualReply = "I'm a Math Mentor, specialized in solving mathematical problems. If you have any math questions, feel free to ask!"

// casualReplies are matched exactly first, then as whole phrases in order.
var casualReplies = []struct {
	phrase string
	reply  string
}{
	{"hi", "Hello! I'm your Math Mentor, here to help you solve complex mathematics problems step by step. Ask me any math question!"},
	{"hello", "Hi there! I'm your Math Mentor, ready to assist with any mathematical problem you have. What would you like to solve today?"},
	{"hey", "Hey! I'm your Math Mentor. I specialize in solving mathematical problems with detailed step-by-step solutions. How can I help?"},
	{"good morning", "Good morning! I'm your Math Mentor. Which math problem shall we work through today?"},
	{"good afternoon", "Good afternoon! I'm your Math Mentor. Send me a math problem and I'll solve it step by step."},
	{"good evening", "Good evening! I'm your Math Mentor. What math problem can I help you with tonight?"},
	{"how are you", "I'm doing great, thank you! I'm your Math Mentor, and I'm here to help you master mathematics. Do you have a math problem you'd like to solve?"},
	{"what's up", "Not much, just ready to solve some math! Send me a problem and I'll work through it step by step."},
	{"whats up", "Not much, just ready to solve some math! Send me a problem and I'll work through it step by step."},
	{"what can you do", "I'm a Math Mentor specialized in solving mathematical problems! I can help with calculus, algebra, trigonometry, geometry, and more. Just ask me any math question!"},
	{"who are you", "I'm your Math Mentor - an AI assistant specialized in solving mathematics problems step by step. I'm here to help you understand and solve complex math questions!"},
	{"what are you", "I'm an AI Math Mentor that breaks math problems into clear, verified steps. Ask me anything from algebra to calculus!"},
	{"introduce yourself", "I'm your Math Mentor. I parse your question, pick a solving strategy, work through the solution step by step and check the result. Try me with a math problem!"},
	{"help", "I'm here to help you with mathematics! I can solve equations, integration, differentiation, trigonometry, algebra, and much more. Just type your math question and I'll provide a detailed step-by-step solution."},
	{"thanks", "You're welcome! Send another math problem whenever you're ready."},
	{"thank you", "You're welcome! Send another math problem whenever you're ready."},
}

// CasualReply returns the canned reply for a greeting or casual message.
func CasualReply(text string) string {
	key := casualKey(normalizeText(text))
	for _, r := range casualReplies {
		if key == r.phrase {
			return r.reply
		}
	}
	padded := " " + strings.NewReplacer(",", " ", "!", " ", "?", " ", ".", " ").Replace(key) + " "
	for _, r := range casualReplies {
		if strings.Contains(padded, " "+r.phrase+" ") {
			return r.reply
		}
	}
	return defaultCasualReply
}

// CasualResponse builds the conversational response returned instead of
// running the solving pipeline.
func CasualResponse(text string, now time.Time) *model.SolutionResponse {
	reply := CasualReply(text)
	return &model.SolutionResponse{
		FinalAnswer: model.FinalAnswer{
			Latex:      `\text{` + strings.ReplaceAll(reply, " ", `\ `) + `}`,
			Confidence: 1.0,
		},
		Steps: []model.Step{{
			Step:        1,
			Description: reply,
			Latex:       `\text{Ready to help with math!}`,
		}},
		Verification: model.Verification{
			Status: model.VerificationStatusCasual,
			Method: "conversational",
		},
		AgentTrace:  []string{conversationalHandler},
		HITLApplied: false,
		AgentResults: []model.AgentTraceEntry{{
			Name:      conversationalHandler,
			Result:    "Handled casual query",
			Timestamp: formatTimestamp(now),
		}},
	}
}
