package pipeline

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Signal names which rule decided a classification.
type Signal string

// Classification signals, in the order they are evaluated.
const (
	SignalCasual         Signal = "casual"
	SignalKeyword        Signal = "keyword"
	SignalSymbol         Signal = "symbol"
	SignalFunction       Signal = "function"
	SignalNumericPattern Signal = "numeric_pattern"
	SignalQuestionPhrase Signal = "question_phrase"
	SignalDigitQuestion  Signal = "digit_question"
	SignalDigit          Signal = "digit"
	SignalNone           Signal = "none"
)

// Classification is the result of Classify.
type Classification struct {
	IsMath bool
	Signal Signal
}

// casualPhrases are whole-string greetings and casual intents. Text matching
// one of these exactly (ignoring trailing punctuation) is never math.
var casualPhrases = map[string]bool{
	"hi":                 true,
	"hello":              true,
	"hey":                true,
	"hi there":           true,
	"hello there":        true,
	"hey there":          true,
	"good morning":       true,
	"good afternoon":     true,
	"good evening":       true,
	"how are you":        true,
	"how are you doing":  true,
	"what's up":          true,
	"whats up":           true,
	"sup":                true,
	"what can you do":    true,
	"who are you":        true,
	"what are you":       true,
	"help":               true,
	"introduce yourself": true,
	"thanks":             true,
	"thank you":          true,
}

var mathKeywords = []string{
	"solve", "solving", "find", "calculate", "calculation", "compute", "evaluate",
	"integrate", "integral", "integrals", "integration",
	"differentiate", "derivative", "derivatives", "differentiation",
	"equation", "equations", "inequality", "simplify", "prove", "proof",
	"factor", "factorize", "factorise", "factorization", "expand",
	"limit", "limits", "sum", "product", "matrix", "matrices", "determinant",
	"vector", "vectors", "percent", "percentage", "angle", "triangle", "circle",
	"area", "volume", "perimeter", "radius", "diameter", "hypotenuse",
	"probability", "polynomial", "quadratic", "logarithm", "fraction", "fractions",
	"square root", "cube root", "exponent", "mean", "median", "variance",
	"permutation", "permutations", "combination", "combinations", "theorem",
	"algebra", "geometry", "trigonometry", "calculus", "arithmetic",
}

// mathSymbols are operator characters that signal math on their own. The
// hyphen is handled separately so that hyphenated words do not count.
const mathSymbols = "=+×÷^√∫∑∏%<>≤≥≠π∞∂"

var functionNames = []string{
	"sin", "cos", "tan", "cot", "sec", "csc",
	"arcsin", "arccos", "arctan", "sinh", "cosh", "tanh",
	"log", "ln", "exp", "sqrt", "lim", "det",
}

var (
	keywordRe  = wordAlternation(mathKeywords)
	functionRe = wordAlternation(functionNames)

	// A minus sign that stands on its own or negates a number or variable.
	standaloneMinusRe = regexp.MustCompile(`(?:^|[\s(\[=])[-−](?:[\s\d(.]|[a-z](?:$|[^a-z]))`)

	// Equation, inequality, caret exponent and percentage forms are already
	// caught by mathSymbols.
	numericPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d+(?:\.\d+)?\s*[-+*/×÷^]\s*\d+`), // arithmetic
		regexp.MustCompile(`\d+\.\d+`),                        // decimal
		regexp.MustCompile(`\b\d+\s*/\s*\d+\b`),               // fraction
		regexp.MustCompile(`[a-z\d)]\s*\*\*\s*[\d(a-z-]`),     // exponent
		regexp.MustCompile(`\b\d+[a-z]\b`),                    // coefficient, e.g. 5x
		regexp.MustCompile(`\bd/d[a-z]\b`),                    // derivative operator
	}

	questionPhrases = []*regexp.Regexp{
		regexp.MustCompile(`\bwhat(?:'s| is)\s+[-−]?\d`),
		regexp.MustCompile(`\bhow much is\b`),
		regexp.MustCompile(`\bhow many\b`),
		regexp.MustCompile(`\bfind the value\b`),
		regexp.MustCompile(`\bvalue of\b`),
	}

	digitRe = regexp.MustCompile(`\d`)

	// Leading words that make digit-bearing text read as a question or task.
	interrogativeRe = regexp.MustCompile(`^(?:what|how|why|when|which|is|are|does|do|can|if|given|show|determine|find|solve|calculate|compute)\b`)
)

func wordAlternation(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

var lowerCaser = cases.Lower(language.Und)

// normalizeText folds compatibility characters (full-width digits and
// operators), lowercases and trims.
func normalizeText(text string) string {
	text = norm.NFKC.String(text)
	text = strings.ReplaceAll(text, "’", "'")
	return strings.TrimSpace(lowerCaser.String(text))
}

// casualKey strips trailing punctuation and collapses inner whitespace so that
// "Hello!" and "what  can you do?" match the casual tables.
func casualKey(normalized string) string {
	trimmed := strings.TrimRightFunc(normalized, func(r rune) bool {
		return r == '?' || r == '!' || r == '.' || unicode.IsSpace(r)
	})
	return strings.Join(strings.Fields(trimmed), " ")
}

// IsCasual reports whether text exactly matches a known greeting or casual
// phrase.
func IsCasual(text string) bool {
	return casualPhrases[casualKey(normalizeText(text))]
}

// Classify decides whether text is a math question. Any positive signal makes
// it math; ambiguous text that contains a digit is treated as math.
func Classify(text string) Classification {
	t := normalizeText(text)

	if casualPhrases[casualKey(t)] {
		return Classification{IsMath: false, Signal: SignalCasual}
	}

	if keywordRe.MatchString(t) {
		return Classification{IsMath: true, Signal: SignalKeyword}
	}
	if strings.ContainsAny(t, mathSymbols) || standaloneMinusRe.MatchString(t) {
		return Classification{IsMath: true, Signal: SignalSymbol}
	}
	if functionRe.MatchString(t) {
		return Classification{IsMath: true, Signal: SignalFunction}
	}
	for _, re := range numericPatterns {
		if re.MatchString(t) {
			return Classification{IsMath: true, Signal: SignalNumericPattern}
		}
	}
	for _, re := range questionPhrases {
		if re.MatchString(t) {
			return Classification{IsMath: true, Signal: SignalQuestionPhrase}
		}
	}

	if digitRe.MatchString(t) {
		if strings.HasSuffix(t, "?") || interrogativeRe.MatchString(t) {
			return Classification{IsMath: true, Signal: SignalDigitQuestion}
		}
		return Classification{IsMath: true, Signal: SignalDigit}
	}

	return Classification{IsMath: false, Signal: SignalNone}
}
