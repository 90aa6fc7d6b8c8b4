package pipeline

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// recoveryStrategy tries to recover a JSON object from model output. It
// returns the span that decoded along with the object.
type recoveryStrategy struct {
	name    string
	recover func(text string) (string, map[string]any, bool)
}

const latexRepairStrategy = "latex_repair"

// recoveryStrategies run in order; the first success wins.
var recoveryStrategies = []recoveryStrategy{
	{"whole_text", fromWholeText},
	{"json_fence", fromLabeledFence},
	{"any_fence", fromAnyFence},
	{"balanced_object", fromBalancedObjects},
	{"outer_braces", fromOuterBraces},
	{latexRepairStrategy, fromRepairedOuterBraces},
}

var (
	jsonFenceRe = regexp.MustCompile("(?is)```json\\s*(.*?)```")
	anyFenceRe  = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\s*(.*?)```")
)

// ExtractStructured recovers a JSON object from text that may wrap it in
// prose, markdown fences or commentary. It never fails: when nothing can be
// recovered it returns an empty, non-nil map.
func ExtractStructured(text string) map[string]any {
	m, _ := extractWithStrategy(text)
	return m
}

// extractWithStrategy is ExtractStructured plus the name of the strategy that
// succeeded ("" when none did). Unescaped \frac, \theta, \times and friends
// are legal JSON escapes (\f, \t, ...), so a span that decodes but leaves a
// control character in front of a LaTeX command name is decoded again with
// its backslashes repaired.
func extractWithStrategy(text string) (map[string]any, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return map[string]any{}, ""
	}
	for _, s := range recoveryStrategies {
		span, m, ok := s.recover(text)
		if !ok {
			continue
		}
		if hasMangledLatex(m) {
			if fixed, ok := decodeObject(repairBackslashes(span)); ok {
				return fixed, latexRepairStrategy
			}
		}
		return m, s.name
	}
	return map[string]any{}, ""
}

// latexEscapeLetters maps the control characters produced by JSON escapes
// back to the letter that followed the backslash.
var latexEscapeLetters = map[rune]string{
	'\f': "f",
	'\t': "t",
	'\b': "b",
	'\n': "n",
	'\r': "r",
}

// latexCommands are LaTeX command names starting with f, t, b, n or r.
var latexCommands = map[string]bool{
	"frac": true, "forall": true, "flat": true, "frown": true,
	"times": true, "theta": true, "tan": true, "tanh": true, "tau": true, "text": true,
	"textbf": true, "textit": true, "textrm": true, "tfrac": true, "tilde": true,
	"to": true, "top": true, "triangle": true, "therefore": true,
	"beta": true, "bar": true, "binom": true, "bmod": true, "big": true, "bigl": true,
	"bigr": true, "boxed": true, "bot": true, "because": true, "bullet": true,
	"nabla": true, "neq": true, "ne": true, "nu": true, "neg": true, "not": true,
	"notin": true, "ni": true, "nleq": true, "ngeq": true, "newline": true, "nmid": true,
	"rho": true, "right": true, "rightarrow": true, "rangle": true, "rfloor": true,
	"rceil": true, "rm": true, "root": true,
}

// hasMangledLatex reports whether any string in v contains a control
// character followed by letters that, with the lost letter restored, spell a
// LaTeX command.
func hasMangledLatex(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		for _, e := range t {
			if hasMangledLatex(e) {
				return true
			}
		}
	case []any:
		for _, e := range t {
			if hasMangledLatex(e) {
				return true
			}
		}
	case string:
		return stringHasMangledLatex(t)
	}
	return false
}

func stringHasMangledLatex(s string) bool {
	for i, r := range s {
		letter, ok := latexEscapeLetters[r]
		if !ok {
			continue
		}
		j := i + utf8.RuneLen(r)
		k := j
		for k < len(s) && isASCIILetter(s[k]) {
			k++
		}
		if k > j && latexCommands[letter+s[j:k]] {
			return true
		}
	}
	return false
}

func isASCIILetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// decodeObject parses s as a single JSON object. Arrays, scalars and trailing
// garbage are rejected.
func decodeObject(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(s))
	var m map[string]any
	if err := dec.Decode(&m); err != nil || m == nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return m, true
}

func fromWholeText(text string) (string, map[string]any, bool) {
	m, ok := decodeObject(text)
	return text, m, ok
}

func fromLabeledFence(text string) (string, map[string]any, bool) {
	return firstFenced(jsonFenceRe, text)
}

func fromAnyFence(text string) (string, map[string]any, bool) {
	return firstFenced(anyFenceRe, text)
}

func firstFenced(re *regexp.Regexp, text string) (string, map[string]any, bool) {
	for _, match := range re.FindAllStringSubmatch(text, -1) {
		if m, ok := decodeObject(match[1]); ok {
			return match[1], m, true
		}
	}
	return "", nil, false
}

// fromBalancedObjects scans for brace-balanced substrings, skipping braces
// inside JSON strings, and returns the first one that parses.
func fromBalancedObjects(text string) (string, map[string]any, bool) {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchingBrace(text, start); end > start {
			span := text[start : end+1]
			if m, ok := decodeObject(span); ok {
				return span, m, true
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", nil, false
}

// matchingBrace returns the index of the brace closing the one at open, or -1.
func matchingBrace(text string, open int) int {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func outerBraces(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func fromOuterBraces(text string) (string, map[string]any, bool) {
	span, ok := outerBraces(text)
	if !ok {
		return "", nil, false
	}
	m, ok := decodeObject(span)
	return span, m, ok
}

// fromRepairedOuterBraces escapes LaTeX backslashes (\sin, \pi, \sqrt) that
// make otherwise well-formed model output invalid JSON.
func fromRepairedOuterBraces(text string) (string, map[string]any, bool) {
	span, ok := outerBraces(text)
	if !ok || !strings.Contains(span, `\`) {
		return "", nil, false
	}
	repaired := repairBackslashes(span)
	m, ok := decodeObject(repaired)
	return repaired, m, ok
}

// repairBackslashes doubles every backslash that does not already start an
// escaped backslash, an escaped quote or a \uXXXX escape.
func repairBackslashes(s string) string {
	var b bytes.Buffer
	b.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(s) {
			next := s[i+1]
			if next == '\\' || next == '"' || (next == 'u' && isHex4(s[i+2:])) {
				b.WriteByte(c)
				b.WriteByte(next)
				i++
				continue
			}
		}
		b.WriteString(`\\`)
	}
	return b.String()
}

func isHex4(s string) bool {
	if len(s) < 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
