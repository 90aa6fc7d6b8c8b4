package pipeline

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/math-mentor/internal/model"
)

// defaultStrategyKey names the entry used for unrecognised problem types.
const defaultStrategyKey = "default"

var defaultStrategy = model.Strategy{
	Name: "Step-by-step analytical approach",
	KeySteps: []string{
		"Understand the problem requirements",
		"Apply appropriate mathematical techniques",
		"Solve systematically",
		"Verify the answer",
	},
}

var builtinStrategies = map[string]model.Strategy{
	"trigonometry": {
		Name: "Trigonometric identities and equation solving",
		KeySteps: []string{
			"Apply trigonometric identities to simplify",
			"Solve the resulting equation",
			"Find all solutions in the given range",
			"Verify solutions are in the given domain",
		},
	},
	"integration": {
		Name: "Integration techniques",
		KeySteps: []string{
			"Identify the integration method (substitution, parts, etc.)",
			"Apply the method step by step",
			"Integrate term by term",
			"Add constant of integration and verify",
		},
	},
	"differentiation": {
		Name: "Differentiation rules",
		KeySteps: []string{
			"Identify the function type",
			"Apply appropriate differentiation rules",
			"Simplify the final derivative",
		},
	},
	"algebra": {
		Name: "Algebraic manipulation and solving",
		KeySteps: []string{
			"Simplify and rearrange the equation",
			"Isolate the variable",
			"Solve for the unknown variable(s)",
			"Verify the solution",
		},
	},
	"geometry": {
		Name: "Geometric problem solving",
		KeySteps: []string{
			"Identify given information",
			"Apply relevant formulas",
			"Calculate the required value",
		},
	},
	"arithmetic": {
		Name: "Direct computation",
		KeySteps: []string{
			"Identify the operations involved",
			"Apply the order of operations",
			"Compute and simplify the result",
		},
	},
	"probability": {
		Name: "Counting and probability rules",
		KeySteps: []string{
			"Define the sample space and events",
			"Count favourable and total outcomes",
			"Apply addition, multiplication or conditional rules",
			"Simplify the probability",
		},
	},
	"statistics": {
		Name: "Statistical analysis",
		KeySteps: []string{
			"Organise the data",
			"Choose the relevant measure or test",
			"Compute the statistic",
			"Interpret the result",
		},
	},
	"limits": {
		Name: "Limit evaluation",
		KeySteps: []string{
			"Try direct substitution",
			"Resolve indeterminate forms by simplification or L'Hopital's rule",
			"Evaluate the limit",
		},
	},
	"matrices": {
		Name: "Matrix operations",
		KeySteps: []string{
			"Write the matrices and check dimensions",
			"Apply row operations or the required matrix operation",
			"Compute the determinant, inverse or product",
			"Verify the result",
		},
	},
	"sequences and series": {
		Name: "Sequence and series analysis",
		KeySteps: []string{
			"Identify the type of sequence or series",
			"Find the general term",
			"Apply the sum formula or convergence test",
			"Simplify the result",
		},
	},
}

// strategyAliases map common problem-type spellings onto table keys.
var strategyAliases = map[string]string{
	"equation":      "algebra",
	"equations":     "algebra",
	"quadratic":     "algebra",
	"trig":          "trigonometry",
	"trigonometric": "trigonometry",
	"integral":      "integration",
	"integrals":     "integration",
	"derivative":    "differentiation",
	"derivatives":   "differentiation",
	"limit":         "limits",
	"matrix":        "matrices",
	"sequence":      "sequences and series",
	"sequences":     "sequences and series",
	"series":        "sequences and series",
	"statistic":     "statistics",
}

// StrategyTable maps problem types to solving strategies. Lookup is total.
type StrategyTable struct {
	entries  map[string]model.Strategy
	fallback model.Strategy
	// keys sorted longest first so "sequences and series" wins over "series".
	keys []string
}

// DefaultStrategyTable returns the built-in table.
func DefaultStrategyTable() *StrategyTable {
	return newStrategyTable(builtinStrategies, defaultStrategy)
}

func newStrategyTable(entries map[string]model.Strategy, fallback model.Strategy) *StrategyTable {
	t := &StrategyTable{
		entries:  make(map[string]model.Strategy, len(entries)),
		fallback: fallback,
	}
	for k, v := range entries {
		t.entries[normalizeProblemType(k)] = v
	}
	for alias, target := range strategyAliases {
		if _, ok := t.entries[alias]; !ok {
			if s, ok := t.entries[target]; ok {
				t.entries[alias] = s
			}
		}
	}
	for k := range t.entries {
		t.keys = append(t.keys, k)
	}
	sort.Slice(t.keys, func(i, j int) bool {
		if len(t.keys[i]) != len(t.keys[j]) {
			return len(t.keys[i]) > len(t.keys[j])
		}
		return t.keys[i] < t.keys[j]
	})
	return t
}

// LoadStrategyTable merges the YAML file at path over the built-in table. An
// empty path returns the built-in table. The file maps problem types to
// {strategy, key_steps}; the "default" key replaces the fallback entry.
func LoadStrategyTable(path string) (*StrategyTable, error) {
	if path == "" {
		return DefaultStrategyTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "strategies: read %s", path)
	}

	var overrides map[string]model.Strategy
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, eris.Wrapf(err, "strategies: parse %s", path)
	}

	merged := make(map[string]model.Strategy, len(builtinStrategies)+len(overrides))
	for k, v := range builtinStrategies {
		merged[k] = v
	}
	fallback := defaultStrategy
	for k, v := range overrides {
		if strings.TrimSpace(v.Name) == "" || len(v.KeySteps) == 0 {
			return nil, eris.Errorf("strategies: entry %q needs a strategy name and at least one key step", k)
		}
		key := normalizeProblemType(k)
		if key == defaultStrategyKey {
			fallback = v
			continue
		}
		merged[key] = v
	}

	return newStrategyTable(merged, fallback), nil
}

// Lookup returns the strategy for problemType: an exact (normalised) match,
// else the longest table key contained in it as whole words, else the default.
func (t *StrategyTable) Lookup(problemType string) model.Strategy {
	pt := normalizeProblemType(problemType)
	if s, ok := t.entries[pt]; ok {
		return cloneStrategy(s)
	}
	padded := " " + pt + " "
	for _, k := range t.keys {
		if strings.Contains(padded, " "+k+" ") {
			return cloneStrategy(t.entries[k])
		}
	}
	return cloneStrategy(t.fallback)
}

// Len returns the number of problem types the table recognises.
func (t *StrategyTable) Len() int {
	return len(t.entries)
}

func cloneStrategy(s model.Strategy) model.Strategy {
	return model.Strategy{Name: s.Name, KeySteps: append([]string(nil), s.KeySteps...)}
}

// normalizeProblemType lowercases and collapses separators: "Linear_Algebra"
// and "linear  algebra" both become "linear algebra".
func normalizeProblemType(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(normalizeText(s))
	return strings.Join(strings.Fields(s), " ")
}
