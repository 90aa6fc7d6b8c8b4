package pipeline

import (
	"fmt"

	"github.com/sells-group/math-mentor/internal/model"
)

// Explain records the explanation stage. The Solution's steps already carry
// the explanation, so it is returned unchanged alongside a static summary.
func Explain(sol model.Solution) (model.Explanation, string) {
	return model.Explanation{Text: "Detailed solution provided with step-by-step breakdown"},
		fmt.Sprintf("Generated explanation with %d steps", len(sol.Steps))
}
