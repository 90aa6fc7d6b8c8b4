package pipeline

import (
	"github.com/sells-group/math-mentor/internal/model"
)

// RouteStrategy picks the solving strategy for a parsed problem. It makes no
// completion request and never fails.
func RouteStrategy(parsed model.ParsedProblem, table *StrategyTable) model.Strategy {
	if table == nil {
		table = DefaultStrategyTable()
	}
	return table.Lookup(parsed.ProblemType)
}
