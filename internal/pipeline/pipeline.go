// Package pipeline turns a math question into a step-by-step solution by
// running the parser, router, solver, verifier and explainer stages in order.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/math-mentor/internal/config"
	"github.com/sells-group/math-mentor/internal/model"
	"github.com/sells-group/math-mentor/pkg/completion"
)

// Stage names as they appear in agentTrace.
const (
	StageParser    = "parser"
	StageRouter    = "router"
	StageSolver    = "solver"
	StageVerifier  = "verifier"
	StageExplainer = "explainer"
)

// Pipeline solves questions. It holds no per-request state and is safe for
// concurrent use.
type Pipeline struct {
	cfg        config.PipelineConfig
	llm        completion.Completer
	strategies *StrategyTable
	now        func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStrategies replaces the built-in strategy table.
func WithStrategies(t *StrategyTable) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.strategies = t
		}
	}
}

// WithClock overrides the clock used for trace timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a Pipeline that sends completion requests through llm.
func New(cfg config.PipelineConfig, llm completion.Completer, opts ...Option) *Pipeline {
	if cfg.HITLThreshold <= 0 {
		cfg.HITLThreshold = model.DefaultHITLThreshold
	}
	p := &Pipeline{
		cfg:        cfg,
		llm:        llm,
		strategies: DefaultStrategyTable(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Solve answers q. Casual messages get a canned reply without running the
// stages. Upstream failures degrade the answer instead of failing it; an
// error is returned only when ctx is done between stages or on an unexpected
// fault.
func (p *Pipeline) Solve(ctx context.Context, q model.Question) (resp *model.SolutionResponse, err error) {
	requestID := uuid.NewString()
	log := zap.L().With(zap.String("request_id", requestID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline: unexpected fault", zap.Any("panic", r), zap.Stack("stack"))
			resp = nil
			err = eris.Errorf("pipeline: unexpected fault: %v", r)
		}
	}()

	log.Info("pipeline: received question",
		zap.String("question", truncateRunes(q.Text, 100)),
		zap.String("input_mode", q.InputMode),
		zap.Float64("input_confidence", q.Confidence),
	)

	c := Classify(q.Text)
	if !c.IsMath {
		log.Info("pipeline: handling casual query", zap.String("signal", string(c.Signal)))
		return CasualResponse(q.Text, p.now()), nil
	}
	log.Debug("pipeline: classified as math", zap.String("signal", string(c.Signal)))

	var trace []model.AgentTraceEntry

	// Stage tracking helper: aborts when ctx is done, otherwise runs fn and
	// records its summary.
	trackStage := func(name string, fn func() string) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Warn("pipeline: aborted before stage", zap.String("stage", name), zap.Error(ctxErr))
			return eris.Wrapf(ctxErr, "pipeline: %s", name)
		}

		start := time.Now()
		summary := fn()
		duration := time.Since(start).Milliseconds()

		trace = append(trace, model.AgentTraceEntry{
			Name:      name,
			Result:    summary,
			Timestamp: formatTimestamp(p.now()),
		})
		log.Info("pipeline: stage complete",
			zap.String("stage", name),
			zap.String("result", summary),
			zap.Int64("duration_ms", duration),
		)
		return nil
	}

	var (
		parsed   model.ParsedProblem
		strategy model.Strategy
		solution model.Solution
		verified model.VerificationResult
	)

	if err := trackStage(StageParser, func() string {
		parsed = ParseQuestion(ctx, p.llm, p.cfg, q.Text)
		return "Identified as: " + parsed.ProblemType
	}); err != nil {
		return nil, err
	}

	if err := trackStage(StageRouter, func() string {
		strategy = RouteStrategy(parsed, p.strategies)
		return "Strategy selected: " + strategy.Name
	}); err != nil {
		return nil, err
	}

	if err := trackStage(StageSolver, func() string {
		var path SolvePath
		solution, path = SolveProblem(ctx, p.llm, p.cfg, q.Text, parsed, strategy)
		log.Info("pipeline: solver finished",
			zap.String("problem_type", parsed.ProblemType),
			zap.String("path", string(path)),
			zap.Int("steps", len(solution.Steps)),
		)
		if path == SolvePathPlaceholder {
			return "Generated basic solution structure"
		}
		return fmt.Sprintf("Generated detailed solution with %d steps", len(solution.Steps))
	}); err != nil {
		return nil, err
	}

	if err := trackStage(StageVerifier, func() string {
		var summary string
		verified, summary = VerifySolution(ctx, p.llm, p.cfg, q.Text, solution)
		log.Info("pipeline: verification finished",
			zap.Bool("is_correct", verified.IsCorrect),
			zap.Float64("confidence", verified.Confidence),
		)
		return summary
	}); err != nil {
		return nil, err
	}

	if err := trackStage(StageExplainer, func() string {
		_, summary := Explain(solution)
		return summary
	}); err != nil {
		return nil, err
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, eris.Wrap(ctxErr, "pipeline: assemble")
	}

	resp = Assemble(q, solution, verified, trace, p.cfg.HITLThreshold)
	log.Info("pipeline: response assembled",
		zap.Int("steps", len(resp.Steps)),
		zap.Float64("confidence", resp.FinalAnswer.Confidence),
		zap.String("status", resp.Verification.Status),
		zap.Bool("hitl_applied", resp.HITLApplied),
	)
	return resp, nil
}
