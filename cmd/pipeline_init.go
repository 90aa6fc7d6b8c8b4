package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/math-mentor/internal/config"
	"github.com/sells-group/math-mentor/internal/pipeline"
	"github.com/sells-group/math-mentor/internal/resilience"
	"github.com/sells-group/math-mentor/pkg/completion"
)

// initCompleter builds the completion client for the configured provider,
// wrapped in a circuit breaker unless breaker_threshold is 0.
func initCompleter(c config.CompletionConfig) (completion.Completer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var llm completion.Completer
	switch c.Provider {
	case config.ProviderAnthropic:
		opts := []completion.AnthropicOption{completion.WithAnthropicTimeout(c.Timeout())}
		if c.BaseURL != "" && c.BaseURL != config.DefaultBaseURL {
			opts = append(opts, completion.WithAnthropicBaseURL(c.BaseURL))
		}
		llm = completion.NewAnthropicClient(c.APIKey, c.Model, opts...)
	default:
		llm = completion.NewClient(c.APIKey,
			completion.WithBaseURL(c.BaseURL),
			completion.WithModel(c.Model),
			completion.WithTimeout(c.Timeout()),
			completion.WithHeader("HTTP-Referer", c.Referer),
			completion.WithHeader("X-Title", c.Title),
		)
	}

	if c.BreakerThreshold > 0 {
		bc := resilience.BreakerConfigFromSettings(c.BreakerThreshold, c.BreakerResetSecs)
		bc.OnStateChange = resilience.StateLogger("completion:" + c.Provider)
		llm = completion.WithCircuitBreaker(llm, resilience.NewCircuitBreaker(bc))
	}

	zap.L().Info("completion client ready",
		zap.String("provider", c.Provider),
		zap.String("model", c.Model),
		zap.Duration("timeout", c.Timeout()),
		zap.Int("breaker_threshold", c.BreakerThreshold),
	)
	return llm, nil
}

// initPipeline builds the pipeline from the loaded config.
func initPipeline(c *config.Config) (*pipeline.Pipeline, error) {
	if err := c.Pipeline.Validate(); err != nil {
		return nil, err
	}

	llm, err := initCompleter(c.Completion)
	if err != nil {
		return nil, err
	}

	strategies := pipeline.DefaultStrategyTable()
	if c.Pipeline.StrategiesFile != "" {
		strategies, err = pipeline.LoadStrategyTable(c.Pipeline.StrategiesFile)
		if err != nil {
			return nil, eris.Wrap(err, "init pipeline")
		}
		zap.L().Info("loaded strategy table",
			zap.String("file", c.Pipeline.StrategiesFile),
			zap.Int("entries", strategies.Len()),
		)
	}

	return pipeline.New(c.Pipeline, llm, pipeline.WithStrategies(strategies)), nil
}
