package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Completion CompletionConfig `yaml:"completion" mapstructure:"completion"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// Completion providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
)

// DefaultBaseURL is the OpenRouter chat-completions endpoint. The anthropic
// provider ignores it and uses the SDK's own endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// CompletionConfig configures the LLM completion endpoint.
type CompletionConfig struct {
	Provider         string  `yaml:"provider" mapstructure:"provider"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey           string  `yaml:"api_key" mapstructure:"api_key"`
	Model            string  `yaml:"model" mapstructure:"model"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxTokens        int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature      float64 `yaml:"temperature" mapstructure:"temperature"`
	Referer          string  `yaml:"referer" mapstructure:"referer"`
	Title            string  `yaml:"title" mapstructure:"title"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// Timeout returns the per-request completion timeout.
func (c CompletionConfig) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Validate checks the settings required to reach the completion endpoint.
func (c CompletionConfig) Validate() error {
	switch c.Provider {
	case ProviderOpenRouter, ProviderOpenAI, ProviderAnthropic:
	default:
		return eris.Errorf("config: unknown completion provider %q", c.Provider)
	}
	if c.APIKey == "" {
		return eris.New("config: completion.api_key is required (set MATHMENTOR_COMPLETION_API_KEY or OPENROUTER_API_KEY)")
	}
	if c.Model == "" {
		return eris.New("config: completion.model is required")
	}
	return nil
}

// Parser and verifier modes.
const (
	ModeLLM       = "llm"
	ModeKeyword   = "keyword"
	ModeHeuristic = "heuristic"
)

// PipelineConfig configures the solving pipeline.
type PipelineConfig struct {
	Parser         string  `yaml:"parser" mapstructure:"parser"`
	Verifier       string  `yaml:"verifier" mapstructure:"verifier"`
	HITLThreshold  float64 `yaml:"hitl_threshold" mapstructure:"hitl_threshold"`
	StrategiesFile string  `yaml:"strategies_file" mapstructure:"strategies_file"`
	MaxTokens      int     `yaml:"-" mapstructure:"-"`
	Temperature    float64 `yaml:"-" mapstructure:"-"`
}

// Validate checks the parser and verifier modes.
func (c PipelineConfig) Validate() error {
	switch c.Parser {
	case ModeLLM, ModeKeyword:
	default:
		return eris.Errorf("config: unknown pipeline.parser %q (want %q or %q)", c.Parser, ModeLLM, ModeKeyword)
	}
	switch c.Verifier {
	case ModeLLM, ModeHeuristic:
	default:
		return eris.Errorf("config: unknown pipeline.verifier %q (want %q or %q)", c.Verifier, ModeLLM, ModeHeuristic)
	}
	if c.HITLThreshold < 0 || c.HITLThreshold > 1 {
		return eris.Errorf("config: pipeline.hitl_threshold %v must be within [0, 1]", c.HITLThreshold)
	}
	return nil
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins      []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MATHMENTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("completion.api_key", "MATHMENTOR_COMPLETION_API_KEY", "OPENROUTER_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind api key env")
	}

	// Defaults
	v.SetDefault("completion.provider", ProviderOpenRouter)
	v.SetDefault("completion.base_url", DefaultBaseURL)
	v.SetDefault("completion.model", "xiaomi/mimo-v2-flash:free")
	v.SetDefault("completion.timeout_secs", 120)
	v.SetDefault("completion.max_tokens", 4000)
	v.SetDefault("completion.temperature", 0.3)
	v.SetDefault("completion.referer", "http://localhost:3000")
	v.SetDefault("completion.title", "Math Mentor AI")
	v.SetDefault("completion.breaker_threshold", 5)
	v.SetDefault("completion.breaker_reset_secs", 30)
	v.SetDefault("pipeline.parser", ModeLLM)
	v.SetDefault("pipeline.verifier", ModeLLM)
	v.SetDefault("pipeline.hitl_threshold", 0.75)
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Stage requests share the endpoint-wide sampling settings.
	cfg.Pipeline.MaxTokens = cfg.Completion.MaxTokens
	cfg.Pipeline.Temperature = cfg.Completion.Temperature

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
