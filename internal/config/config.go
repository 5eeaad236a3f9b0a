package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Zillow       ZillowConfig       `yaml:"zillow" mapstructure:"zillow"`
	Jina         JinaConfig         `yaml:"jina" mapstructure:"jina"`
	Anthropic    AnthropicConfig    `yaml:"anthropic" mapstructure:"anthropic"`
	Valuation    ValuationConfig    `yaml:"valuation" mapstructure:"valuation"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator" mapstructure:"orchestrator"`
	Batch        BatchConfig        `yaml:"batch" mapstructure:"batch"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ZillowConfig holds the comps provider settings.
type ZillowConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// JinaConfig holds the web-search provider settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// AnthropicConfig holds narrative capability settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ValuationConfig selects and tunes the numeric model.
type ValuationConfig struct {
	// Method is "avg_price_per_sqft" (default) or "median_price".
	Method string `yaml:"method" mapstructure:"method"`
	// Markup scales the avg-ppsf estimate. Clamped to [1.0, 1.25];
	// 1.0 means the estimate is exactly avg_ppsf * assumed_living_area.
	Markup float64 `yaml:"markup" mapstructure:"markup"`
}

// OrchestratorConfig bounds the external-capability calls.
type OrchestratorConfig struct {
	FetchTimeoutSecs     int `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	NarrativeTimeoutSecs int `yaml:"narrative_timeout_secs" mapstructure:"narrative_timeout_secs"`
	FetchRetries         int `yaml:"fetch_retries" mapstructure:"fetch_retries"`
}

// BatchConfig configures parallel batch appraisals.
type BatchConfig struct {
	MaxConcurrentRuns int `yaml:"max_concurrent_runs" mapstructure:"max_concurrent_runs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("KOMPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "komps.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("zillow.key", "")
	v.SetDefault("jina.key", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("zillow.base_url", "https://zillow-com1.p.rapidapi.com")
	v.SetDefault("zillow.rate_limit", 2.0)
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("valuation.method", "avg_price_per_sqft")
	v.SetDefault("valuation.markup", 1.0)
	v.SetDefault("orchestrator.fetch_timeout_secs", 30)
	v.SetDefault("orchestrator.narrative_timeout_secs", 60)
	v.SetDefault("orchestrator.fetch_retries", 0)
	v.SetDefault("batch.max_concurrent_runs", 4)

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
