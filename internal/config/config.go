package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/clinic-phone/internal/model"
	"github.com/sells-group/clinic-phone/internal/sink"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Sink       SinkConfig       `yaml:"sink" mapstructure:"sink"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// PipelineConfig configures the lookup pipeline.
type PipelineConfig struct {
	Engine             string `yaml:"engine" mapstructure:"engine"`
	MaxPages           int    `yaml:"max_pages" mapstructure:"max_pages"`
	RequestTimeoutSecs int    `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	LLMExtraction      bool   `yaml:"llm_extraction" mapstructure:"llm_extraction"`
	DirectKnowledge    bool   `yaml:"direct_knowledge" mapstructure:"direct_knowledge"`
}

// RequestTimeout returns the per-lookup deadline.
func (p PipelineConfig) RequestTimeout() time.Duration {
	return time.Duration(p.RequestTimeoutSecs) * time.Second
}

// ScrapeConfig configures page fetching.
type ScrapeConfig struct {
	FetchTimeoutSecs int      `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	UserAgent        string   `yaml:"user_agent" mapstructure:"user_agent"`
	JinaFallback     bool     `yaml:"jina_fallback" mapstructure:"jina_fallback"`
	ExcludePatterns  []string `yaml:"exclude_patterns" mapstructure:"exclude_patterns"`
}

// FetchTimeout returns the per-page fetch deadline.
func (s ScrapeConfig) FetchTimeout() time.Duration {
	return time.Duration(s.FetchTimeoutSecs) * time.Second
}

// SearchConfig configures the web search provider.
type SearchConfig struct {
	Provider   string  `yaml:"provider" mapstructure:"provider"`
	Region     string  `yaml:"region" mapstructure:"region"`
	SafeSearch string  `yaml:"safe_search" mapstructure:"safe_search"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// LLMConfig selects the completion provider.
type LLMConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
	Country string `yaml:"country" mapstructure:"country"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// SinkConfig configures result persistence.
type SinkConfig struct {
	Drivers     []string        `yaml:"drivers" mapstructure:"drivers"`
	XLSXPath    string          `yaml:"xlsx_path" mapstructure:"xlsx_path"`
	SQLitePath  string          `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string          `yaml:"database_url" mapstructure:"database_url"`
	Pool        sink.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CLINIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bare provider variables are honoured as well as the prefixed ones.
	for key, env := range map[string]string{
		"openai.api_key":     "OPENAI_API_KEY",
		"anthropic.key":      "ANTHROPIC_API_KEY",
		"perplexity.key":     "PERPLEXITY_API_KEY",
		"jina.key":           "JINA_API_KEY",
		"pipeline.max_pages": "MAX_DEEP_SEARCH",
		"pipeline.engine":    "ENGINE",
	} {
		prefixed := "CLINIC_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("pipeline.engine", string(model.EngineLocal))
	v.SetDefault("pipeline.max_pages", 3)
	v.SetDefault("pipeline.request_timeout_secs", 60)
	v.SetDefault("pipeline.llm_extraction", true)
	v.SetDefault("pipeline.direct_knowledge", true)
	v.SetDefault("scrape.fetch_timeout_secs", 5)
	v.SetDefault("scrape.user_agent", defaultUserAgent)
	v.SetDefault("scrape.jina_fallback", false)
	v.SetDefault("search.provider", "duckduckgo")
	v.SetDefault("search.region", "it-it")
	v.SetDefault("search.safe_search", "off")
	v.SetDefault("search.rate_per_sec", 1.0)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.timeout_secs", 20)
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("perplexity.country", "IT")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("sink.drivers", []string{sink.DriverXLSX})
	v.SetDefault("sink.xlsx_path", "/data/results.xlsx")
	v.SetDefault("sink.sqlite_path", "results.db")
	v.SetDefault("batch.concurrency", 2)

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

// Validate checks the settings the given command depends on. Known modes
// are "search", "batch", "serve" and "results".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "search", "batch", "serve":
		errs = append(errs, c.validatePipeline()...)
		if mode == "serve" && c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if mode == "batch" && (c.Batch.Concurrency < 1 || c.Batch.Concurrency > 20) {
			errs = append(errs, "batch.concurrency must be between 1 and 20")
		}
	case "results":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
	errs = append(errs, c.validateSink()...)

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validatePipeline() []string {
	var errs []string
	if _, ok := model.ParseEngine(c.Pipeline.Engine); !ok {
		errs = append(errs, "pipeline.engine must be local or deepsearch")
	}
	if c.Pipeline.MaxPages < 1 {
		errs = append(errs, "pipeline.max_pages must be > 0")
	}
	if c.Pipeline.RequestTimeoutSecs < 1 {
		errs = append(errs, "pipeline.request_timeout_secs must be > 0")
	}
	if c.Scrape.FetchTimeoutSecs < 1 {
		errs = append(errs, "scrape.fetch_timeout_secs must be > 0")
	}
	switch c.Search.Provider {
	case "duckduckgo", "jina":
	default:
		errs = append(errs, "search.provider must be duckduckgo or jina")
	}
	switch c.Search.SafeSearch {
	case "off", "moderate", "on":
	default:
		errs = append(errs, "search.safe_search must be off, moderate or on")
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		errs = append(errs, "llm.provider must be openai or anthropic")
	}
	return errs
}

func (c *Config) validateSink() []string {
	var errs []string
	for _, d := range c.Sink.Drivers {
		if !sink.ValidDriver(d) {
			errs = append(errs, "unknown sink driver "+d)
			continue
		}
		if d == sink.DriverPostgres && c.Sink.DatabaseURL == "" {
			errs = append(errs, "sink.database_url is required for the postgres driver")
		}
	}
	return errs
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
