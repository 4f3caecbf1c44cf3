package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store           StoreConfig           `yaml:"store" mapstructure:"store"`
	Anthropic       AnthropicConfig       `yaml:"anthropic" mapstructure:"anthropic"`
	Jina            JinaConfig            `yaml:"jina" mapstructure:"jina"`
	Firecrawl       FirecrawlConfig       `yaml:"firecrawl" mapstructure:"firecrawl"`
	Icypeas         IcypeasConfig         `yaml:"icypeas" mapstructure:"icypeas"`
	MillionVerifier MillionVerifierConfig `yaml:"millionverifier" mapstructure:"millionverifier"`
	Scrape          ScrapeConfig          `yaml:"scrape" mapstructure:"scrape"`
	Enrichment      EnrichmentConfig      `yaml:"enrichment" mapstructure:"enrichment"`
	Cleanup         CleanupConfig         `yaml:"cleanup" mapstructure:"cleanup"`
	Server          ServerConfig          `yaml:"server" mapstructure:"server"`
	Log             LogConfig             `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the list store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig configures the contact inference model.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// JinaConfig configures the Jina Reader fallback extractor.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FirecrawlConfig configures the last-resort rendering extractor.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// IcypeasConfig configures email discovery.
type IcypeasConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	Secret    string  `yaml:"secret" mapstructure:"secret"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// MillionVerifierConfig configures email verification.
type MillionVerifierConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ScrapeConfig configures website text extraction.
type ScrapeConfig struct {
	TimeoutSecs   int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxSubPages   int      `yaml:"max_sub_pages" mapstructure:"max_sub_pages"`
	MaxTextLength int      `yaml:"max_text_length" mapstructure:"max_text_length"`
	UserAgent     string   `yaml:"user_agent" mapstructure:"user_agent"`
	ExcludePaths  []string `yaml:"exclude_paths" mapstructure:"exclude_paths"`
}

// EnrichmentConfig configures the enrichment pipeline.
type EnrichmentConfig struct {
	DelayMS int `yaml:"delay_ms" mapstructure:"delay_ms"`
}

// CleanupConfig configures the cleanup pass.
type CleanupConfig struct {
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config.yaml and DATAFORGE_* environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DATAFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets have no real default but must be known keys for env
	// overrides to reach Unmarshal.
	for _, key := range []string{
		"store.database_url",
		"anthropic.key",
		"jina.key",
		"firecrawl.key",
		"icypeas.key",
		"icypeas.secret",
		"millionverifier.key",
	} {
		v.SetDefault(key, "")
	}

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "dataforge.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 300)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("icypeas.base_url", "https://app.icypeas.com/api")
	v.SetDefault("icypeas.rate_limit", 5.0)
	v.SetDefault("millionverifier.base_url", "https://api.millionverifier.com/api/v3")
	v.SetDefault("millionverifier.rate_limit", 10.0)
	v.SetDefault("scrape.timeout_secs", 15)
	v.SetDefault("scrape.max_sub_pages", 3)
	v.SetDefault("scrape.max_text_length", 8000)
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (compatible; dataforge/1.0)")
	v.SetDefault("enrichment.delay_ms", 200)
	v.SetDefault("cleanup.batch_size", 500)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode needs. Missing enrichment
// credentials are not errors: the pipeline degrades per phase.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}

	switch mode {
	case "cli":
	case "enrichment":
		if c.Enrichment.DelayMS < 0 {
			errs = append(errs, "enrichment.delay_ms must be >= 0")
		}
		if c.Icypeas.RateLimit < 0 || c.MillionVerifier.RateLimit < 0 {
			errs = append(errs, "rate_limit values must be >= 0")
		}
	case "cleanup":
		if c.Cleanup.BatchSize <= 0 {
			errs = append(errs, "cleanup.batch_size must be > 0")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(errs, "; "))
	}
	return nil
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
