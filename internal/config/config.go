// Package config loads listing-scraper settings from config.yaml and
// LISTING_* environment variables, and bootstraps the global logger.
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
	Directory DirectoryConfig `yaml:"directory" mapstructure:"directory"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Enhance   EnhanceConfig   `yaml:"enhance" mapstructure:"enhance"`
	Crawl     CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	Jina      JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DirectoryConfig describes the business directory being searched.
type DirectoryConfig struct {
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	PageSize  int           `yaml:"page_size" mapstructure:"page_size"`
}

// FetchConfig is the results page retry policy.
type FetchConfig struct {
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries"`
	InitialWait    time.Duration `yaml:"initial_wait" mapstructure:"initial_wait"`
	Multiplier     float64       `yaml:"multiplier" mapstructure:"multiplier"`
	MaxWait        time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
	JitterFraction float64       `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// EnrichConfig configures website scraping for contact details.
type EnrichConfig struct {
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent        string        `yaml:"user_agent" mapstructure:"user_agent"`
	CrawlMaxPages    int           `yaml:"crawl_max_pages" mapstructure:"crawl_max_pages"`
	CrawlConcurrency int           `yaml:"crawl_concurrency" mapstructure:"crawl_concurrency"`
	ExcludePaths     []string      `yaml:"exclude_paths" mapstructure:"exclude_paths"`
}

// EnhanceConfig configures the table reprocessing run.
type EnhanceConfig struct {
	Workers      int           `yaml:"workers" mapstructure:"workers"`
	ProbeTimeout time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
	RateLimitRPS float64       `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// CrawlConfig configures the directory crawl.
type CrawlConfig struct {
	BatchSize int  `yaml:"batch_size" mapstructure:"batch_size"`
	Enrich    bool `yaml:"enrich" mapstructure:"enrich"`
}

// JinaConfig holds Jina AI Reader settings. The reader is used as a scrape
// fallback only when a key is set.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
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
	v.SetEnvPrefix("LISTING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("directory.base_url", "https://www.yellowpages.com")
	v.SetDefault("directory.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/64.0.3282.140 Safari/537.36")
	v.SetDefault("directory.timeout", 10*time.Second)
	v.SetDefault("directory.page_size", 30)
	v.SetDefault("fetch.max_retries", 5)
	v.SetDefault("fetch.initial_wait", time.Second)
	v.SetDefault("fetch.multiplier", 2.0)
	v.SetDefault("fetch.max_wait", 60*time.Second)
	v.SetDefault("fetch.jitter_fraction", 0.0)
	v.SetDefault("fetch.rate_limit_rps", 0.0)
	v.SetDefault("enrich.timeout", 15*time.Second)
	v.SetDefault("enrich.user_agent", "Mozilla/5.0 (compatible; ListingScraper/1.0)")
	v.SetDefault("enrich.crawl_max_pages", 5)
	v.SetDefault("enrich.crawl_concurrency", 3)
	v.SetDefault("enrich.exclude_paths", []string{"/blog/*", "/news/*", "/press/*", "/shop/*", "/cart/*", "/wp-content/*", "*.pdf", "*.jpg", "*.png", "*.zip"})
	v.SetDefault("enhance.workers", 16)
	v.SetDefault("enhance.probe_timeout", 5*time.Second)
	v.SetDefault("enhance.rate_limit_rps", 0.0)
	v.SetDefault("crawl.batch_size", 30)
	v.SetDefault("crawl.enrich", true)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
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

	return &cfg, nil
}

// Validate checks the settings a command depends on. mode is "crawl" or
// "enhance"; "run" checks both.
func (c *Config) Validate(mode string) error {
	var errs []string

	crawl := func() {
		if c.Directory.BaseURL == "" {
			errs = append(errs, "directory.base_url is required")
		}
		if c.Directory.PageSize <= 0 {
			errs = append(errs, "directory.page_size must be > 0")
		}
		if c.Fetch.MaxRetries < 1 {
			errs = append(errs, "fetch.max_retries must be >= 1")
		}
		if c.Fetch.Multiplier < 1 {
			errs = append(errs, "fetch.multiplier must be >= 1")
		}
		if c.Fetch.JitterFraction < 0 || c.Fetch.JitterFraction > 1 {
			errs = append(errs, "fetch.jitter_fraction must be between 0 and 1")
		}
		if c.Crawl.BatchSize <= 0 {
			errs = append(errs, "crawl.batch_size must be > 0")
		}
	}
	enhance := func() {
		if c.Enhance.Workers < 1 || c.Enhance.Workers > 256 {
			errs = append(errs, "enhance.workers must be between 1 and 256")
		}
	}

	switch mode {
	case "crawl":
		crawl()
	case "enhance":
		enhance()
	case "run":
		crawl()
		enhance()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Enrich.CrawlMaxPages < 1 {
		errs = append(errs, "enrich.crawl_max_pages must be >= 1")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
