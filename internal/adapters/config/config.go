package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	News      NewsConfig      `envconfig:"NEWS"`
	AI        AIConfig        `envconfig:"AI"`
	Quote     QuoteConfig     `envconfig:"QUOTE"`
	Feed      FeedConfig      `envconfig:"FEED"`
	Watchlist WatchlistConfig `envconfig:"WATCHLIST"`
	Redis     RedisConfig     `envconfig:"REDIS"`
	HTTP      HTTPConfig      `envconfig:"HTTP"`
	Health    HealthConfig    `envconfig:"HEALTH"`
	Logging   LoggingConfig   `envconfig:"LOGGING"`
}

// NewsConfig represents article source configuration
type NewsConfig struct {
	NewsAPIKey        string        `envconfig:"NEWSAPI_KEY" required:"false"`
	NewsAPIBaseURL    string        `envconfig:"NEWSAPI_BASE_URL" default:"https://newsapi.org"`
	GoogleNewsEnabled bool          `envconfig:"GOOGLE_NEWS_ENABLED" default:"true"`
	GoogleNewsBaseURL string        `envconfig:"GOOGLE_NEWS_BASE_URL" default:"https://news.google.com"`
	Timeout           time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

// AIConfig represents the text-analysis provider configuration
type AIConfig struct {
	Provider      string           `envconfig:"PROVIDER" default:"openai"`
	OpenAI        AIProviderConfig `envconfig:"OPENAI"`
	DeepSeek      AIProviderConfig `envconfig:"DEEPSEEK"`
	CallTimeout   time.Duration    `envconfig:"CALL_TIMEOUT" default:"20s"`
	RatePerMinute int              `envconfig:"RATE_PER_MINUTE" default:"120"`
	Burst         int              `envconfig:"BURST" default:"6"`
	PromptsDir    string           `envconfig:"PROMPTS_DIR" required:"false"`

	// BreakerFailures of 0 disables the breaker
	BreakerFailures int           `envconfig:"BREAKER_FAILURES" default:"5"`
	BreakerCooldown time.Duration `envconfig:"BREAKER_COOLDOWN" default:"1m"`
}

// AIProviderConfig represents single AI provider configuration
type AIProviderConfig struct {
	APIKey  string `envconfig:"API_KEY" required:"false"`
	Enabled bool   `envconfig:"ENABLED" default:"true"`
	Model   string `envconfig:"MODEL" required:"false"`
	BaseURL string `envconfig:"BASE_URL" required:"false"`
}

// QuoteConfig represents stock quote source configuration
type QuoteConfig struct {
	Enabled  bool          `envconfig:"ENABLED" default:"true"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	BaseURL  string        `envconfig:"BASE_URL" default:"https://query1.finance.yahoo.com"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"10s"`

	// WarmInterval refreshes watchlist quotes in the background; 0 disables
	WarmInterval time.Duration `envconfig:"WARM_INTERVAL" default:"0"`
}

// FeedConfig represents enrichment pipeline tuning
type FeedConfig struct {
	Concurrency int `envconfig:"CONCURRENCY" default:"4"`
}

// WatchlistConfig represents the initial watchlist
type WatchlistConfig struct {
	Companies []string `envconfig:"COMPANIES" required:"false"`
}

// RedisConfig represents the optional shared cache
type RedisConfig struct {
	Enabled  bool   `envconfig:"ENABLED" default:"false"`
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     int    `envconfig:"PORT" default:"6379"`
	Password string `envconfig:"PASSWORD" required:"false"`
	DB       int    `envconfig:"DB" default:"0"`
}

// HTTPConfig represents API server configuration
type HTTPConfig struct {
	Addr           string        `envconfig:"ADDR" default:":5000"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"90s"`
	StreamInterval time.Duration `envconfig:"STREAM_INTERVAL" default:"5m"`
}

// HealthConfig represents health check server configuration
type HealthConfig struct {
	Port string `envconfig:"PORT" default:"8081"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LEVEL" default:"info"`
	File  string `envconfig:"FILE" required:"false"`
}

// Load reads configuration from an optional .env file and the environment
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	cfg.applyKeyFallbacks()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// keyFallbacks are the bare key names older .env files use. NEWSAPI_KEY needs
// no entry: envconfig already falls back to the unprefixed tag name.
var keyFallbacks = []struct {
	env   string
	field func(*Config) *string
}{
	{"OPENAI_API_KEY", func(c *Config) *string { return &c.AI.OpenAI.APIKey }},
	{"DEEPSEEK_API_KEY", func(c *Config) *string { return &c.AI.DeepSeek.APIKey }},
}

func (c *Config) applyKeyFallbacks() {
	for _, fb := range keyFallbacks {
		if field := fb.field(c); *field == "" {
			*field = os.Getenv(fb.env)
		}
	}
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.News.NewsAPIKey == "" && !c.News.GoogleNewsEnabled {
		return fmt.Errorf("at least one news source must be configured")
	}

	switch c.AI.Provider {
	case "openai", "deepseek":
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}
	if c.AI.CallTimeout <= 0 {
		return fmt.Errorf("ai call timeout must be positive")
	}
	if c.AI.RatePerMinute < 1 {
		return fmt.Errorf("ai rate per minute must be at least 1")
	}
	if c.AI.Burst < 1 {
		return fmt.Errorf("ai burst must be at least 1")
	}

	if c.AI.BreakerFailures < 0 {
		return fmt.Errorf("ai breaker failures must not be negative")
	}

	if c.Quote.CacheTTL <= 0 {
		return fmt.Errorf("quote cache ttl must be positive")
	}
	if c.Quote.WarmInterval < 0 {
		return fmt.Errorf("quote warm interval must not be negative")
	}

	if c.Feed.Concurrency < 1 {
		return fmt.Errorf("feed concurrency must be at least 1")
	}

	if c.HTTP.StreamInterval < time.Second {
		return fmt.Errorf("stream interval must be at least 1s")
	}

	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("redis host is required when redis is enabled")
	}

	return nil
}

// Addr returns redis host:port
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsConfigured reports whether the provider can be used
func (c AIProviderConfig) IsConfigured() bool {
	return c.Enabled && c.APIKey != ""
}
