// Package config loads process configuration from an optional YAML file,
// a .env file and TOKEN2049_* environment variables, in increasing order
// of precedence.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/derek2403/token2049/chain"
	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/gateway"
	"github.com/derek2403/token2049/relay"
)

// EnvPrefix prefixes every environment override, e.g. TOKEN2049_AI_MODEL.
const EnvPrefix = "TOKEN2049"

// Config is the full process configuration.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Server     ServerConfig     `mapstructure:"server"`
	AI         AIConfig         `mapstructure:"ai"`
	Chain      ChainConfig      `mapstructure:"chain"`
	Store      StoreConfig      `mapstructure:"store"`
	Conversion ConversionConfig `mapstructure:"conversion"`
	Memory     MemoryConfig     `mapstructure:"memory"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`

	// ContactsFile is a JSON or YAML list of {name, phone, wallet}.
	ContactsFile string `mapstructure:"contacts_file"`

	// ConfirmationTTL bounds how long a prepared action can be confirmed.
	ConfirmationTTL time.Duration `mapstructure:"confirmation_ttl"`

	// PollInterval is the notification watcher's poll period.
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// AIConfig selects the completion provider.
type AIConfig struct {
	// Provider is "openai" for any OpenAI-compatible endpoint or "anthropic".
	Provider      string  `mapstructure:"provider"`
	BaseURL       string  `mapstructure:"base_url"`
	APIKey        string  `mapstructure:"api_key"`
	Model         string  `mapstructure:"model"`
	Temperature   float32 `mapstructure:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens"`
	HistoryWindow int     `mapstructure:"history_window"`
}

type ChainConfig struct {
	ChainID int64    `mapstructure:"chain_id"`
	RPCURLs []string `mapstructure:"rpc_urls"`

	// PrivateKey enables server-side signing for the matching wallet.
	PrivateKey      string        `mapstructure:"private_key"`
	StakingContract string        `mapstructure:"staking_contract"`
	ReceiptTimeout  time.Duration `mapstructure:"receipt_timeout"`
}

// StoreConfig selects where notifications live.
type StoreConfig struct {
	// Driver is "memory", "sqlite", "postgres", "mysql" or "http".
	Driver string `mapstructure:"driver"`

	// DSN is the database source, or the base URL for the http driver.
	DSN string `mapstructure:"dsn"`
}

// ConversionConfig selects how $amounts become token amounts.
type ConversionConfig struct {
	// Policy is "fixed" (1 USD = 1 cUSD) or "live" (CELO at market price).
	Policy        string        `mapstructure:"policy"`
	PriceURL      string        `mapstructure:"price_url"`
	FallbackPrice string        `mapstructure:"fallback_price"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

type MemoryConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Dir persists memories on disk; empty keeps them in process.
	Dir string `mapstructure:"dir"`

	// Embedder is "hashing" (local) or "openai" (remote embeddings API).
	Embedder       string  `mapstructure:"embedder"`
	EmbeddingURL   string  `mapstructure:"embedding_url"`
	EmbeddingKey   string  `mapstructure:"embedding_key"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	MinSimilarity  float32 `mapstructure:"min_similarity"`
}

type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("server.addr", ":8080")

	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.base_url", gateway.DefaultOpenAIBaseURL)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", gateway.DefaultOpenAIModel)
	v.SetDefault("ai.temperature", gateway.DefaultTemperature)
	v.SetDefault("ai.max_tokens", gateway.DefaultMaxTokens)
	v.SetDefault("ai.history_window", gateway.DefaultHistoryWindow)

	v.SetDefault("chain.chain_id", core.ChainCeloMainnet)
	v.SetDefault("chain.rpc_urls", []string{chain.MainnetRPC})
	v.SetDefault("chain.private_key", "")
	v.SetDefault("chain.staking_contract", chain.DefaultStakingContract)
	v.SetDefault("chain.receipt_timeout", 2*time.Minute)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "token2049.db")

	v.SetDefault("conversion.policy", "fixed")
	v.SetDefault("conversion.price_url", "")
	v.SetDefault("conversion.fallback_price", "0.50")
	v.SetDefault("conversion.cache_ttl", time.Minute)

	v.SetDefault("memory.enabled", true)
	v.SetDefault("memory.dir", "")
	v.SetDefault("memory.embedder", "hashing")
	v.SetDefault("memory.embedding_url", "")
	v.SetDefault("memory.embedding_key", "")
	v.SetDefault("memory.embedding_model", "")
	v.SetDefault("memory.min_similarity", 0.3)

	v.SetDefault("rate_limit.per_minute", 20)
	v.SetDefault("rate_limit.burst", 5)

	v.SetDefault("contacts_file", "")
	v.SetDefault("confirmation_ttl", 10*time.Minute)
	v.SetDefault("poll_interval", relay.DefaultPollInterval)
}

// Load reads configuration. path may be empty, in which case only
// defaults, .env and the environment apply.
func Load(path string) (*Config, error) {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.applyFallbacks()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyFallbacks accepts the provider's conventional key variables.
func (c *Config) applyFallbacks() {
	if c.AI.APIKey != "" {
		return
	}
	switch c.AI.Provider {
	case "anthropic":
		c.AI.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	default:
		c.AI.APIKey = os.Getenv("REDPILL_API_KEY")
	}
}

// Validate rejects unknown provider, driver and policy names.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case "openai", "anthropic":
	default:
		return errors.Wrapf(core.ErrValidation, "unknown ai provider %q", c.AI.Provider)
	}
	switch c.Store.Driver {
	case "memory", "sqlite", "postgres", "mysql", "http":
	default:
		return errors.Wrapf(core.ErrValidation, "unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver != "memory" && c.Store.DSN == "" {
		return errors.Wrapf(core.ErrValidation, "store.dsn is required for the %s driver", c.Store.Driver)
	}
	switch c.Conversion.Policy {
	case "fixed", "live":
	default:
		return errors.Wrapf(core.ErrValidation, "unknown conversion policy %q", c.Conversion.Policy)
	}
	switch c.Memory.Embedder {
	case "hashing", "openai":
	default:
		return errors.Wrapf(core.ErrValidation, "unknown memory embedder %q", c.Memory.Embedder)
	}
	if len(c.Chain.RPCURLs) == 0 {
		return errors.Wrap(core.ErrValidation, "chain.rpc_urls must list at least one endpoint")
	}
	return nil
}
