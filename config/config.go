package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Quote    QuoteConfig    `mapstructure:"quote"`
	Market   MarketConfig   `mapstructure:"market"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadLimit    int64         `mapstructure:"read_limit"`    // max websocket frame size in bytes
	WriteTimeout time.Duration `mapstructure:"write_timeout"` // per-reply write deadline

	// AllowedOrigins lists browser origins that may open /ws, e.g.
	// "https://play.example.com". "*" allows any origin; empty allows only
	// same-origin pages and non-browser clients.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// QuoteConfig points at the CoinGecko-compatible price endpoint.
type QuoteConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	VsCurrency string        `mapstructure:"vs_currency"`
}

// MarketConfig seeds every new session.
type MarketConfig struct {
	InitialCash  float64 `mapstructure:"initial_cash"`
	Seed         uint64  `mapstructure:"seed"` // 0 draws a fresh seed per session
	RecentTrades int     `mapstructure:"recent_trades"`

	MentionMax       int     `mapstructure:"mention_max"`
	MentionFactor    float64 `mapstructure:"mention_factor"`
	MentionCap       float64 `mapstructure:"mention_cap"`
	ViralProbability float64 `mapstructure:"viral_probability"`
	ViralMultiplier  float64 `mapstructure:"viral_multiplier"`
	MinPrice         float64 `mapstructure:"min_price"`

	Assets []AssetConfig `mapstructure:"assets"`
}

type AssetConfig struct {
	Name       string  `mapstructure:"name"`
	Price      float64 `mapstructure:"price"`
	Volatility float64 `mapstructure:"volatility"`
	Precision  *int32  `mapstructure:"precision"` // nil means DefaultPrecision
	QuoteID    string  `mapstructure:"quote_id"` // CoinGecko coin id, empty for simulated-only assets
}

// Decimals returns the configured precision, or DefaultPrecision when unset.
func (a AssetConfig) Decimals() int32 {
	if a.Precision == nil {
		return DefaultPrecision
	}
	return *a.Precision
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load reads configuration from path (or config.yaml next to the binary when
// path is empty) and overrides it with environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // config.yaml
		v.SetConfigType("yaml")

		ex, _ := os.Executable()
		if strings.Contains(ex, "go-build") {
			pwd, _ := os.Getwd()
			v.AddConfigPath(filepath.Join(pwd, "../../config"))
		} else {
			v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
		}
		v.AddConfigPath("./config")
	}

	// Support environment variables with dot notation (e.g., QUOTE_BASE_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
