package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for optional configuration fields.
const (
	DefaultServerAddr       = ":8080"
	DefaultReadLimit        = 4096
	DefaultWriteTimeout     = 5 * time.Second
	DefaultQuoteBaseURL     = "https://api.coingecko.com"
	DefaultQuoteTimeout     = 10 * time.Second
	DefaultVsCurrency       = "usd"
	DefaultInitialCash      = 10000.00
	DefaultRecentTrades     = 10
	DefaultMentionMax       = 50
	DefaultMentionFactor    = 0.001
	DefaultMentionCap       = 0.1
	DefaultViralProbability = 0.02
	DefaultViralMultiplier  = 4
	DefaultMinPrice         = 0.01
	DefaultPrecision        = 2
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	DefaultEnvironment      = "dev"
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "disable"
)

// DefaultAssets is the opening board of every session.
func DefaultAssets() []AssetConfig {
	return []AssetConfig{
		{Name: "Wojak", Price: 100.00, Volatility: 0.2},
		{Name: "Dogecoin", Price: 0.10, Volatility: 0.3, Precision: Precision(4), QuoteID: "dogecoin"},
		{Name: "Distracted Boyfriend", Price: 75.00, Volatility: 0.15},
		{Name: "Pepe the Frog", Price: 120.00, Volatility: 0.25},
		{Name: "Drake Template", Price: 80.00, Volatility: 0.22},
	}
}

// Precision returns a pointer for AssetConfig.Precision.
func Precision(n int32) *int32 {
	return &n
}

// setDefaults registers scalar defaults so AutomaticEnv can override keys
// that never appear in the config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.read_limit", DefaultReadLimit)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)

	v.SetDefault("quote.enabled", true)
	v.SetDefault("quote.base_url", DefaultQuoteBaseURL)
	v.SetDefault("quote.timeout", DefaultQuoteTimeout)
	v.SetDefault("quote.vs_currency", DefaultVsCurrency)

	v.SetDefault("market.initial_cash", DefaultInitialCash)
	v.SetDefault("market.seed", 0)
	v.SetDefault("market.recent_trades", DefaultRecentTrades)
	v.SetDefault("market.mention_max", DefaultMentionMax)
	v.SetDefault("market.mention_factor", DefaultMentionFactor)
	v.SetDefault("market.mention_cap", DefaultMentionCap)
	v.SetDefault("market.viral_probability", DefaultViralProbability)
	v.SetDefault("market.viral_multiplier", DefaultViralMultiplier)
	v.SetDefault("market.min_price", DefaultMinPrice)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.environment", DefaultEnvironment)

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.port", DefaultDBPort)
	v.SetDefault("postgres.sslmode", DefaultDBSSLMode)
}

func (c *Config) applyDefaults() {
	if len(c.Market.Assets) == 0 {
		c.Market.Assets = DefaultAssets()
	}
}
