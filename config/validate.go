package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required configuration fields are set and sane.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Quote.Enabled {
		if c.Quote.BaseURL == "" {
			return errors.New("quote.base_url is required when quote.enabled is set")
		}
		if c.Quote.Timeout <= 0 {
			return errors.New("quote.timeout must be positive")
		}
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	if c.Postgres.Enabled {
		if c.Postgres.Host == "" {
			return errors.New("postgres.host is required when postgres.enabled is set")
		}
		if c.Postgres.DBName == "" {
			return errors.New("postgres.dbname is required when postgres.enabled is set")
		}
	}
	return nil
}

func (m *MarketConfig) validate() error {
	if m.InitialCash < 0 {
		return fmt.Errorf("market.initial_cash (%v) cannot be negative", m.InitialCash)
	}
	if m.MentionMax < 0 {
		return fmt.Errorf("market.mention_max (%d) cannot be negative", m.MentionMax)
	}
	if m.ViralProbability < 0 || m.ViralProbability > 1 {
		return fmt.Errorf("market.viral_probability (%v) must be within [0,1]", m.ViralProbability)
	}
	if m.MinPrice <= 0 {
		return fmt.Errorf("market.min_price (%v) must be positive", m.MinPrice)
	}
	if len(m.Assets) == 0 {
		return errors.New("market.assets must not be empty")
	}

	seen := make(map[string]bool, len(m.Assets))
	for _, a := range m.Assets {
		if a.Name == "" {
			return errors.New("market.assets[].name is required")
		}
		if seen[a.Name] {
			return fmt.Errorf("market.assets: duplicate asset %q", a.Name)
		}
		seen[a.Name] = true
		if a.Price <= 0 {
			return fmt.Errorf("market.assets[%s].price (%v) must be positive", a.Name, a.Price)
		}
		if a.Volatility < 0 || a.Volatility >= 1 {
			return fmt.Errorf("market.assets[%s].volatility (%v) must be within [0,1)", a.Name, a.Volatility)
		}
		if p := a.Decimals(); p < 0 || p > 8 {
			return fmt.Errorf("market.assets[%s].precision (%d) must be within [0,8]", a.Name, p)
		}
	}
	return nil
}
