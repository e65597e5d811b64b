// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Cache drivers accepted in CACHE_DRIVER.
const (
	CacheDriverMemory   = "memory"
	CacheDriverSQLite   = "sqlite"
	CacheDriverPostgres = "postgres"
)

// Config holds all service configuration values.
type Config struct {
	// Server
	Env  string `env:"ENV" env-default:"development"`
	Port string `env:"PORT" env-default:"8080"`

	// Upstreams
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" env-default:"10s"`
	RefreshInterval   time.Duration `env:"REFRESH_INTERVAL" env-default:"15m"`
	GoldPriceOrgURL   string        `env:"GOLDPRICE_ORG_URL" env-default:"https://data-asg.goldprice.org/dbXRates/USD"`
	NBPGoldURL        string        `env:"NBP_GOLD_URL" env-default:"https://api.nbp.pl/api/cenyzlota/?format=json"`
	ExchangeRateURL   string        `env:"EXCHANGE_RATE_URL" env-default:"https://open.er-api.com/v6/latest/USD"`
	GoldPriceProxyURL string        `env:"GOLD_PRICE_PROXY_URL"`

	// Session cache
	CacheDriver string `env:"CACHE_DRIVER" env-default:"sqlite"`
	CacheDSN    string `env:"CACHE_DSN" env-default:"file::memory:?cache=shared"`

	// Events
	KafkaBrokers    []string `env:"KAFKA_BROKERS" env-separator:","`
	KafkaRatesTopic string   `env:"KAFKA_RATES_TOPIC" env-default:"zakah.rates"`

	// Limits
	RefreshRateLimit string `env:"REFRESH_RATE_LIMIT" env-default:"10-M"`
}

// Load reads an optional .env file and the environment, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", c.RequestTimeout)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive, got %v", c.RefreshInterval)
	}

	c.CacheDriver = strings.ToLower(c.CacheDriver)
	switch c.CacheDriver {
	case CacheDriverMemory, CacheDriverSQLite, CacheDriverPostgres:
	default:
		return fmt.Errorf("invalid CACHE_DRIVER %q: must be memory, sqlite, or postgres", c.CacheDriver)
	}
	if c.CacheDriver != CacheDriverMemory && c.CacheDSN == "" {
		return fmt.Errorf("CACHE_DSN is required for CACHE_DRIVER %q", c.CacheDriver)
	}

	brokers := c.KafkaBrokers[:0]
	for _, b := range c.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	c.KafkaBrokers = brokers
	return nil
}

// KafkaEnabled reports whether rate snapshots should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
