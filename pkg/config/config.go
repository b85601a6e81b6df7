package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowRequest     time.Duration `yaml:"slow_request"`
		CORS            bool          `yaml:"cors"`
		RateLimit       struct {
			Enabled bool    `yaml:"enabled"`
			RPS     float64 `yaml:"rps"`
			Burst   int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Market struct {
		Symbol          string        `yaml:"symbol"`
		Source          string        `yaml:"source"`
		Interval        string        `yaml:"interval"`
		DefaultPeriod   string        `yaml:"default_period"`
		Limit           int           `yaml:"limit"`
		FetchTimeout    time.Duration `yaml:"fetch_timeout"`
		SessionTimezone string        `yaml:"session_timezone"`
	} `yaml:"market"`
	Yahoo struct {
		BaseURL       string        `yaml:"base_url"`
		UserAgent     string        `yaml:"user_agent"`
		Timeout       time.Duration `yaml:"timeout"`
		RatePerMinute int           `yaml:"rate_per_minute"`
		Breaker       struct {
			MaxFailures uint32        `yaml:"max_failures"`
			OpenTimeout time.Duration `yaml:"open_timeout"`
			Interval    time.Duration `yaml:"interval"`
		} `yaml:"breaker"`
	} `yaml:"yahoo"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Cache struct {
		Backend     string        `yaml:"backend"`
		TTL         time.Duration `yaml:"ttl"`
		MemoryTTL   time.Duration `yaml:"memory_ttl"`
		MaxEntries  int           `yaml:"max_entries"`
		LockTimeout time.Duration `yaml:"lock_timeout"`
		Redis       struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		MaxAttempts  int           `yaml:"max_attempts"`
	} `yaml:"kafka"`
	Detector struct {
		VolSpikeMult           float64 `yaml:"vol_spike_mult"`
		RangeSpikeMult         float64 `yaml:"range_spike_mult"`
		LowRangeMult           float64 `yaml:"low_range_mult"`
		AccumulationWindowBars int     `yaml:"accumulation_window_bars"`
		ReversalWindowBars     int     `yaml:"reversal_window_bars"`
		ReversalFraction       float64 `yaml:"reversal_fraction"`
		AccumulationFraction   float64 `yaml:"accumulation_fraction"`
		FillLimitBars          int     `yaml:"fill_limit_bars"`
	} `yaml:"detector"`
}

// Default returns a configuration usable without a file: Yahoo source, memory cache,
// Kafka disabled. VWAP sessions follow the New York calendar whatever the bar source.
func Default() *Config {
	var c Config
	c.Environment = "development"
	c.Server.Host = "0.0.0.0"
	c.Server.Port = 8080
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.SlowRequest = 2 * time.Second
	c.Server.CORS = true
	c.Server.RateLimit.RPS = 5
	c.Server.RateLimit.Burst = 10
	c.Log.Level = "info"
	c.Log.Format = "json"
	c.Log.Output = "stdout"
	c.Metrics.Enabled = true
	c.Metrics.Path = "/metrics"
	c.Market.Symbol = "NQ=F"
	c.Market.Source = "yahoo"
	c.Market.Interval = "5m"
	c.Market.DefaultPeriod = "7d"
	c.Market.Limit = 1000
	c.Market.FetchTimeout = 15 * time.Second
	c.Market.SessionTimezone = "America/New_York"
	c.Yahoo.BaseURL = "https://query1.finance.yahoo.com"
	c.Yahoo.UserAgent = "Mozilla/5.0 (compatible; amdscope/1.0)"
	c.Yahoo.Timeout = 10 * time.Second
	c.Yahoo.RatePerMinute = 60
	c.Yahoo.Breaker.MaxFailures = 5
	c.Yahoo.Breaker.OpenTimeout = 30 * time.Second
	c.Yahoo.Breaker.Interval = time.Minute
	c.ClickHouse.Host = "localhost"
	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "market"
	c.ClickHouse.Table = "bars_5m"
	c.ClickHouse.User = "default"
	c.ClickHouse.DialTimeout = 5 * time.Second
	c.ClickHouse.ReadTimeout = 30 * time.Second
	c.ClickHouse.MaxExecutionTime = 30 * time.Second
	c.Cache.Backend = "memory"
	c.Cache.TTL = 5 * time.Minute
	c.Cache.MemoryTTL = time.Minute
	c.Cache.MaxEntries = 256
	c.Cache.LockTimeout = 20 * time.Second
	c.Cache.Redis.Addr = "localhost:6379"
	c.Cache.Redis.Prefix = "amd"
	c.Kafka.Topic = "amd.regime.events"
	c.Kafka.RequiredAcks = 1
	c.Kafka.Compression = "snappy"
	c.Kafka.WriteTimeout = 5 * time.Second
	c.Kafka.MaxAttempts = 3
	return &c
}

// Load reads a YAML file over Default and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML, or defaults when path is empty, then applies
// environment overrides and validates again.
func LoadWithEnv(path string) (*Config, error) {
	c := Default()
	if path != "" {
		var err error
		if c, err = Load(path); err != nil {
			return nil, err
		}
	}

	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("AMD_SYMBOL"); v != "" {
		c.Market.Symbol = v
	}
	if v := getenv("AMD_SOURCE"); v != "" {
		c.Market.Source = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Market.Symbol == "" {
		return fmt.Errorf("market.symbol is required")
	}
	switch c.Market.Source {
	case "yahoo", "clickhouse":
	default:
		return fmt.Errorf("market.source must be 'yahoo' or 'clickhouse', got '%s'", c.Market.Source)
	}
	if c.Market.Limit < 1 || c.Market.Limit > 5000 {
		return fmt.Errorf("market.limit must be within [1, 5000], got %d", c.Market.Limit)
	}
	if c.Market.FetchTimeout <= 0 {
		return fmt.Errorf("market.fetch_timeout must be positive")
	}
	if c.Market.SessionTimezone != "" {
		if _, err := time.LoadLocation(c.Market.SessionTimezone); err != nil {
			return fmt.Errorf("market.session_timezone: %w", err)
		}
	}
	switch c.Cache.Backend {
	case "none", "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be one of none, memory, redis, layered; got '%s'", c.Cache.Backend)
	}
	if (c.Cache.Backend == "redis" || c.Cache.Backend == "layered") && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for backend %s", c.Cache.Backend)
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}
	if c.Market.Source == "clickhouse" && c.ClickHouse.Table == "" {
		return fmt.Errorf("clickhouse.table is required for source clickhouse")
	}
	return nil
}

// SessionLocation returns the configured VWAP session timezone, or nil for bar-local dates.
func (c *Config) SessionLocation() *time.Location {
	if c.Market.SessionTimezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(c.Market.SessionTimezone)
	if err != nil {
		return nil
	}
	return loc
}
