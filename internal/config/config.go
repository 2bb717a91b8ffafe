package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Line struct {
		ChannelAccessToken string `yaml:"channel_access_token"`
		UserID             string `yaml:"user_id"`
	} `yaml:"line"`
	Storage struct {
		Bucket        string `yaml:"bucket"`
		Region        string `yaml:"region"`
		URLTTLSeconds int    `yaml:"url_ttl_seconds"`
	} `yaml:"storage"`
	Market struct {
		Symbols    []string `yaml:"symbols"`
		FxSymbol   string   `yaml:"fx_symbol"`
		WindowDays int      `yaml:"window_days"`
	} `yaml:"market"`
	Chart struct {
		Symbol     string `yaml:"symbol"`
		WindowDays int    `yaml:"window_days"`
	} `yaml:"chart"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A local .env file, if present, is loaded first so
// local runs behave like the deployed environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"); v != "" {
		c.Line.ChannelAccessToken = v
	}
	if v := os.Getenv("LINE_USER_ID"); v != "" {
		c.Line.UserID = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Storage.Region = v
	}
	if v := os.Getenv("URL_TTL_SECONDS"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil {
			c.Storage.URLTTLSeconds = ttl
		}
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Market.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		c.Schedule.DailyCron = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
}

func (c *Config) applyDefaults() {
	if len(c.Market.Symbols) == 0 {
		c.Market.Symbols = []string{"VT", "VOO", "QQQ"}
	}
	if c.Market.FxSymbol == "" {
		c.Market.FxSymbol = "JPY=X"
	}
	if c.Market.WindowDays == 0 {
		c.Market.WindowDays = 30
	}
	if c.Chart.Symbol == "" {
		c.Chart.Symbol = c.Market.Symbols[0]
	}
	if c.Chart.WindowDays == 0 {
		c.Chart.WindowDays = 90
	}
	if c.Schedule.DailyCron == "" {
		// Five of seven days, mornings after the US close.
		c.Schedule.DailyCron = "0 0 8 * * 2-6"
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "ap-northeast-1"
	}
	if c.Storage.URLTTLSeconds == 0 {
		c.Storage.URLTTLSeconds = 3600
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Line.ChannelAccessToken == "" {
		return fmt.Errorf("line.channel_access_token is required")
	}
	if c.Line.UserID == "" {
		return fmt.Errorf("line.user_id is required")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required")
	}
	if c.Storage.URLTTLSeconds <= 0 {
		return fmt.Errorf("storage.url_ttl_seconds must be positive")
	}
	if len(c.Market.Symbols) == 0 {
		return fmt.Errorf("market.symbols cannot be empty")
	}
	return nil
}
