package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration loaded from config/config.yaml.
type Config struct {
	Market struct {
		RESTEndpoint string `yaml:"rest_endpoint" validate:"required,url"`
		WSEndpoint   string `yaml:"ws_endpoint"`
	} `yaml:"market"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Monitor struct {
		PassIntervalSec    int `yaml:"pass_interval_sec" validate:"gte=0"`
		InstrumentTimeoutS int `yaml:"instrument_timeout_sec" validate:"gte=0"`
		MaxConcurrency     int `yaml:"max_concurrency" validate:"gte=0"`
	} `yaml:"monitor"`
	Backtest struct {
		StartingCash   float64 `yaml:"starting_cash" validate:"gte=0"`
		CommissionRate float64 `yaml:"commission_rate" validate:"gte=0,lt=1"`
		CashFraction   float64 `yaml:"cash_fraction" validate:"gte=0,lte=1"`
	} `yaml:"backtest"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

var validate = validator.New()

// Load reads and validates a yaml config file, filling defaults for
// anything left unset.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Market.RESTEndpoint == "" {
		c.Market.RESTEndpoint = "https://api.bybit.com"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "monitor.db"
	}
	if c.Backtest.StartingCash == 0 {
		c.Backtest.StartingCash = 10000
	}
	if c.Backtest.CashFraction == 0 {
		c.Backtest.CashFraction = 0.95
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) PassInterval() time.Duration {
	return time.Duration(c.Monitor.PassIntervalSec) * time.Second
}

func (c *Config) InstrumentTimeout() time.Duration {
	return time.Duration(c.Monitor.InstrumentTimeoutS) * time.Second
}
