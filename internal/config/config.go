// Package config loads application configuration from an optional YAML file
// overlaid by BASKET_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Redis    RedisConfig    `yaml:"redis" envconfig:"REDIS"`
	Upstream UpstreamConfig `yaml:"upstream" envconfig:"UPSTREAM"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	// AdminToken gates the administrative refresh endpoints. Empty disables them.
	AdminToken string `yaml:"admin_token" envconfig:"ADMIN_TOKEN"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// RedisConfig contains key-value store connection configuration
type RedisConfig struct {
	Addr        string        `yaml:"addr" envconfig:"ADDR" validate:"required"`
	Password    string        `yaml:"password" envconfig:"PASSWORD"`
	DB          int           `yaml:"db" envconfig:"DB" validate:"min=0"`
	DialTimeout time.Duration `yaml:"dial_timeout" envconfig:"DIAL_TIMEOUT"`
}

// UpstreamConfig contains statistical API client configuration
type UpstreamConfig struct {
	BLSBaseURL   string        `yaml:"bls_base_url" envconfig:"BLS_BASE_URL" validate:"required,url"`
	BLSAPIKey    string        `yaml:"bls_api_key" envconfig:"BLS_API_KEY"`
	EIABaseURL   string        `yaml:"eia_base_url" envconfig:"EIA_BASE_URL" validate:"required,url"`
	EIAAPIKey    string        `yaml:"eia_api_key" envconfig:"EIA_API_KEY"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	RateLimitRPS float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" validate:"gt=0"`
	RateBurst    int           `yaml:"rate_burst" envconfig:"RATE_BURST" validate:"min=1"`
}

// CommodityConfig describes one tracked commodity and its upstream series
type CommodityConfig struct {
	Name        string `yaml:"name" envconfig:"NAME" validate:"required"`
	DisplayName string `yaml:"display_name" envconfig:"DISPLAY_NAME"`
	Source      string `yaml:"source" envconfig:"SOURCE" validate:"oneof=bls eia"`
	SeriesID    string `yaml:"series_id" envconfig:"SERIES_ID" validate:"required"`
}

// PipelineConfig contains alignment and basket composition configuration
type PipelineConfig struct {
	BaselineYear    int                `yaml:"baseline_year" envconfig:"BASELINE_YEAR" validate:"min=2000,max=2100"`
	ProcessingYear  int                `yaml:"processing_year" envconfig:"PROCESSING_YEAR" validate:"min=2000,max=2100,gtfield=BaselineYear"`
	CombineStrategy string             `yaml:"combine_strategy" envconfig:"COMBINE_STRATEGY" validate:"oneof=weighted_sum normalized_average"`
	Quantities      map[string]float64 `yaml:"quantities" envconfig:"QUANTITIES"`
	Commodities     []CommodityConfig  `yaml:"commodities" validate:"min=1,dive"`
}

// Default returns the built-in configuration: eggs and milk from BLS average
// price series, regular gasoline from the EIA weekly retail series, one unit
// of each in the basket.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/basketwatch.log",
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			DB:          0,
			DialTimeout: 5 * time.Second,
		},
		Upstream: UpstreamConfig{
			BLSBaseURL:   "https://api.bls.gov/publicAPI/v2/timeseries/data",
			EIABaseURL:   "https://api.eia.gov/v2/petroleum/pri/gnd/data",
			Timeout:      30 * time.Second,
			RateLimitRPS: 2,
			RateBurst:    1,
		},
		Pipeline: PipelineConfig{
			BaselineYear:    2024,
			ProcessingYear:  2025,
			CombineStrategy: "weighted_sum",
			Quantities: map[string]float64{
				"eggs":             1,
				"milk":             1,
				"gasoline_regular": 1,
			},
			Commodities: []CommodityConfig{
				{Name: "eggs", DisplayName: "Eggs (dozen, grade A)", Source: "bls", SeriesID: "APU0000708111"},
				{Name: "milk", DisplayName: "Milk (gallon, whole)", Source: "bls", SeriesID: "APU0000709112"},
				{Name: "gasoline_regular", DisplayName: "Gasoline (gallon, regular)", Source: "eia", SeriesID: "EMM_EPMR_PTE_NUS_DPG"},
			},
		},
	}
}

// Load builds configuration from defaults, an optional YAML file, and
// BASKET_-prefixed environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := configFilePath(); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("BASKET", cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural constraints plus the cross-field rules that
// struct tags cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	names := make(map[string]bool, len(c.Pipeline.Commodities))
	for _, commodity := range c.Pipeline.Commodities {
		if names[commodity.Name] {
			return fmt.Errorf("config validation: duplicate commodity %q", commodity.Name)
		}
		names[commodity.Name] = true
	}
	for name, qty := range c.Pipeline.Quantities {
		if qty < 0 {
			return fmt.Errorf("config validation: negative quantity for %q", name)
		}
		if !names[name] {
			return fmt.Errorf("config validation: quantity for unconfigured commodity %q", name)
		}
	}
	return nil
}

// BaselineLabel returns the baseline sentinel string, e.g. "2024 Avg".
func (c *Config) BaselineLabel() string {
	return fmt.Sprintf("%d Avg", c.Pipeline.BaselineYear)
}

func configFilePath() string {
	if path := os.Getenv("BASKET_CONFIG_FILE"); path != "" {
		return path
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
