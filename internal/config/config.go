package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Oracle  OracleConfig  `mapstructure:"oracle"`
	Events  EventsConfig  `mapstructure:"events"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	ReadTimeout    int    `mapstructure:"read_timeout"`  // seconds
	WriteTimeout   int    `mapstructure:"write_timeout"` // seconds
	IdleTimeout    int    `mapstructure:"idle_timeout"`  // seconds
	RequestTimeout int    `mapstructure:"request_timeout"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type OracleConfig struct {
	// SigningSecret is shared with the decryption oracle; attestations are
	// checked against it.
	SigningSecret string `mapstructure:"signing_secret"`
	// ImportSecret keys the well-formedness tags on ciphertext imports.
	ImportSecret string `mapstructure:"import_secret"`
}

type EventsConfig struct {
	Workers int `mapstructure:"workers"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func Load() (*Config, error) {
	// Optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("VEILPAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "veilpay"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = os.Getenv("APP_ENVIRONMENT")
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 30
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 30
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}
	if cfg.Events.Workers <= 0 {
		cfg.Events.Workers = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func validate(cfg *Config) error {
	if cfg.Oracle.SigningSecret == "" {
		return fmt.Errorf("oracle.signing_secret is required")
	}
	if cfg.Oracle.ImportSecret == "" {
		return fmt.Errorf("oracle.import_secret is required")
	}
	return nil
}
