package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Session     SessionConfig     `mapstructure:"session"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// PersistenceConfig controls the optional local snapshot. An empty path
// keeps the engine purely in-memory.
type PersistenceConfig struct {
	Path     string `mapstructure:"path"`
	AutoSave bool   `mapstructure:"autosave"`
}

type SessionConfig struct {
	AcquireTimeoutSeconds int `mapstructure:"acquire_timeout_seconds"`
}

func (c SessionConfig) AcquireTimeout() time.Duration {
	return time.Duration(c.AcquireTimeoutSeconds) * time.Second
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Session: SessionConfig{AcquireTimeoutSeconds: 30},
	}
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("vidaplus")
	viper.AutomaticEnv()

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("session.acquire_timeout_seconds", 30)
	viper.SetDefault("persistence.autosave", false)

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
