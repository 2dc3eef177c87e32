// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port                string `mapstructure:"PORT"`
	DBHost              string `mapstructure:"DB_HOST"`
	DBPort              string `mapstructure:"DB_PORT"`
	DBUser              string `mapstructure:"DB_USER"`
	DBPassword          string `mapstructure:"DB_PASSWORD"`
	DBName              string `mapstructure:"DB_NAME"`
	DBSSLMode           string `mapstructure:"DB_SSLMODE"`
	RedisURL            string `mapstructure:"REDIS_URL"`
	CacheTTLSeconds     int    `mapstructure:"CACHE_TTL_SECONDS"`
	KafkaBrokers        string `mapstructure:"KAFKA_BROKERS"`
	FetchMaxConcurrent  int    `mapstructure:"FETCH_MAX_CONCURRENT"`
	FetchTimeoutMS      int    `mapstructure:"FETCH_TIMEOUT_MS"`
	FetchPartialResults bool   `mapstructure:"FETCH_PARTIAL_RESULTS"`
	AllowedOrigins      string `mapstructure:"ALLOWED_ORIGINS"`
	Env                 string `mapstructure:"APP_ENV"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config
	// We intentionally ignore this error as the config file may not exist yet
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			var notFoundErr viper.ConfigFileNotFoundError
			if !errors.As(err, &notFoundErr) {
				return nil, fmt.Errorf("could not merge profile-specific config 'config.%s.yml': %w", env, err)
			}
		} else {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	// Set default values for development
	viper.SetDefault("PORT", "8420")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "announcement_board")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("CACHE_TTL_SECONDS", 0)
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("FETCH_MAX_CONCURRENT", 100)
	viper.SetDefault("FETCH_TIMEOUT_MS", 3000)
	viper.SetDefault("FETCH_PARTIAL_RESULTS", false)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("APP_ENV", "development")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and sane.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.FetchMaxConcurrent < 1 {
		return errors.New("FETCH_MAX_CONCURRENT must be at least 1")
	}
	if c.FetchTimeoutMS < 1 {
		return errors.New("FETCH_TIMEOUT_MS must be at least 1")
	}
	if c.CacheTTLSeconds < 0 {
		return errors.New("CACHE_TTL_SECONDS must not be negative")
	}

	isProduction := c.Env == "production" || c.Env == "prod"
	if isProduction {
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
	}

	return nil
}

// FetchTimeout returns the bounded wait applied to one batch fetch.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// CacheTTL returns the cache entry TTL; zero means entries do not expire.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Brokers splits KAFKA_BROKERS into a list; empty when eventing is disabled.
func (c *Config) Brokers() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
