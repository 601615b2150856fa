// internal/config/config.go
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"

	custom_errors "github.com/davidwang456/github-commit-query-system/internal/errors"
)

// Provider family names accepted in PROVIDER.
const (
	ProviderGithub = "github"
	ProviderGitlab = "gitlab"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	Port            int    `mapstructure:"PORT"`
	DBURL           string `mapstructure:"DB_URL"`
	Provider        string `mapstructure:"PROVIDER"`
	ProviderBaseURL string `mapstructure:"PROVIDER_BASE_URL"`
	TokenHeader     string `mapstructure:"TOKEN_HEADER"`
	SyncConcurrency int    `mapstructure:"SYNC_CONCURRENCY"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values. Empty defaults keep env-only keys visible to
	// viper's Unmarshal.
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("PROVIDER", ProviderGithub)
	viper.SetDefault("SYNC_CONCURRENCY", 5)
	viper.SetDefault("DB_URL", "")
	viper.SetDefault("PROVIDER_BASE_URL", "")
	viper.SetDefault("TOKEN_HEADER", "")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch cfg.Provider {
	case ProviderGithub:
		if cfg.ProviderBaseURL == "" {
			cfg.ProviderBaseURL = "https://api.github.com"
		}
		if cfg.TokenHeader == "" {
			cfg.TokenHeader = "X-Github-Token"
		}
	case ProviderGitlab:
		if cfg.ProviderBaseURL == "" {
			cfg.ProviderBaseURL = "https://gitlab.com/api/v4"
		}
		if cfg.TokenHeader == "" {
			cfg.TokenHeader = "X-Gitlab-Token"
		}
	default:
		return nil, &custom_errors.ErrUnknownProvider{Provider: cfg.Provider}
	}

	// Validate required fields
	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.SyncConcurrency < 1 {
		cfg.SyncConcurrency = 1
	}

	return &cfg, nil
}
