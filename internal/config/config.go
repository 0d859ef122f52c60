package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LanguagePair associates a locale with the language code used in slugs.
// Order matters: URLs are generated language by language in the order the
// pairs are configured.
type LanguagePair struct {
	Locale string `mapstructure:"locale"` // e.g. "en_US"
	Code   string `mapstructure:"code"`   // e.g. "en"
}

// Config represents the main structure mapping the entire application configuration.
// This struct uses mapstructure tags to map YAML/JSON keys to Go struct fields.
type Config struct {
	// Server configuration section containing HTTP server settings
	Server struct {
		Port    int    `mapstructure:"port"`     // HTTP server port (default: 8080)
		BaseURL string `mapstructure:"base_url"` // Site origin used for absolute URLs
	} `mapstructure:"server"`

	// Database configuration section for SQLite settings
	Database struct {
		Name string `mapstructure:"name"` // SQLite database file name
	} `mapstructure:"database"`

	// Log configuration
	Log struct {
		Level string `mapstructure:"level"` // zap level: debug, info, warn, error
	} `mapstructure:"log"`

	// Monitor configuration for the periodic URL integrity check
	Monitor struct {
		IntervalMinutes int `mapstructure:"interval_minutes"` // Interval in minutes between integrity checks
	} `mapstructure:"monitor"`

	// Urls configures slug generation, redirects and dispatching
	Urls struct {
		// Languages is the ordered set of locale/code pairs URLs are
		// generated for.
		Languages []LanguagePair `mapstructure:"languages"`

		// DefaultLanguage is the fallback language code for requests that
		// carry no language of their own.
		DefaultLanguage string `mapstructure:"default_language"`

		// RedirectHTTPCode is the status used when replaying an old slug
		// (default 301).
		RedirectHTTPCode int `mapstructure:"redirect_http_code"`

		// AutoTrimSlashes strips leading/trailing slashes from strategy
		// output before validation (default true).
		AutoTrimSlashes bool `mapstructure:"auto_trim_slashes"`

		// ValidateSlugs enables strict validation: lowercase letters, digits
		// and hyphens only (default false).
		ValidateSlugs bool `mapstructure:"validate_slugs"`

		// ReservedSlugs can never be used as a generated slug.
		ReservedSlugs []string `mapstructure:"reserved_slugs"`

		// BatchSize is the chunk size for batch URL generation (default 500).
		BatchSize int `mapstructure:"batch_size"`

		// AutoGenerateOnCreate controls whether entity creation triggers URL
		// generation (default true). Entities can still opt out individually.
		AutoGenerateOnCreate bool `mapstructure:"auto_generate_on_create"`

		// CreateRedirects controls whether a slug change leaves a redirect
		// marker behind (default true, recommended for SEO).
		CreateRedirects bool `mapstructure:"create_redirects"`
	} `mapstructure:"urls"`
}

// LoadConfig loads the application configuration using Viper.
// It supports environment variable overrides and YAML configuration files.
// Returns a populated Config struct or an error if configuration loading fails.
func LoadConfig() (*Config, error) {
	// Enable automatic environment variable binding, so config values can be
	// overridden via environment variables ("server.port" -> SERVER_PORT).
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.AddConfigPath("./configs")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	setDefaults()

	// Attempt to read the config file. A missing file is not fatal: the
	// defaults above describe a fully working single-language setup.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("database.name", "unique_urls.db")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("monitor.interval_minutes", 5)

	viper.SetDefault("urls.languages", []map[string]string{
		{"locale": "en_US", "code": "en"},
	})
	viper.SetDefault("urls.default_language", "en")
	viper.SetDefault("urls.redirect_http_code", 301)
	viper.SetDefault("urls.auto_trim_slashes", true)
	viper.SetDefault("urls.validate_slugs", false)
	viper.SetDefault("urls.reserved_slugs", []string{
		"admin", "api", "login", "logout", "register", "password", "dashboard",
	})
	viper.SetDefault("urls.batch_size", 500)
	viper.SetDefault("urls.auto_generate_on_create", true)
	viper.SetDefault("urls.create_redirects", true)
}

// Default returns the built-in configuration without touching the config file
// or the environment. Tests build on top of it.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.BaseURL = "http://localhost:8080"
	cfg.Database.Name = "unique_urls.db"
	cfg.Log.Level = "info"
	cfg.Monitor.IntervalMinutes = 5
	cfg.Urls.Languages = []LanguagePair{{Locale: "en_US", Code: "en"}}
	cfg.Urls.DefaultLanguage = "en"
	cfg.Urls.RedirectHTTPCode = 301
	cfg.Urls.AutoTrimSlashes = true
	cfg.Urls.ValidateSlugs = false
	cfg.Urls.ReservedSlugs = []string{"admin", "api", "login", "logout", "register", "password", "dashboard"}
	cfg.Urls.BatchSize = 500
	cfg.Urls.AutoGenerateOnCreate = true
	cfg.Urls.CreateRedirects = true
	return cfg
}
