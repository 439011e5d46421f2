// Package config loads settings for the dashboard client and the relay
// server from defaults, an optional YAML file, DASH_* environment
// variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Store struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"store"`
	Auth struct {
		Mode          string        `mapstructure:"mode"`
		Hasher        string        `mapstructure:"hasher"`
		MaxAttempts   int           `mapstructure:"max_attempts"`
		LockoutWindow time.Duration `mapstructure:"lockout_window"`
		SessionTTL    time.Duration `mapstructure:"session_ttl"`
		AdminPassword string        `mapstructure:"admin_password"`
		UserPassword  string        `mapstructure:"user_password"`
	} `mapstructure:"auth"`
	Records struct {
		ReseedMissingTypes bool `mapstructure:"reseed_missing_types"`
	} `mapstructure:"records"`
	Generation struct {
		Delay   time.Duration `mapstructure:"delay"`
		Catalog string        `mapstructure:"catalog"`
	} `mapstructure:"generation"`
	Access struct {
		Enabled bool   `mapstructure:"enabled"`
		Secret  string `mapstructure:"secret"`
	} `mapstructure:"access"`
	Relay struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"relay"`
	Server struct {
		Addr         string        `mapstructure:"addr"`
		JWTSecret    string        `mapstructure:"jwt_secret"`
		PurgeEvery   time.Duration `mapstructure:"purge_every"`
		MetricsRoute string        `mapstructure:"metrics_route"`
	} `mapstructure:"server"`
	OpenAI struct {
		APIKey      string  `mapstructure:"api_key"`
		BaseURL     string  `mapstructure:"base_url"`
		Model       string  `mapstructure:"model"`
		MaxTokens   int     `mapstructure:"max_tokens"`
		Temperature float64 `mapstructure:"temperature"`
		ImageSize   string  `mapstructure:"image_size"`
	} `mapstructure:"openai"`
	SSO struct {
		Issuer       string `mapstructure:"issuer"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		RedirectURL  string `mapstructure:"redirect_url"`
	} `mapstructure:"sso"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
		File   string `mapstructure:"file"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "dashboard.db")
	v.SetDefault("auth.mode", "mock")
	v.SetDefault("auth.hasher", "bcrypt")
	v.SetDefault("auth.max_attempts", 5)
	v.SetDefault("auth.lockout_window", 15*time.Minute)
	v.SetDefault("auth.session_ttl", 24*time.Hour)
	v.SetDefault("records.reseed_missing_types", false)
	v.SetDefault("generation.delay", 2*time.Second)
	v.SetDefault("access.enabled", false)
	v.SetDefault("access.secret", "Dolce2024")
	v.SetDefault("relay.url", "http://localhost:3001/api")
	v.SetDefault("relay.timeout", 30*time.Second)
	v.SetDefault("server.addr", ":3001")
	v.SetDefault("server.purge_every", time.Hour)
	v.SetDefault("server.metrics_route", "/metrics")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.image_size", "512x512")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"store-driver": "store.driver",
	"store-dsn":    "store.dsn",
	"auth-mode":    "auth.mode",
	"relay-url":    "relay.url",
	"addr":         "server.addr",
	"log-level":    "log.level",
	"log-file":     "log.file",
}

// RegisterFlags adds the shared flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("store-driver", "", "key-value store: memory, sqlite or postgres")
	fs.String("store-dsn", "", "store data source name")
	fs.String("auth-mode", "", "authentication strategy: mock or remote")
	fs.String("relay-url", "", "relay base URL, including the /api prefix")
	fs.String("addr", "", "relay listen address")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	fs.String("log-file", "", "write logs to this file")
	fs.BoolP("help", "h", false, "show help")
}

// Load parses args into fs and resolves the configuration. It returns
// pflag.ErrHelp when help was requested.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if help, _ := fs.GetBool("help"); help {
		return nil, pflag.ErrHelp
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("DASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key)
	}
	for _, key := range []string{"auth.admin_password", "auth.user_password", "generation.catalog", "server.jwt_secret", "openai.api_key", "sso.issuer", "sso.client_id", "sso.client_secret", "sso.redirect_url"} {
		_ = v.BindEnv(key)
	}

	for flag, key := range flagKeys {
		if f := fs.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	path, _ := fs.GetString("config")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dashboard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/dashboard")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	switch c.Auth.Mode {
	case "mock", "remote":
	default:
		return fmt.Errorf("config: unknown auth mode %q", c.Auth.Mode)
	}
	if c.Auth.MaxAttempts <= 0 {
		return errors.New("config: auth.max_attempts must be positive")
	}
	return nil
}
