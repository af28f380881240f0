package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/judopay/judopay-go/pkg/judopay"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName             string        `mapstructure:"app_name"`
	Env                 string        `mapstructure:"app_env"`
	LogLevel            string        `mapstructure:"log_level"`
	PublishersFile      string        `mapstructure:"publishers_file"`
	SyncIntervalSeconds int64         `mapstructure:"sync_interval"`
	SyncInterval        time.Duration `mapstructure:"-"`
	SyncPageSize        int           `mapstructure:"sync_page_size"`
	HTTPTimeoutSeconds  int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout         time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	JudoID           string `mapstructure:"judo_id"`
	APIToken         string `mapstructure:"judo_api_token"`
	APISecret        string `mapstructure:"judo_api_secret"`
	OAuthAccessToken string `mapstructure:"judo_oauth_access_token"`
	APIVersion       string `mapstructure:"judo_api_version"`
	UserAgent        string `mapstructure:"judo_user_agent"`
	EndpointURL      string `mapstructure:"judo_endpoint_url"`
	UseProduction    bool   `mapstructure:"judo_use_production"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "judopay-receipt-sync")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("sync_interval", 300) // seconds
	v.SetDefault("sync_page_size", 50)
	v.SetDefault("http_timeout_seconds", 30)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/receipts.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.SetDefault("judo_id", "")
	v.SetDefault("judo_api_token", "")
	v.SetDefault("judo_api_secret", "")
	v.SetDefault("judo_oauth_access_token", "")
	v.SetDefault("judo_api_version", judopay.DefaultAPIVersion)
	v.SetDefault("judo_user_agent", judopay.DefaultUserAgent)
	v.SetDefault("judo_endpoint_url", "")
	v.SetDefault("judo_use_production", false)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.SyncIntervalSeconds <= 0 {
		return fmt.Errorf("invalid sync_interval (must be positive seconds)")
	}
	cfg.SyncInterval = time.Duration(cfg.SyncIntervalSeconds) * time.Second

	if cfg.SyncPageSize <= 0 {
		return fmt.Errorf("invalid sync_page_size (must be positive)")
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	cfg.EndpointURL = strings.TrimRight(strings.TrimSpace(cfg.EndpointURL), "/")
	return nil
}

// Judopay builds the gateway configuration. The endpoint follows
// judo_use_production unless judo_endpoint_url is set.
func (cfg *Config) Judopay() *judopay.Configuration {
	endpoint := cfg.EndpointURL
	if endpoint == "" {
		endpoint = judopay.SandboxURL
		if cfg.UseProduction {
			endpoint = judopay.LiveURL
		}
	}

	return &judopay.Configuration{
		EndpointURL:      endpoint,
		APIVersion:       cfg.APIVersion,
		UserAgent:        cfg.UserAgent,
		OAuthAccessToken: cfg.OAuthAccessToken,
		APIToken:         cfg.APIToken,
		APISecret:        cfg.APISecret,
		JudoID:           cfg.JudoID,
		UseProduction:    cfg.UseProduction,
	}
}
