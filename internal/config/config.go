// Package config loads application configuration from file and environment
// and bootstraps the global logger.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store Store `yaml:"store" mapstructure:"store"`
	Ozon  Ozon  `yaml:"ozon" mapstructure:"ozon"`
	WB    WB    `yaml:"wb" mapstructure:"wb"`
	HTTP  HTTP  `yaml:"http" mapstructure:"http"`
	Log   Log   `yaml:"log" mapstructure:"log"`
}

// Store configures the Postgres backend. DatabaseURL wins when set;
// otherwise the discrete fields are assembled into a DSN.
type Store struct {
	DatabaseURL  string `yaml:"database_url" mapstructure:"database_url"`
	Host         string `yaml:"host" mapstructure:"host"`
	Port         int    `yaml:"port" mapstructure:"port"`
	User         string `yaml:"user" mapstructure:"user"`
	Password     string `yaml:"password" mapstructure:"password"`
	Database     string `yaml:"database" mapstructure:"database"`
}

// DSN returns the connection string for the pool. Credentials are
// URL-escaped so passwords with reserved characters survive assembly.
func (s Store) DSN() (string, error) {
	if s.DatabaseURL != "" {
		return s.DatabaseURL, nil
	}
	if s.Host == "" || s.Database == "" {
		return "", eris.New("config: no store.database_url and no store.host/database configured")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(s.User, s.Password),
		Host:   fmt.Sprintf("%s:%d", s.Host, s.Port),
		Path:   s.Database,
	}
	return u.String(), nil
}

// Ozon holds the Ozon seller API credentials and fetch settings.
type Ozon struct {
	ClientID  string `yaml:"client_id" mapstructure:"client_id"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	PageLimit int    `yaml:"page_limit" mapstructure:"page_limit"`
}

// WB holds the Wildberries statistics API credentials and fetch settings.
type WB struct {
	Token     string `yaml:"token" mapstructure:"token"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	PageLimit int    `yaml:"page_limit" mapstructure:"page_limit"`
}

// HTTP configures the shared API client.
type HTTP struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml (optional) and the environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MARKETSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Empty defaults register the credential keys with viper so pure-env
	// deployments (no config.yaml) still surface them through Unmarshal.
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.host", "")
	v.SetDefault("store.user", "")
	v.SetDefault("store.password", "")
	v.SetDefault("store.database", "")
	v.SetDefault("ozon.client_id", "")
	v.SetDefault("ozon.api_key", "")
	v.SetDefault("wb.token", "")

	v.SetDefault("store.port", 5432)
	v.SetDefault("ozon.base_url", "https://api-seller.ozon.ru")
	v.SetDefault("ozon.page_limit", 1000)
	v.SetDefault("wb.base_url", "https://statistics-api.wildberries.ru")
	v.SetDefault("wb.page_limit", 100000)
	v.SetDefault("http.timeout_secs", 60)
	v.SetDefault("http.max_attempts", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg Log) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
