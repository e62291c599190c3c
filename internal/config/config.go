package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"log/slog"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Addr         string        `mapstructure:"addr"`
		Mode         string        `mapstructure:"mode"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"server"`

	Auth struct {
		// IssuerURL is the token issuer; its JWKS endpoint is derived from it.
		IssuerURL string `mapstructure:"issuer_url"`
		// UserPoolID scopes the app-client existence check (REST variant).
		UserPoolID string `mapstructure:"user_pool_id"`
		// AppClientID is the expected audience (WebSocket variant).
		AppClientID string `mapstructure:"app_client_id"`
	} `mapstructure:"auth"`

	PolicyStore struct {
		TableName string `mapstructure:"table_name"`
	} `mapstructure:"policy_store"`

	Observability struct {
		TraceEnabled       bool   `mapstructure:"trace_enabled"`
		TracingEndpointURL string `mapstructure:"tracing_endpoint_url"`
		LogLevel           string `mapstructure:"log_level"`
		Format             string `mapstructure:"log_format"`
		LogSource          bool   `mapstructure:"log_source"`
	} `mapstructure:"observability"`
}

// envBindings maps config keys to the environment variables the deployed
// functions are provisioned with.
var envBindings = map[string]string{
	"auth.issuer_url":                    "ISSUER_URL",
	"auth.user_pool_id":                  "USER_POOL_ID",
	"auth.app_client_id":                 "APP_CLIENT_ID",
	"policy_store.table_name":            "POLICY_TABLE_NAME",
	"observability.log_level":            "LOG_LEVEL",
	"observability.log_format":           "LOG_FORMAT",
	"observability.trace_enabled":        "TRACE_ENABLED",
	"observability.tracing_endpoint_url": "TRACING_ENDPOINT_URL",
}

// MustLoadEnv reads configuration from the environment only, the way the
// deployed function variants are configured. It exits on unmarshal failure.
func MustLoadEnv() *Config {
	v := viper.New()

	setDefaults(v)
	for key, env := range envBindings {
		// BindEnv only errors on empty input.
		_ = v.BindEnv(key, env)
	}

	return mustUnmarshal(v)
}

// MustLoad reads the local-server configuration: config.yaml plus environment
// overrides. It exits when no config file can be read.
func MustLoad() *Config {
	v := viper.New()

	logger := slog.Default()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvPrefix("AUTHORIZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		logger.Error("Failed to read config", slog.Any("error", err))
		os.Exit(1)
	}

	if env := os.Getenv("APP_ENV"); env != "" {
		v.SetConfigName(fmt.Sprintf("config.%s", env))
		if err := v.MergeInConfig(); err != nil {
			logger.Info("No environment-specific config (optional)", slog.String("env", env))
		}
	}

	return mustUnmarshal(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.log_format", "json")
}

func mustUnmarshal(v *viper.Viper) *Config {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Default().Error("Failed to unmarshal config", slog.Any("error", err))
		os.Exit(1)
	}
	return &cfg
}
