// Package config loads runtime configuration from GYM_-prefixed environment
// variables (and a .env file when present).
//
// Nested keys use a double underscore: GYM_DATABASE__HOST maps to
// database.host. Single underscores stay part of the key name, so
// GYM_DATABASE__SSL_MODE maps to database.ssl_mode.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "GYM_"

// Config is the root configuration object.
type Config struct {
	Env      string         `koanf:"env" validate:"required,oneof=local development staging production test"`
	LogLevel string         `koanf:"log_level" validate:"required"`
	Store    string         `koanf:"store" validate:"required,oneof=postgres memory"`
	Database DatabaseConfig `koanf:"database" validate:"required"`
	HTTP     HTTPConfig     `koanf:"http" validate:"required"`
	Auth     AuthConfig     `koanf:"auth" validate:"required"`
	Events   EventsConfig   `koanf:"events"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host           string        `koanf:"host" validate:"required"`
	Port           int           `koanf:"port" validate:"required,min=1,max=65535"`
	User           string        `koanf:"user" validate:"required"`
	Password       string        `koanf:"password"`
	Name           string        `koanf:"name" validate:"required"`
	SSLMode        string        `koanf:"ssl_mode" validate:"required,oneof=disable allow prefer require verify-ca verify-full"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" validate:"required"`
	MaxConns       int32         `koanf:"max_conns" validate:"min=1"`
}

// DSN renders the postgres:// URL, escaping the password.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Address      string        `koanf:"address" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

// AuthConfig holds JWT verification parameters for the API.
type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret" validate:"required"`
	JWTIssuer string `koanf:"jwt_issuer" validate:"required"`
}

// EventsConfig enables Kafka change events when Brokers is non-empty.
type EventsConfig struct {
	Brokers []string `koanf:"brokers" validate:"dive,hostname_port"`
	Topic   string   `koanf:"topic" validate:"required_with=Brokers"`
}

// Enabled reports whether a broker list was configured.
func (e EventsConfig) Enabled() bool {
	return len(e.Brokers) > 0
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"env":                      "local",
		"log_level":                "info",
		"store":                    "postgres",
		"database.host":            "localhost",
		"database.port":            5432,
		"database.user":            "gym",
		"database.password":        "",
		"database.name":            "gym",
		"database.ssl_mode":        "disable",
		"database.connect_timeout": "10s",
		"database.max_conns":       4,
		"http.address":             ":8080",
		"http.read_timeout":        "5s",
		"http.write_timeout":       "10s",
		"http.idle_timeout":        "60s",
		"auth.jwt_secret":          "dev-secret-change-me",
		"auth.jwt_issuer":          "gym.identity",
		"events.topic":             "gym_changes",
	}
}

// Load layers environment variables over the defaults, then validates.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := &Config{}
	err = k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
