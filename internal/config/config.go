package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. TASKLEVEL_PORT.
const EnvPrefix = "TASKLEVEL"

// Config holds everything the server needs at startup.
type Config struct {
	Port      string `mapstructure:"port"`
	DBPath    string `mapstructure:"db_path"`
	BaseURL   string `mapstructure:"base_url"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	JWTSecret string `mapstructure:"jwt_secret"`

	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	VAPIDSubject    string `mapstructure:"vapid_subject"`

	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3Region    string `mapstructure:"s3_region"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3PublicURL string `mapstructure:"s3_public_url"`

	TimezoneOffset    time.Duration `mapstructure:"timezone_offset"`
	SchedulerInterval time.Duration `mapstructure:"scheduler_interval"`
	ExpiringWindow    time.Duration `mapstructure:"expiring_window"`

	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

var defaults = map[string]any{
	"port":               "8080",
	"db_path":            "tasklevel.db",
	"base_url":           "http://localhost:8080",
	"log_level":          "info",
	"log_format":         "text",
	"jwt_secret":         "",
	"vapid_public_key":   "",
	"vapid_private_key":  "",
	"vapid_subject":      "mailto:noreply@tasklevel.app",
	"s3_endpoint":        "",
	"s3_region":          "auto",
	"s3_bucket":          "",
	"s3_access_key":      "",
	"s3_secret_key":      "",
	"s3_public_url":      "",
	"timezone_offset":    "2h",
	"scheduler_interval": "60s",
	"expiring_window":    "3h",
	"allowed_origins":    []string{},
}

// Load reads .env (if present), then the optional YAML file at path, then
// TASKLEVEL_* environment variables. Later sources win.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings `serve` cannot run without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if c.TimezoneOffset < 0 || c.TimezoneOffset >= 24*time.Hour {
		return fmt.Errorf("timezone_offset %s out of range", c.TimezoneOffset)
	}
	if c.SchedulerInterval <= 0 {
		return errors.New("scheduler_interval must be positive")
	}
	if (c.VAPIDPublicKey == "") != (c.VAPIDPrivateKey == "") {
		return errors.New("vapid_public_key and vapid_private_key must be set together")
	}
	return nil
}

// PushEnabled reports whether VAPID keys are configured.
func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// AvatarsEnabled reports whether object storage is configured.
func (c *Config) AvatarsEnabled() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
