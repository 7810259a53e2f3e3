package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults for everything that has a sensible one. Required settings
	// without defaults (database URL, JWT secret, SMTP, S3) must come from
	// the environment.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.rate_limit_per_minute", 120)
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 10080)
	v.SetDefault("auth.otp_validity_seconds", 600)
	v.SetDefault("auth.bcrypt_cost", 0)
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("storage.presign_expiry_minutes", 60)
	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.stuck_task_age_minutes", 30)
	v.SetDefault("task.scheduler_interval_seconds", 30)
	v.SetDefault("task.delivery_max_attempts", 3)
	v.SetDefault("task.delivery_retry_delay_seconds", 120)

	// Optional config file in the working directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables: CAPSULE_SERVER_PORT -> server.port
	v.SetEnvPrefix("CAPSULE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Viper only sees env vars for keys it already knows about, so bind
	// every key explicitly.
	for _, key := range []string{
		"server.port", "server.log_level", "server.base_url", "server.rate_limit_per_minute",
		"database.url",
		"auth.jwt_secret", "auth.token_lifetime_minutes", "auth.refresh_token_lifetime_minutes",
		"auth.otp_validity_seconds", "auth.bcrypt_cost",
		"email.smtp_host", "email.smtp_port", "email.smtp_username", "email.smtp_password",
		"email.from_address",
		"storage.s3_bucket", "storage.s3_region", "storage.access_key_id",
		"storage.secret_access_key", "storage.endpoint", "storage.presign_expiry_minutes",
		"google.client_id",
		"task.worker_count", "task.queue_size", "task.stuck_task_age_minutes",
		"task.scheduler_interval_seconds", "task.delivery_max_attempts",
		"task.delivery_retry_delay_seconds",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
