package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Email    EmailConfig    `mapstructure:"email" validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage" validate:"required"`
	Google   GoogleConfig   `mapstructure:"google"`
	Task     TaskConfig     `mapstructure:"task"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// BaseURL is the externally reachable root of the API, used to build
	// the secure capsule links embedded in recipient emails.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// RateLimitPerMinute caps requests per client IP on the public API.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// TokenLifetimeMinutes is the validity period of access tokens.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lte=1440"`
	// RefreshTokenLifetimeMinutes is the validity period of refresh tokens.
	RefreshTokenLifetimeMinutes int `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0,lte=43200"`
	// OTPValiditySeconds is how long a one-time passcode stays usable
	// after it is issued.
	OTPValiditySeconds int `mapstructure:"otp_validity_seconds" validate:"required,gt=0,lte=3600"`
	// BcryptCost controls the work factor for password hashing. Zero
	// means the bcrypt default.
	BcryptCost int `mapstructure:"bcrypt_cost" validate:"gte=0,lte=31"`
}

// EmailConfig contains SMTP settings for outbound mail.
type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host" validate:"required"`
	SMTPPort     int    `mapstructure:"smtp_port" validate:"required,gt=0,lt=65536"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address" validate:"required,email"`
}

// StorageConfig contains object storage settings for uploaded media.
type StorageConfig struct {
	S3Bucket        string `mapstructure:"s3_bucket" validate:"required"`
	S3Region        string `mapstructure:"s3_region" validate:"required"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string `mapstructure:"endpoint"`
	// PresignExpiryMinutes is the validity of presigned media URLs.
	PresignExpiryMinutes int `mapstructure:"presign_expiry_minutes" validate:"gt=0,lte=10080"`
}

// GoogleConfig contains Google sign-in settings. With an empty ClientID the
// verifier refuses to validate tokens and the login endpoint reports the
// feature unavailable.
type GoogleConfig struct {
	ClientID string `mapstructure:"client_id"`
}

// TaskConfig contains background task processing settings.
type TaskConfig struct {
	WorkerCount  int `mapstructure:"worker_count" validate:"gte=1,lte=100"`
	QueueSize    int `mapstructure:"queue_size" validate:"gte=1,lte=10000"`
	StuckTaskAge int `mapstructure:"stuck_task_age_minutes" validate:"gte=1"`
	// SchedulerIntervalSeconds is how often the delivery scheduler polls
	// for due capsules.
	SchedulerIntervalSeconds int `mapstructure:"scheduler_interval_seconds" validate:"gte=1"`
	// DeliveryMaxAttempts caps retries for a failing capsule delivery.
	DeliveryMaxAttempts int `mapstructure:"delivery_max_attempts" validate:"gte=1,lte=10"`
	// DeliveryRetryDelaySeconds is the pause between delivery attempts.
	DeliveryRetryDelaySeconds int `mapstructure:"delivery_retry_delay_seconds" validate:"gte=1"`
}
