package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Images   ImagesConfig   `mapstructure:"images"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	Environment  string        `mapstructure:"environment"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// LoginRatePerMinute limits login attempts per client IP.
	LoginRatePerMinute int `mapstructure:"login_rate_per_minute"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	// UsePathStyle is required by most S3-compatible services (MinIO).
	UsePathStyle bool `mapstructure:"use_path_style"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// ImagesConfig tunes the image staging protocol and the upload endpoint.
type ImagesConfig struct {
	SignedURLTTL      time.Duration `mapstructure:"signed_url_ttl"`
	MaxUploadSize     int64         `mapstructure:"max_upload_size"`
	AllowedTypes      []string      `mapstructure:"allowed_types"`
	CommitConcurrency int           `mapstructure:"commit_concurrency"`
	OperationTimeout  time.Duration `mapstructure:"operation_timeout"`
	RetryMaxElapsed   time.Duration `mapstructure:"retry_max_elapsed"`
}

// SweepConfig controls the periodic removal of abandoned staging batches.
type SweepConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Schedule string        `mapstructure:"schedule"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, s3.bucket_name -> S3_BUCKET_NAME
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// No file is fine, defaults and env vars still apply.
		err = nil
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.login_rate_per_minute", 10)

	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "autodealer")

	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "eu-north-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "autodealer-images")
	v.SetDefault("s3.use_path_style", false)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "12h")

	v.SetDefault("images.signed_url_ttl", "24h")
	v.SetDefault("images.max_upload_size", 10<<20)
	v.SetDefault("images.allowed_types", []string{"image/jpeg", "image/jpg", "image/png", "image/webp"})
	v.SetDefault("images.commit_concurrency", 4)
	v.SetDefault("images.operation_timeout", "15s")
	v.SetDefault("images.retry_max_elapsed", "5s")

	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.schedule", "@every 1h")
	v.SetDefault("sweep.ttl", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.S3.BucketName == "" {
		errs = append(errs, errors.New("s3.bucket_name is required"))
	}
	if c.S3.Region == "" {
		errs = append(errs, errors.New("s3.region is required"))
	}
	if c.Images.CommitConcurrency < 1 {
		errs = append(errs, errors.New("images.commit_concurrency must be at least 1"))
	}
	return errors.Join(errs...)
}
