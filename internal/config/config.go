package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env      string
	HTTPPort string
	LogLevel string

	DBDriver    string
	DatabaseDSN string

	JWTSecret    string
	JWTExpiresIn time.Duration

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	CommunityCacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	ImageStore     string
	ImageDir       string
	ImageURLPrefix string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIOPublicURL string

	CORSAllowedOrigins []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRES_IN", "168h")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("COMMUNITY_CACHE_TTL", "5m")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "community-events")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("IMAGE_STORE", "local")
	v.SetDefault("IMAGE_DIR", "assets/community-images")
	v.SetDefault("IMAGE_URL_PREFIX", "/assets/community-images")
	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "community-images")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_PUBLIC_URL", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:4200,http://localhost:3000")
}

// Load reads configuration from the environment and, when configFile is
// non-empty, from that file. Environment variables win over file values.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Env:                v.GetString("APP_ENV"),
		HTTPPort:           v.GetString("HTTP_PORT"),
		LogLevel:           strings.ToLower(v.GetString("LOG_LEVEL")),
		DBDriver:           strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:        v.GetString("DATABASE_DSN"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		KafkaBrokers:       splitCSV(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:         v.GetString("KAFKA_TOPIC"),
		SMTPHost:           v.GetString("SMTP_HOST"),
		SMTPPort:           v.GetInt("SMTP_PORT"),
		SMTPUsername:       v.GetString("SMTP_USERNAME"),
		SMTPPassword:       v.GetString("SMTP_PASSWORD"),
		SMTPFrom:           v.GetString("SMTP_FROM"),
		ImageStore:         strings.ToLower(v.GetString("IMAGE_STORE")),
		ImageDir:           v.GetString("IMAGE_DIR"),
		ImageURLPrefix:     v.GetString("IMAGE_URL_PREFIX"),
		MinIOEndpoint:      v.GetString("MINIO_ENDPOINT"),
		MinIOAccessKey:     v.GetString("MINIO_ACCESS_KEY"),
		MinIOSecretKey:     v.GetString("MINIO_SECRET_KEY"),
		MinIOBucket:        v.GetString("MINIO_BUCKET"),
		MinIOUseSSL:        v.GetBool("MINIO_USE_SSL"),
		MinIOPublicURL:     v.GetString("MINIO_PUBLIC_URL"),
		CORSAllowedOrigins: splitCSV(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	expiresIn, err := time.ParseDuration(v.GetString("JWT_EXPIRES_IN"))
	if err != nil {
		return nil, fmt.Errorf("parse JWT_EXPIRES_IN: %w", err)
	}
	cfg.JWTExpiresIn = expiresIn

	cacheTTL, err := time.ParseDuration(v.GetString("COMMUNITY_CACHE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("parse COMMUNITY_CACHE_TTL: %w", err)
	}
	cfg.CommunityCacheTTL = cacheTTL

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseDSN == "" {
		errs = append(errs, "DATABASE_DSN is required")
	}
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, "DB_DRIVER must be one of mysql, postgres, sqlite")
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, "JWT_SECRET must be at least 16 chars")
	}
	if c.JWTExpiresIn <= 0 {
		errs = append(errs, "JWT_EXPIRES_IN must be positive")
	}
	switch c.ImageStore {
	case "local":
		if c.ImageDir == "" {
			errs = append(errs, "IMAGE_DIR is required when IMAGE_STORE=local")
		}
	case "minio":
		if c.MinIOEndpoint == "" || c.MinIOAccessKey == "" || c.MinIOSecretKey == "" {
			errs = append(errs, "MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when IMAGE_STORE=minio")
		}
	default:
		errs = append(errs, "IMAGE_STORE must be local or minio")
	}
	if c.SMTPHost != "" && c.SMTPFrom == "" {
		errs = append(errs, "SMTP_FROM is required when SMTP_HOST is set")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
