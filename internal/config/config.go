package config

import (
	"bytes"
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

func (s S3Config) Enabled() bool {
	return s.Bucket != "" && s.Endpoint != ""
}

type Config struct {
	Env        string
	ServerAddr string
	LogLevel   string

	DBDriver    string
	DatabaseURL string
	RedisURL    string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte

	KafkaBrokers []string
	S3           S3Config

	AuthRateLimit int
	CookieSecure  bool
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

var ErrSameSecrets = errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")

// Load reads the environment, optionally seeded from a .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		Env:        EnvDefault("APP_ENV", "development"),
		ServerAddr: EnvDefault("SERVER_ADDR", ":8080"),
		LogLevel:   EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    EnvDefault("DB_DRIVER", "pgx"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTAccessSecret:  []byte(os.Getenv("JWT_ACCESS_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    EnvDefault("S3_REGION", "us-east-1"),
			Bucket:    os.Getenv("S3_BUCKET"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			PublicURL: os.Getenv("S3_PUBLIC_URL"),
		},

		AuthRateLimit: EnvIntDefault("AUTH_RATE_LIMIT", 5),
	}
	cfg.CookieSecure = EnvBoolDefault("COOKIE_SECURE", cfg.Production())

	var missing []string
	MustNonEmpty(&missing, cfg.DatabaseURL, "DATABASE_URL")
	MustNonEmpty(&missing, cfg.RedisURL, "REDIS_URL")
	MustNonEmpty(&missing, string(cfg.JWTAccessSecret), "JWT_ACCESS_SECRET")
	MustNonEmpty(&missing, string(cfg.JWTRefreshSecret), "JWT_REFRESH_SECRET")
	if err := missingError(missing); err != nil {
		return nil, err
	}

	if bytes.Equal(cfg.JWTAccessSecret, cfg.JWTRefreshSecret) {
		return nil, ErrSameSecrets
	}

	return cfg, nil
}
