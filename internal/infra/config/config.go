package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	DatabaseURL  string
	HTTPAddress  string
	SessionStore string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	AccessSecret    string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	BcryptCost int

	AllowedOrigins   []string
	AllowCredentials bool
}

var envKeys = []string{
	"DATABASE_URL",
	"HTTP_ADDRESS",
	"SESSION_STORE",
	"REDIS_ADDRESS",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"JWT_ACCESS_SECRET",
	"JWT_REFRESH_SECRET",
	"ACCESS_TOKEN_TTL",
	"REFRESH_TOKEN_TTL",
	"BCRYPT_COST",
	"ALLOWED_ORIGINS",
	"ALLOW_CREDENTIALS",
}

// Load reads configuration from the environment. Signing secrets are
// required: a process without them must not start, per-request fallback
// is not an option.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("SESSION_STORE", StorePostgres)
	v.SetDefault("ACCESS_TOKEN_TTL", "10m")
	v.SetDefault("REFRESH_TOKEN_TTL", "1h")
	v.SetDefault("BCRYPT_COST", 10)

	for _, key := range []string{"DATABASE_URL", "JWT_ACCESS_SECRET", "JWT_REFRESH_SECRET"} {
		if v.GetString(key) == "" {
			return nil, fmt.Errorf("required configuration %s is not set", key)
		}
	}

	cfg := &Config{
		DatabaseURL:      v.GetString("DATABASE_URL"),
		HTTPAddress:      v.GetString("HTTP_ADDRESS"),
		SessionStore:     v.GetString("SESSION_STORE"),
		RedisAddress:     v.GetString("REDIS_ADDRESS"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		AccessSecret:     v.GetString("JWT_ACCESS_SECRET"),
		RefreshSecret:    v.GetString("JWT_REFRESH_SECRET"),
		AccessTokenTTL:   v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:  v.GetDuration("REFRESH_TOKEN_TTL"),
		BcryptCost:       v.GetInt("BCRYPT_COST"),
		AllowedOrigins:   v.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials: v.GetBool("ALLOW_CREDENTIALS"),
	}

	switch cfg.SessionStore {
	case StorePostgres:
	case StoreRedis:
		if cfg.RedisAddress == "" {
			return nil, fmt.Errorf("SESSION_STORE=redis requires REDIS_ADDRESS")
		}
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}

	return cfg, nil
}
