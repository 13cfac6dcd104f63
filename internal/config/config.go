package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env          string
	Port         int
	JWTSecret    string
	DatabasePath string
	TokenTTL     time.Duration
	CORSOrigin   string

	Admin   AdminAccount
	Limiter Limiter
}

// AdminAccount is the identity seeded on first boot.
type AdminAccount struct {
	Name     string
	Email    string
	Password string
}

type Limiter struct {
	Enabled bool
	RPS     float64
	Burst   int
}

func (c Config) Development() bool { return c.Env == "development" }

func (c Config) Addr() string { return ":" + strconv.Itoa(c.Port) }

// Load reads an optional .env file, then the process environment.
// Variables already present in the environment win over the file.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Env:          get("APP_ENV", "production"),
		JWTSecret:    getenv("JWT_SECRET"),
		DatabasePath: get("DATABASE_PATH", "./data/moviehub.db"),
		CORSOrigin:   get("CORS_ORIGIN", "*"),
		Admin: AdminAccount{
			Name:     get("ADMIN_NAME", "Admin"),
			Email:    get("ADMIN_EMAIL", "admin@moviehub.com"),
			Password: get("ADMIN_PASSWORD", "admin123"),
		},
	}

	var err error
	if cfg.Port, err = strconv.Atoi(get("PORT", "3000")); err != nil || cfg.Port <= 0 {
		return Config{}, fmt.Errorf("config: invalid PORT %q", getenv("PORT"))
	}
	if cfg.TokenTTL, err = time.ParseDuration(get("TOKEN_TTL", "24h")); err != nil || cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("config: invalid TOKEN_TTL %q", getenv("TOKEN_TTL"))
	}
	if cfg.Limiter.Enabled, err = strconv.ParseBool(get("LIMITER_ENABLED", "true")); err != nil {
		return Config{}, fmt.Errorf("config: invalid LIMITER_ENABLED %q", getenv("LIMITER_ENABLED"))
	}
	if cfg.Limiter.RPS, err = strconv.ParseFloat(get("LIMITER_RPS", "2"), 64); err != nil || cfg.Limiter.RPS <= 0 {
		return Config{}, fmt.Errorf("config: invalid LIMITER_RPS %q", getenv("LIMITER_RPS"))
	}
	if cfg.Limiter.Burst, err = strconv.Atoi(get("LIMITER_BURST", "4")); err != nil || cfg.Limiter.Burst <= 0 {
		return Config{}, fmt.Errorf("config: invalid LIMITER_BURST %q", getenv("LIMITER_BURST"))
	}

	if cfg.JWTSecret == "" {
		if !cfg.Development() {
			return Config{}, errors.New("config: JWT_SECRET is not set")
		}
		cfg.JWTSecret = "development-secret"
	}
	return cfg, nil
}
