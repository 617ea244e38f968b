package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/motoconnect/auth-service/internal/core/domain"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT      JWTConfig
	Password PasswordConfig
	Login    LoginConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

// JWTConfig must match the settings of every service that validates tokens.
type JWTConfig struct {
	Secret   string        `env:"JWT_SECRET"`
	Issuer   string        `env:"JWT_ISSUER,   default=motoconnect"`
	Audience string        `env:"JWT_AUDIENCE, default=motoconnect-api"`
	TTL      time.Duration `env:"JWT_TTL,      default=120m"`
}

type PasswordConfig struct {
	Iterations int `env:"PASSWORD_ITERATIONS, default=100000"`
	Workers    int `env:"HASH_WORKERS,        default=0"`
}

type LoginConfig struct {
	MaxFailures int           `env:"LOGIN_MAX_FAILURES, default=5"`
	Lockout     time.Duration `env:"LOGIN_LOCKOUT,      default=15m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=motoconnect_auth"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig and
// validates it.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service must not start with. There is no
// fallback signing secret.
func (c *Config) Validate() error {
	switch {
	case c.JWT.Secret == "":
		return fmt.Errorf("config: JWT_SECRET: %w", domain.ErrMissingSecret)
	case len(c.JWT.Secret) < domain.MinSecretLength:
		return fmt.Errorf("config: JWT_SECRET: %w", domain.ErrWeakSecret)
	case c.JWT.TTL <= 0:
		return fmt.Errorf("config: JWT_TTL must be positive")
	case c.Password.Iterations <= 0:
		return fmt.Errorf("config: PASSWORD_ITERATIONS must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
