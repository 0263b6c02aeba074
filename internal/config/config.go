package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	SessionStoreCookie = "cookie"
	SessionStoreRedis  = "redis"
)

type Config struct {
	Env      string `env:"APP_ENV" env-default:"local"`
	GinMode  string `env:"GIN_MODE" env-default:"debug"`
	Timezone string `env:"APP_TIMEZONE" env-default:"Local"`
	HTTP     HTTPConfig
	Database DatabaseConfig
	Session  SessionConfig
	Redis    RedisConfig
	JWT      JWTConfig
	OpenAI   OpenAIConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:""`
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Addr returns the listen address of the HTTP server.
func (c HTTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

type DatabaseConfig struct {
	Driver     string `env:"DB_DRIVER" env-default:"mysql"`
	Host       string `env:"DB_HOST" env-default:"localhost"`
	Port       string `env:"DB_PORT" env-default:"3306"`
	User       string `env:"DB_USER" env-default:"taskuser"`
	Password   string `env:"DB_PASSWORD" env-default:"taskpassword"`
	Name       string `env:"DB_NAME" env-default:"task_management"`
	SQLitePath string `env:"DB_SQLITE_PATH" env-default:"tasks.db"`
	LogLevel   string `env:"DB_LOG_LEVEL" env-default:"warn"`
}

type SessionConfig struct {
	Store  string `env:"SESSION_STORE" env-default:"cookie"`
	Secret string `env:"SESSION_SECRET" env-default:"default-secret-key-change-me"`
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST" env-default:"localhost"`
	Port     string `env:"REDIS_PORT" env-default:"6379"`
	Password string `env:"REDIS_PASSWORD" env-default:""`
	PoolSize int    `env:"REDIS_POOL_SIZE" env-default:"10"`
}

// Addr returns the host:port of the Redis server.
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

type JWTConfig struct {
	Secret string        `env:"JWT_SECRET" env-default:"default-jwt-secret-change-me"`
	Issuer string        `env:"JWT_ISSUER" env-default:"task-tracker-api"`
	TTL    time.Duration `env:"JWT_TTL" env-default:"168h"`
}

type OpenAIConfig struct {
	APIKey  string `env:"OPENAI_API_KEY" env-default:""`
	BaseURL string `env:"OPENAI_BASE_URL" env-default:""`
	Model   string `env:"OPENAI_MODEL" env-default:"gpt-4o"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values the application cannot start with.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown APP_ENV %q", c.Env)
	}

	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Session.Store {
	case SessionStoreCookie, SessionStoreRedis:
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.Session.Store)
	}

	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWT.TTL)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// Location resolves APP_TIMEZONE, the zone used for calendar-day statistics.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
