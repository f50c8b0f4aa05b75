package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds every runtime setting of the application.
type Config struct {
	Server struct {
		Port         string `yaml:"port" env:"PORT" env-default:"8080"`
		CookieSecure bool   `yaml:"cookie_secure" env:"COOKIE_SECURE" env-default:"false"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"dsn" env:"DATABASE_DSN" env-default:"socialnet.db"`
	} `yaml:"database"`

	Session struct {
		Secret          string        `yaml:"secret" env:"SESSION_SECRET" env-required:"true"`
		IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SESSION_IDLE_TIMEOUT" env-default:"24h"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" env:"SESSION_CLEANUP_INTERVAL" env-default:"30m"`
	} `yaml:"session"`

	Security struct {
		BcryptCost     int     `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
		LoginRateLimit float64 `yaml:"login_rate_limit_rps" env:"LOGIN_RATE_LIMIT_RPS" env-default:"1"`
		LoginBurst     int     `yaml:"login_rate_limit_burst" env:"LOGIN_RATE_LIMIT_BURST" env-default:"5"`
	} `yaml:"security"`

	Log struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
		Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	} `yaml:"log"`
}

// Load reads the configuration. When path is non-empty it names a YAML or
// .env file; environment variables always override file values.
func Load(path string) (*Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values cleanenv cannot express with tags.
func (c *Config) Validate() error {
	if len(c.Session.Secret) < 16 {
		return fmt.Errorf("config: SESSION_SECRET must be at least 16 characters")
	}
	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("config: SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.Session.CleanupInterval <= 0 {
		return fmt.Errorf("config: SESSION_CLEANUP_INTERVAL must be positive")
	}
	return nil
}

// Addr is the listen address for http.Server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}
