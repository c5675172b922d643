package events

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime options sourced from the environment.
type Config struct {
	Port            int    `env:"PORT" envDefault:"5000"`
	DSN             string `env:"DATABASE_DSN" envDefault:"file:events.db?cache=shared&_pragma=foreign_keys(1)"`
	SigningKey      string `env:"JWT_SECRET,required"`
	TokenExpiration int    `env:"TOKEN_EXPIRATION_HOURS" envDefault:"24"`
	Issuer          string `env:"TOKEN_ISSUER" envDefault:"go-events"`
	AllowedOrigin   string `env:"ALLOWED_ORIGIN" envDefault:"*"`
	Debug           bool   `env:"DEBUG" envDefault:"false"`

	SMTP SMTPConfig `envPrefix:"SMTP_"`
}

// LoadConfig parses the environment into a Config.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment config: %w", err)
	}

	if cfg.TokenExpiration <= 0 {
		cfg.TokenExpiration = 24
	}

	return cfg, nil
}

// Addr is the listen address derived from the configured port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
