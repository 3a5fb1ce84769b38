package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DB struct {
		MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	}

	Cache struct {
		Enabled bool `env:"CACHE_ENABLED"`
		Size    int  `env:"CACHE_SIZE" envDefault:"128"`
	}

	RabbitMQ struct {
		Enabled       bool          `env:"RABBITMQ_ENABLED"`
		URL           string        `env:"RABBITMQ_URL"`
		Queue         string        `env:"RABBITMQ_QUEUE" envDefault:"schedule.events"`
		RelayInterval time.Duration `env:"RABBITMQ_RELAY_INTERVAL" envDefault:"10s"`
	}
}

func NewConfig() (*Config, error) {
	// .env is optional; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) DebugEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug")
}
