package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Path is the location of the optional yaml config file.
type Path string

type Config struct {
	API    API    `yaml:"api"`
	Store  Store  `yaml:"store"`
	Bridge Bridge `yaml:"bridge"`
	Log    Log    `yaml:"log"`
}

type API struct {
	BaseURL string        `yaml:"base_url" env:"SMARTSPLIT_API_URL"`
	Timeout time.Duration `yaml:"timeout" env:"SMARTSPLIT_API_TIMEOUT"`
}

type Store struct {
	Path string `yaml:"path" env:"SMARTSPLIT_STORE_PATH"`
}

type Bridge struct {
	Port            int           `yaml:"port" env:"SMARTSPLIT_BRIDGE_PORT"`
	SessionLifetime time.Duration `yaml:"session_lifetime" env:"SMARTSPLIT_BRIDGE_SESSION_LIFETIME"`
}

type Log struct {
	Development bool `yaml:"development" env:"SMARTSPLIT_LOG_DEV"`
}

var (
	errEmptyBaseURL = errors.New("api base url is empty")
	errInvalidPort  = errors.New("bridge port must be positive")
)

func defaults() *Config {
	return &Config{
		API: API{
			BaseURL: "http://localhost:8080/api",
			Timeout: 15 * time.Second,
		},
		Store: Store{
			Path: "smartsplit.json",
		},
		Bridge: Bridge{
			Port:            8123,
			SessionLifetime: time.Hour,
		},
		Log: Log{
			Development: true,
		},
	}
}

// New layers the yaml file at path (if any) and then the environment over
// the defaults.
func New(path Path) (*Config, error) {
	cfg := defaults()

	if err := loadFile(string(path), cfg); err != nil {
		return nil, err
	}

	if err := parseEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return errEmptyBaseURL
	}
	if _, err := url.ParseRequestURI(c.API.BaseURL); err != nil {
		return fmt.Errorf("api base url: %w", err)
	}
	if c.Bridge.Port <= 0 {
		return errInvalidPort
	}
	return nil
}
