// Package config loads process configuration from a .env file, an optional
// TOML file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/papercomputeco/claudeapi/pkg/gateway"
	"github.com/papercomputeco/claudeapi/pkg/models"
)

const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 8000
)

// Config is the resolved configuration shared by the HTTP and tool servers.
type Config struct {
	AnthropicAPIKey  string
	AnthropicBaseURL string
	Host             string
	Port             int
	RequestTimeout   time.Duration

	// DefaultModel and Models override the builtin catalog when Models is non-empty.
	DefaultModel string
	Models       map[string]string
}

// Error is a configuration problem that must stop the process before it serves.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// fileConfig mirrors the TOML file layout.
type fileConfig struct {
	Host             string            `toml:"host"`
	Port             int               `toml:"port"`
	AnthropicBaseURL string            `toml:"anthropic_base_url"`
	RequestTimeout   string            `toml:"request_timeout"`
	DefaultModel     string            `toml:"default_model"`
	Models           map[string]string `toml:"models"`
}

// Load resolves the configuration. path names an optional TOML file; empty
// skips it. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &Error{Msg: "could not parse .env file", Err: err}
	}

	cfg := &Config{
		Host:           DefaultHost,
		Port:           DefaultPort,
		RequestTimeout: gateway.DefaultTimeout,
	}

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return &Error{Msg: fmt.Sprintf("could not read config file %s", path), Err: err}
	}

	if fc.Host != "" {
		c.Host = fc.Host
	}
	if fc.Port != 0 {
		c.Port = fc.Port
	}
	if fc.AnthropicBaseURL != "" {
		c.AnthropicBaseURL = fc.AnthropicBaseURL
	}
	if fc.RequestTimeout != "" {
		d, err := time.ParseDuration(fc.RequestTimeout)
		if err != nil {
			return &Error{Msg: "invalid request_timeout in config file", Err: err}
		}
		c.RequestTimeout = d
	}
	c.DefaultModel = fc.DefaultModel
	c.Models = fc.Models
	return nil
}

func (c *Config) applyEnv() error {
	c.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")

	if v := os.Getenv("ANTHROPIC_BASE_URL"); v != "" {
		c.AnthropicBaseURL = v
	}
	if v := os.Getenv("API_SERVER_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("API_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return &Error{Msg: fmt.Sprintf("invalid API_SERVER_PORT %q", v), Err: err}
		}
		c.Port = port
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &Error{Msg: fmt.Sprintf("invalid REQUEST_TIMEOUT %q", v), Err: err}
		}
		c.RequestTimeout = d
	}
	return nil
}

// Validate checks that the configuration can be served.
func (c *Config) Validate() error {
	if c.AnthropicAPIKey == "" {
		return &Error{Msg: "missing required environment variable: ANTHROPIC_API_KEY"}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &Error{Msg: fmt.Sprintf("port %d out of range", c.Port)}
	}
	if c.RequestTimeout <= 0 {
		return &Error{Msg: "request timeout must be positive"}
	}
	if _, err := c.Catalog(); err != nil {
		return &Error{Msg: "invalid model catalog", Err: err}
	}
	return nil
}

// Catalog builds the model catalog: the configured one if any, otherwise the
// builtin catalog.
func (c *Config) Catalog() (*models.Catalog, error) {
	if len(c.Models) == 0 {
		if c.DefaultModel == "" {
			return models.NewBuiltinCatalog(), nil
		}
		return models.NewCatalog(models.Builtin(), c.DefaultModel)
	}

	descriptors := make([]models.Descriptor, 0, len(c.Models))
	for id, name := range c.Models {
		descriptors = append(descriptors, models.Descriptor{ID: id, DisplayName: name})
	}
	return models.NewCatalog(descriptors, c.DefaultModel)
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Gateway returns the completion gateway configuration.
func (c *Config) Gateway() gateway.Config {
	return gateway.Config{
		APIKey:  c.AnthropicAPIKey,
		BaseURL: c.AnthropicBaseURL,
		Timeout: c.RequestTimeout,
	}
}
