package core

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by LoadConfig and ApplyEnv.
const (
	EnvAPIKey     = "CBPRO_API_KEY"
	EnvAPISecret  = "CBPRO_API_SECRET"
	EnvPassphrase = "CBPRO_API_PASSPHRASE"
	EnvSandbox    = "CBPRO_SANDBOX"
)

// Credentials holds API authentication credentials for an exchange.
type Credentials struct {
	// APIKey is the public API key identifier.
	APIKey string `json:"api_key" yaml:"api_key" validate:"required"`
	// SecretKey is the base64 encoded secret used for signing requests.
	SecretKey string `json:"secret_key" yaml:"secret_key" validate:"required,base64"`
	// Passphrase is chosen by the user when the key is created.
	Passphrase string `json:"passphrase,omitempty" yaml:"passphrase" validate:"required"`
}

// Config contains all configuration options for an exchange client.
type Config struct {
	Exchange    string       `json:"exchange" yaml:"exchange" validate:"required"`
	Sandbox     bool         `json:"sandbox" yaml:"sandbox"`
	BaseURL     string       `json:"base_url,omitempty" yaml:"base_url" validate:"omitempty,url"`
	Credentials *Credentials `json:"credentials,omitempty" yaml:"credentials" validate:"omitempty"`

	// Timeout is the maximum duration for HTTP requests.
	Timeout time.Duration `json:"timeout" yaml:"timeout" validate:"min=1ms"`
	// MaxRetries is handed to the HTTP layer; the client itself never retries.
	MaxRetries   int           `json:"max_retries" yaml:"max_retries" validate:"min=0"`
	RetryWaitMin time.Duration `json:"retry_wait_min" yaml:"retry_wait_min" validate:"min=0"`
	RetryWaitMax time.Duration `json:"retry_wait_max" yaml:"retry_wait_max" validate:"min=0"`

	RateLimitRequests int           `json:"rate_limit_requests" yaml:"rate_limit_requests" validate:"min=1"`
	RateLimitPeriod   time.Duration `json:"rate_limit_period" yaml:"rate_limit_period" validate:"min=1ms"`

	LogLevel string `json:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config initialized with defaults for the specified exchange.
// Default values: 10s timeout, no retries, 5 private requests per second.
func DefaultConfig(exchange string) *Config {
	return &Config{
		Exchange:     exchange,
		Sandbox:      false,
		Timeout:      10 * time.Second,
		MaxRetries:   0,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 1 * time.Second,

		RateLimitRequests: 5,
		RateLimitPeriod:   time.Second,

		LogLevel: "info",
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig and then
// applies credential overrides from the environment.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	config := DefaultConfig("coinbase")
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return config, nil
}

// ApplyEnv overrides credentials and sandbox mode from CBPRO_* variables.
// Unset variables leave the current values untouched.
func (c *Config) ApplyEnv() *Config {
	key, secret, pass := os.Getenv(EnvAPIKey), os.Getenv(EnvAPISecret), os.Getenv(EnvPassphrase)
	if key != "" || secret != "" || pass != "" {
		if c.Credentials == nil {
			c.Credentials = &Credentials{}
		}
		if key != "" {
			c.Credentials.APIKey = key
		}
		if secret != "" {
			c.Credentials.SecretKey = secret
		}
		if pass != "" {
			c.Credentials.Passphrase = pass
		}
	}
	switch os.Getenv(EnvSandbox) {
	case "1", "true":
		c.Sandbox = true
	case "0", "false":
		c.Sandbox = false
	}
	return c
}

var validate = validator.New()

func (c *Config) Validate() error {
	return validate.Struct(c)
}

// NewLogger returns a timestamped zerolog logger writing to w at level.
// An empty or unknown level falls back to info.
func NewLogger(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Logger is NewLogger at the configured level, tagged with the exchange name.
func (c *Config) Logger(w io.Writer) zerolog.Logger {
	return NewLogger(c.LogLevel, w).With().Str("exchange", c.Exchange).Logger()
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithSandbox enables or disables sandbox mode and returns the config for chaining.
func (c *Config) WithSandbox(sandbox bool) *Config {
	c.Sandbox = sandbox
	return c
}

// WithBaseURL overrides the environment's base URL.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRateLimit sets the rate limiting parameters and returns the config for chaining.
func (c *Config) WithRateLimit(requests int, period time.Duration) *Config {
	c.RateLimitRequests = requests
	c.RateLimitPeriod = period
	return c
}
