// Package config loads the YAML settings shared by the CLI commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// LogPayload logs every request payload at info level.
	LogPayload bool            `yaml:"logPayload"`
	Errors     ErrorsConfig    `yaml:"errors"`
	Execution  ExecutionConfig `yaml:"execution"`
	Server     ServerConfig    `yaml:"server"`
	Tracing    TracingConfig   `yaml:"tracing"`
	Log        LogConfig       `yaml:"log"`
}

// ErrorsConfig controls which resolver error messages reach clients.
type ErrorsConfig struct {
	DefaultMessage string `yaml:"defaultMessage"`
	// Hide lists Go error types whose messages are replaced by DefaultMessage.
	Hide []string `yaml:"hide"`
	// Show lists panic value types whose messages are passed through.
	Show []string `yaml:"show"`
}

type ExecutionConfig struct {
	MaxConcurrency    int  `yaml:"maxConcurrency"`
	BatchCache        bool `yaml:"batchCache"`
	DocumentCacheSize int  `yaml:"documentCacheSize"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	Pretty       bool          `yaml:"pretty"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxBodyBytes int64         `yaml:"maxBodyBytes"`
}

// TracingConfig configures the OTLP exporter. An empty endpoint disables
// tracing.
type TracingConfig struct {
	Endpoint string `yaml:"endpoint"`
	Service  string `yaml:"service"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Errors: ErrorsConfig{
			DefaultMessage: "Server Error",
			Hide:           []string{},
			Show:           []string{},
		},
		Execution: ExecutionConfig{
			MaxConcurrency:    8,
			BatchCache:        true,
			DocumentCacheSize: 256,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			Timeout:      10 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		Tracing: TracingConfig{Service: "graphbind"},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads the YAML file at path over the defaults. An empty path yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Execution.MaxConcurrency < 0 {
		errs = append(errs, fmt.Errorf("execution.maxConcurrency must not be negative, got %d", c.Execution.MaxConcurrency))
	}
	if c.Execution.DocumentCacheSize < 0 {
		errs = append(errs, fmt.Errorf("execution.documentCacheSize must not be negative, got %d", c.Execution.DocumentCacheSize))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
