// Package config handles YAML config file loading for sift validate.
package config

import (
	"fmt"
	"time"

	"github.com/pithecene-io/sift/stream"
	"github.com/pithecene-io/sift/types"
)

// Config represents a sift.yaml configuration file.
// All values are optional and act as defaults for sift validate flags.
// CLI flags always override config values.
type Config struct {
	Mode    string       `yaml:"mode"` // array or lines
	Schema  string       `yaml:"schema"`
	OnError string       `yaml:"on_error"` // fail, skip or collect
	Limits  LimitsConfig `yaml:"limits"`
	Input   InputConfig  `yaml:"input"`
	Output  OutputConfig `yaml:"output"`
}

// LimitsConfig holds stream limit defaults from the config file.
type LimitsConfig struct {
	MaxItems      int             `yaml:"max_items"`
	MaxBytes      stream.ByteSize `yaml:"max_bytes"`
	Timeout       stream.Duration `yaml:"timeout"`
	HighWaterMark int             `yaml:"high_water_mark"`
}

// InputConfig holds input defaults from the config file.
type InputConfig struct {
	// Path is a local file path, or "-" for stdin.
	Path string `yaml:"path"`
	// S3 is an s3://bucket/key URL; takes precedence over Path.
	S3          string `yaml:"s3"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
	// Gzip enables transparent decompression of the input.
	Gzip bool `yaml:"gzip"`
}

// OutputConfig holds sink defaults from the config file.
type OutputConfig struct {
	// Path is a local file path, or "-" for stdout.
	Path string `yaml:"path"`
	// Format is jsonl or frame (default jsonl).
	Format string `yaml:"format"`
	// BatchSize batches writes to the primary sink when > 0.
	BatchSize int           `yaml:"batch_size"`
	Redis     RedisConfig   `yaml:"redis,omitempty"`
	Webhook   WebhookConfig `yaml:"webhook,omitempty"`
}

// RedisConfig holds Redis sink defaults from the config file.
type RedisConfig struct {
	URL     string   `yaml:"url"`
	Channel string   `yaml:"channel,omitempty"`
	Timeout Duration `yaml:"timeout,omitempty"`
	Retries *int     `yaml:"retries,omitempty"`
}

// WebhookConfig holds webhook sink defaults from the config file.
type WebhookConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Validate checks enum-valued fields. Zero values are valid because
// every field is optional.
func (c *Config) Validate() error {
	switch c.Mode {
	case "", "array", "lines":
	default:
		return fmt.Errorf("invalid mode %q: expected array or lines", c.Mode)
	}
	if c.OnError != "" {
		if _, err := types.ParseErrorMode(c.OnError); err != nil {
			return err
		}
	}
	switch c.Output.Format {
	case "", "jsonl", "frame":
	default:
		return fmt.Errorf("invalid output format %q: expected jsonl or frame", c.Output.Format)
	}
	return nil
}

// StreamOptions converts the limit defaults into stream options.
func (c *Config) StreamOptions() stream.Options {
	return stream.Options{
		MaxItems:      c.Limits.MaxItems,
		MaxBytes:      c.Limits.MaxBytes,
		Timeout:       c.Limits.Timeout,
		ErrorMode:     types.ErrorMode(c.OnError),
		HighWaterMark: c.Limits.HighWaterMark,
	}
}
