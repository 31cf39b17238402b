// Package config loads Overlord settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/aretw0/overlord/internal/logging"
	"github.com/aretw0/overlord/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultRedisChannel is the channel lifecycle events are published on.
const DefaultRedisChannel = "overlord:events"

// Config holds every setting the CLI can take from a file.
type Config struct {
	Shell        string        `mapstructure:"shell"`
	ShellFlag    string        `mapstructure:"shell_flag"`
	Dir          string        `mapstructure:"dir"`
	Env          []string      `mapstructure:"env"`
	SpawnBackoff time.Duration `mapstructure:"spawn_backoff"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Listen is the address of the HTTP control server. Empty disables it.
	Listen string `mapstructure:"listen"`

	// RedisAddr enables the Redis event publisher when set.
	RedisAddr    string `mapstructure:"redis_addr"`
	RedisChannel string `mapstructure:"redis_channel"`

	// Commands is an inline command list, used when no list is given on the command line.
	Commands []string `mapstructure:"commands"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Shell:        "/bin/sh",
		ShellFlag:    "-c",
		SpawnBackoff: time.Second,
		LogLevel:     "info",
		LogFormat:    string(logging.FormatAuto),
		RedisChannel: DefaultRedisChannel,
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("%w: failed to read settings: %w", domain.ErrConfig, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("%w: failed to parse settings: %w", domain.ErrConfig, err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	if err := decoder.Decode(raw); err != nil {
		return cfg, fmt.Errorf("%w: invalid settings in %s: %w", domain.ErrConfig, path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks the settings that cannot be corrected silently.
func (c Config) Validate() error {
	if c.Shell == "" {
		return fmt.Errorf("%w: shell must not be empty", domain.ErrConfig)
	}
	if c.SpawnBackoff <= 0 {
		return fmt.Errorf("%w: spawn_backoff must be positive, got %s", domain.ErrConfig, c.SpawnBackoff)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	return nil
}
