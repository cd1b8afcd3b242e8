// Package config provides configuration management for codeintake using
// Viper for flexible loading from files, environment variables, and
// command-line flags.
//
// Configuration sources are layered with the usual precedence: flags over
// CODEINTAKE_-prefixed environment variables over the .codeintake.yml
// config file over built-in defaults.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/codeintake/codeintake/internal/errors"
)

type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace" mapstructure:"workspace"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Watch     WatchConfig     `yaml:"watch" mapstructure:"watch"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

type WorkspaceConfig struct {
	// Root is the workspace boundary; file access outside it is refused.
	Root string `yaml:"root" mapstructure:"root"`
	// AllowInternalSymlinks tolerates symlinks whose targets stay inside
	// the workspace.
	AllowInternalSymlinks bool `yaml:"allow_internal_symlinks" mapstructure:"allow_internal_symlinks"`
	// EnforceBoundary validates every read against the root.
	EnforceBoundary bool `yaml:"enforce_boundary" mapstructure:"enforce_boundary"`
}

type PipelineConfig struct {
	// Workers is the read stage thread count.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// QueueSize bounds the channels between pipeline stages.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size"`
}

type DiscoveryConfig struct {
	Extensions    []string `yaml:"extensions" mapstructure:"extensions"`
	IncludeHidden bool     `yaml:"include_hidden" mapstructure:"include_hidden"`
	NoIgnore      bool     `yaml:"no_ignore" mapstructure:"no_ignore"`
}

type WatchConfig struct {
	// DebounceMS is the change-detector debounce window in milliseconds.
	DebounceMS int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load builds a Config from viper's current state, applying defaults and
// validating the result.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, err.Error())
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Workspace.Root == "" {
		config.Workspace.Root = "."
	}
	if config.Pipeline.Workers == 0 {
		config.Pipeline.Workers = runtime.NumCPU()
	}
	if config.Pipeline.QueueSize == 0 {
		config.Pipeline.QueueSize = 128
	}
	if config.Watch.DebounceMS == 0 {
		config.Watch.DebounceMS = 300
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
}

// Validate checks field ranges and formats. Configuration errors are
// fatal, never retried.
func (c *Config) Validate() error {
	if c.Pipeline.Workers < 1 {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("pipeline.workers must be at least 1, got %d", c.Pipeline.Workers))
	}
	if c.Pipeline.QueueSize < 1 {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("pipeline.queue_size must be at least 1, got %d", c.Pipeline.QueueSize))
	}
	if c.Watch.DebounceMS < 0 {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("watch.debounce_ms must not be negative, got %d", c.Watch.DebounceMS))
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("logging.format must be text or json, got %q", c.Logging.Format))
	}

	for _, ext := range c.Discovery.Extensions {
		if ext == "" || ext[0] != '.' {
			return errors.NewConfigError(errors.ErrCodeConfigInvalid,
				fmt.Sprintf("discovery.extensions entries must start with a dot, got %q", ext))
		}
	}

	return nil
}

// AbsRoot resolves the configured workspace root to an absolute path.
func (c *Config) AbsRoot() (string, error) {
	abs, err := filepath.Abs(c.Workspace.Root)
	if err != nil {
		return "", errors.ErrWorkspaceRoot(c.Workspace.Root, err)
	}
	return abs, nil
}
