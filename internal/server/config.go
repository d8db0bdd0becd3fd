package server

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/nub/internal/core/filter"
	"github.com/zeusync/nub/internal/core/observability/log"
)

// Config holds server configuration
type Config struct {
	// Network settings
	Listen          string        `yaml:"listen"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Watch settings
	EventBuffer    int           `yaml:"event_buffer"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxMessageSize int64         `yaml:"max_message_size"`

	// Logging
	LogLevel log.Level `yaml:"log_level"`

	// Initial store content, keyed by path.
	Seed    map[string]any `yaml:"seed"`
	Remotes []RemoteConfig `yaml:"remotes"`
	Pagers  []PagerSpec    `yaml:"pagers"`
}

// RemoteConfig mounts a remote resource at startup.
type RemoteConfig struct {
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
	// Load fetches the resource during Start.
	Load bool `yaml:"load"`
}

// PagerSpec pages the list at Source.
type PagerSpec struct {
	Source             string `yaml:"source"`
	filter.PagerConfig `yaml:",inline"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Listen:          "127.0.0.1:8080",
		ShutdownTimeout: 10 * time.Second,
		EventBuffer:     64,
		WriteTimeout:    5 * time.Second,
		MaxMessageSize:  1024 * 1024, // 1MB
		LogLevel:        log.LevelInfo,
	}
}

// LoadConfig reads YAML over DefaultConfig. An empty document yields the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the fields the server cannot run without.
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("%w: listen address is empty", ErrInvalidConfig)
	}
	if c.EventBuffer < 1 {
		return fmt.Errorf("%w: event_buffer must be positive", ErrInvalidConfig)
	}
	for i, rc := range c.Remotes {
		if rc.Path == "" {
			return fmt.Errorf("%w: remotes[%d] has no path", ErrInvalidConfig, i)
		}
		if rc.Load && rc.URL == "" {
			return fmt.Errorf("%w: remotes[%d] loads without url", ErrInvalidConfig, i)
		}
	}
	for i, ps := range c.Pagers {
		if ps.Source == "" {
			return fmt.Errorf("%w: pagers[%d] has no source", ErrInvalidConfig, i)
		}
	}
	return nil
}
