// Package cli holds the nubd commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zeusync/nub/internal/core/observability/log"
	"github.com/zeusync/nub/internal/server"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Listen     string
}

// NewRootCommand creates the root command for nubd.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "nubd",
		Short: "nubd serves a reactive path-addressed store",
		Long: `nubd keeps a hierarchical store in memory and serves it over HTTP.

Clients read and write values by slash-delimited path and watch paths over a
websocket. Remote resources and pagers can be declared in the config file.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level override (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Listen, "listen", "", "listen address override")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(opts *RootOptions) (server.Config, error) {
	cfg := server.DefaultConfig()
	if opts.ConfigPath != "" {
		f, err := os.Open(opts.ConfigPath)
		if err != nil {
			return server.Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if cfg, err = server.LoadConfig(f); err != nil {
			return server.Config{}, err
		}
	}

	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.LogLevel != "" {
		level, err := log.ParseLevel(opts.LogLevel)
		if err != nil {
			return server.Config{}, err
		}
		cfg.LogLevel = level
	}
	return cfg, cfg.Validate()
}
