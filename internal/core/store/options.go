package store

import (
	"github.com/zeusync/nub/internal/core/observability/log"
	"github.com/zeusync/nub/internal/core/widget"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for observer faults.
func WithLogger(l log.Log) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFormatter registers a named formatter for widget views.
func WithFormatter(name string, f widget.Formatter) Option {
	return func(s *Store) {
		s.formatters[name] = f
	}
}

// WithFormatOptions sets the formatting options every widget view starts from.
func WithFormatOptions(opts widget.Options) Option {
	return func(s *Store) {
		for k, v := range opts {
			s.formatOptions[k] = v
		}
	}
}

// ViewOption configures a single View registration.
type ViewOption func(*viewConfig)

type viewConfig struct {
	context   any
	noInit    bool
	formatter string
	options   widget.Options
}

// WithContext resolves a relative reference against ctx.
func WithContext(ctx any) ViewOption {
	return func(c *viewConfig) { c.context = ctx }
}

// WithoutInit skips the initial invocation of the observer.
func WithoutInit() ViewOption {
	return func(c *viewConfig) { c.noInit = true }
}

// WithFormat selects a registered formatter and its options for a widget view.
func WithFormat(name string, opts widget.Options) ViewOption {
	return func(c *viewConfig) {
		c.formatter = name
		c.options = opts
	}
}
