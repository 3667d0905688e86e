package source

import (
	"log/slog"

	"trialguard/internal/infrastructure"
)

type options struct {
	logger *slog.Logger
}

// Option configures a source.
type Option func(*options)

// WithLogger sets the logger used to report swallowed failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(component string, opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = infrastructure.GetLogger()
	}
	o.logger = infrastructure.WithComponent(o.logger, component)
	return o
}
