package contactbook

import (
	"log/slog"

	"github.com/hupe1980/contactbook/page"
	"github.com/hupe1980/contactbook/validate"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	pageSize         int
	validator        *validate.Validator
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel installs a text logger on stderr with the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector sets the metrics collector.
// If nil is passed, metrics are discarded.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithPageSize sets the number of results per page for List and Search.
// Values <= 0 select page.DefaultSize.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = page.DefaultSize
		}
		o.pageSize = n
	}
}

// WithValidator replaces the validator used by Create and ChangeEmail.
// By default a Validator checks uniqueness against the Book's store.
func WithValidator(v *validate.Validator) Option {
	return func(o *options) {
		o.validator = v
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		pageSize:         page.DefaultSize,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}
