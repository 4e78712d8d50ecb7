package bqloadbench

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

const defaultConcurrency = 8

// Option configures ClientContext.
type Option interface {
	apply(*ClientContext) error
}

type optionFunc func(*ClientContext) error

func (f optionFunc) apply(cc *ClientContext) error {
	return f(cc)
}

// WithPrettyLogging configures ClientContext to print human friendly logs.
func WithPrettyLogging() Option {
	return optionFunc(func(cc *ClientContext) error {
		cc.logger = cc.logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return nil
	})
}

// WithLogLevel sets the log level, e.g. "debug" or "info".
func WithLogLevel(level string) Option {
	return optionFunc(func(cc *ClientContext) error {
		lv, err := zerolog.ParseLevel(level)
		if err != nil {
			return xerrors.Errorf("failed to parse log level %q: %w", level, err)
		}
		cc.logger = cc.logger.Level(lv)
		return nil
	})
}

// WithLogger replaces the logger entirely.
func WithLogger(l zerolog.Logger) Option {
	return optionFunc(func(cc *ClientContext) error {
		cc.logger = l
		return nil
	})
}

// WithConcurrency limits parallel uploads and object copies.
func WithConcurrency(n int) Option {
	return optionFunc(func(cc *ClientContext) error {
		if n < 1 {
			return xerrors.Errorf("concurrency must be positive: %d", n)
		}
		cc.concurrency = n
		return nil
	})
}

// WithMetrics registers load time histograms to r and observes every sample.
func WithMetrics(r prometheus.Registerer) Option {
	return optionFunc(func(cc *ClientContext) error {
		m, err := newLoadMetrics(r)
		if err != nil {
			return err
		}
		cc.metrics = m
		return nil
	})
}

// WithNotifier sets a notifier receiving the result of each session.
func WithNotifier(n Notifier) Option {
	return optionFunc(func(cc *ClientContext) error {
		cc.notifier = n
		return nil
	})
}

// WithObjectStore replaces the Cloud Storage client.
func WithObjectStore(s ObjectStore) Option {
	return optionFunc(func(cc *ClientContext) error {
		cc.storage = s
		return nil
	})
}

// WithWarehouse replaces the BigQuery client.
func WithWarehouse(w Warehouse) Option {
	return optionFunc(func(cc *ClientContext) error {
		cc.warehouse = w
		return nil
	})
}
