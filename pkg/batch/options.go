package batch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/payload"
	"github.com/agentstation/curator/pkg/vocab"
)

// options holds runner configuration.
type options struct {
	concurrency  int
	itemTimeout  time.Duration
	validateOnly bool
	registerer   prometheus.Registerer
	vocabs       vocab.Source
	temp         payload.TempStore
	logger       *zerolog.Logger
}

// Option configures a Runner.
type Option func(*options) error

func defaultOptions() *options {
	return &options{
		concurrency: constants.DefaultConcurrency,
		itemTimeout: constants.BatchItemTimeout,
		logger:      logging.Default(),
	}
}

func newOptions(opts ...Option) (*options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithConcurrency bounds the number of items processed at once.
func WithConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 || n > constants.MaxConcurrency {
			return &errors.ValidationError{Field: "concurrency", Value: n, Message: "must be between 1 and 64"}
		}
		o.concurrency = n
		return nil
	}
}

// WithItemTimeout bounds the time a batch spends on one resource.
func WithItemTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return &errors.ValidationError{Field: "item_timeout", Value: d, Message: "must be positive"}
		}
		o.itemTimeout = d
		return nil
	}
}

// WithValidateOnly makes writers validate payloads without persisting them.
func WithValidateOnly(validateOnly bool) Option {
	return func(o *options) error {
		o.validateOnly = validateOnly
		return nil
	}
}

// WithRegisterer registers the runner metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		if reg == nil {
			return &errors.ValidationError{Field: "registerer", Message: "cannot be nil"}
		}
		o.registerer = reg
		return nil
	}
}

// WithVocabularies primes custom vocabulary labels from src before each
// reconciliation.
func WithVocabularies(src vocab.Source) Option {
	return func(o *options) error {
		if src == nil {
			return &errors.ValidationError{Field: "vocabularies", Message: "cannot be nil"}
		}
		o.vocabs = src
		return nil
	}
}

// WithTempStore sets where uploaded media files are looked up.
func WithTempStore(temp payload.TempStore) Option {
	return func(o *options) error {
		if temp == nil {
			return &errors.ValidationError{Field: "temp", Message: "cannot be nil"}
		}
		o.temp = temp
		return nil
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
		}
		o.logger = logger
		return nil
	}
}
