package reconciler

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/value"
)

// options configures an Engine.
type options struct {
	codec  *value.Codec
	logger *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		codec:  value.NewCodec(nil),
		logger: logging.Default(),
	}
}

// Option is a function that configures an Engine.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns engine options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithCodec sets the value codec, which carries the custom vocabularies.
func WithCodec(codec *value.Codec) Option {
	return func(o *options) error {
		if codec == nil {
			return &errors.ValidationError{
				Field:   "codec",
				Message: "cannot be nil",
			}
		}
		o.codec = codec
		return nil
	}
}

// WithLogger sets the logger entries are traced to at debug level.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{
				Field:   "logger",
				Message: "cannot be nil",
			}
		}
		o.logger = logger
		return nil
	}
}
