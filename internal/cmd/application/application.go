// Package application defines what commands need from the curator app, so
// commands can be tested against a mock.
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/curator/pkg/batch"
	"github.com/agentstation/curator/pkg/generator"
	"github.com/agentstation/curator/pkg/store"
	"github.com/agentstation/curator/pkg/vocab"
)

// Application is implemented by cmd/curator/app.App.
type Application interface {
	// Store returns the file store, opening it on first use.
	Store() (*store.Store, error)

	// Vocabularies returns the custom vocabulary source: Redis when a
	// redis_url is configured, the file store otherwise.
	Vocabularies(ctx context.Context) (vocab.Source, error)

	// Runner returns a batch runner over the store.
	Runner(ctx context.Context, opts ...batch.Option) (*batch.Runner, error)

	// Generator returns a proposal generator backed by the configured model.
	Generator(ctx context.Context) (*generator.Generator, error)

	// Logger returns the configured logger.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format.
	OutputFormat() string

	// Concurrency returns the configured batch concurrency.
	Concurrency() int

	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}
