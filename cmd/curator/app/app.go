// Package app provides the application context and dependency management
// for the curator CLI. It centralizes configuration, logging and the lazily
// opened store, vocabulary source, batch runner and generator.
package app

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/curator/pkg/batch"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/generator"
	"github.com/agentstation/curator/pkg/payload"
	"github.com/agentstation/curator/pkg/store"
	"github.com/agentstation/curator/pkg/vocab"
)

// App represents the curator application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Lazily initialized
	mu     sync.Mutex
	store  *store.Store
	redis  *vocab.RedisSource
	client generator.Client
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Concurrency returns the configured batch concurrency.
func (a *App) Concurrency() int {
	return a.config.Concurrency
}

// Store returns the file store, opening it on first use.
func (a *App) Store() (*store.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openStore()
}

func (a *App) openStore() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(a.config.DataDir, store.WithLogger(a.logger))
	if err != nil {
		return nil, errors.WrapResource("open", "store", a.config.DataDir, err)
	}
	a.store = s
	return s, nil
}

// Vocabularies returns Redis when redis_url is configured and the store
// otherwise.
func (a *App) Vocabularies(_ context.Context) (vocab.Source, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.config.RedisURL == "" {
		s, err := a.openStore()
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	if a.redis != nil {
		return a.redis, nil
	}
	src, err := vocab.NewRedisSource(a.config.RedisURL)
	if err != nil {
		return nil, errors.WrapResource("connect", "redis", "", err)
	}
	a.redis = src
	return src, nil
}

// Runner returns a batch runner over the store. Options given here are
// applied after the configured ones.
func (a *App) Runner(ctx context.Context, opts ...batch.Option) (*batch.Runner, error) {
	s, err := a.Store()
	if err != nil {
		return nil, err
	}
	vocabs, err := a.Vocabularies(ctx)
	if err != nil {
		return nil, err
	}

	src := batch.Sources{
		Resources: s,
		Lister:    s,
		Proposals: s,
		Templates: s,
		Writer:    s,
	}
	tempDir := a.config.TempDir
	if tempDir == "" {
		tempDir = filepath.Join(s.Root(), "uploads")
	}
	base := []batch.Option{
		batch.WithLogger(a.logger),
		batch.WithConcurrency(a.config.Concurrency),
		batch.WithVocabularies(vocabs),
		batch.WithTempStore(payload.NewFSTempStore(s.FS(), tempDir)),
	}
	return batch.New(src, append(base, opts...)...)
}

// Generator returns a proposal generator backed by Gemini.
func (a *App) Generator(ctx context.Context) (*generator.Generator, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client == nil {
		client, err := generator.NewGeminiClient(ctx, a.config.GeminiAPIKey, a.config.GeminiModel)
		if err != nil {
			return nil, err
		}
		a.client = client
	}
	return generator.New(a.client, generator.WithLogger(a.logger))
}

// Shutdown releases connections opened by the app.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.redis != nil {
		err := a.redis.Close()
		a.redis = nil
		return err
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return &errors.ValidationError{Field: "config", Message: "cannot be nil"}
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
		}
		a.logger = logger
		return nil
	}
}

// WithStore sets a custom store (useful for testing).
func WithStore(s *store.Store) Option {
	return func(a *App) error {
		a.store = s
		return nil
	}
}

// WithClient sets a custom generation client (useful for testing).
func WithClient(client generator.Client) Option {
	return func(a *App) error {
		a.client = client
		return nil
	}
}
