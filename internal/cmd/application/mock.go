package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/curator/pkg/batch"
	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/generator"
	"github.com/agentstation/curator/pkg/store"
	"github.com/agentstation/curator/pkg/vocab"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
//
// Example Usage:
//
//	mock := &application.Mock{
//	    StoreFunc: func() (*store.Store, error) {
//	        return testStore, nil
//	    },
//	}
//	cmd := reconcile.NewCommand(mock)
type Mock struct {
	StoreFunc        func() (*store.Store, error)
	VocabulariesFunc func(ctx context.Context) (vocab.Source, error)
	RunnerFunc       func(ctx context.Context, opts ...batch.Option) (*batch.Runner, error)
	GeneratorFunc    func(ctx context.Context) (*generator.Generator, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	ConcurrencyFunc  func() int
}

// Store returns a store using the mock function or nil.
func (m *Mock) Store() (*store.Store, error) {
	if m.StoreFunc != nil {
		return m.StoreFunc()
	}
	return nil, nil
}

// Vocabularies returns a source using the mock function, or the store.
func (m *Mock) Vocabularies(ctx context.Context) (vocab.Source, error) {
	if m.VocabulariesFunc != nil {
		return m.VocabulariesFunc(ctx)
	}
	s, err := m.Store()
	if err != nil || s == nil {
		return nil, err
	}
	return s, nil
}

// Runner returns a runner using the mock function, or one over the store.
func (m *Mock) Runner(ctx context.Context, opts ...batch.Option) (*batch.Runner, error) {
	if m.RunnerFunc != nil {
		return m.RunnerFunc(ctx, opts...)
	}
	s, err := m.Store()
	if err != nil || s == nil {
		return nil, err
	}
	vocabs, err := m.Vocabularies(ctx)
	if err != nil {
		return nil, err
	}
	src := batch.Sources{Resources: s, Lister: s, Proposals: s, Templates: s, Writer: s}
	base := []batch.Option{batch.WithLogger(m.Logger()), batch.WithVocabularies(vocabs)}
	return batch.New(src, append(base, opts...)...)
}

// Generator returns a generator using the mock function or nil.
func (m *Mock) Generator(ctx context.Context) (*generator.Generator, error) {
	if m.GeneratorFunc != nil {
		return m.GeneratorFunc(ctx)
	}
	return nil, nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Concurrency returns the mock concurrency or the default.
func (m *Mock) Concurrency() int {
	if m.ConcurrencyFunc != nil {
		return m.ConcurrencyFunc()
	}
	return constants.DefaultConcurrency
}

// Version returns "dev".
func (m *Mock) Version() string { return "dev" }

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
