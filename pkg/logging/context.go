package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey int

const loggerKey contextKey = iota

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// WithField adds a single field to the logger in the context.
func WithField(ctx context.Context, key string, value any) context.Context {
	logger := FromContext(ctx)
	logCtx := addField(logger.With(), key, value)
	newLogger := logCtx.Logger()
	return WithLogger(ctx, &newLogger)
}

// WithResource tags the context logger with the resource being reconciled.
func WithResource(ctx context.Context, resourceID int64) context.Context {
	return WithField(ctx, "resource_id", resourceID)
}

// WithTemplate tags the context logger with the governing template.
func WithTemplate(ctx context.Context, templateID int64) context.Context {
	return WithField(ctx, "template_id", templateID)
}

// WithProposal tags the context logger with a proposal id.
func WithProposal(ctx context.Context, proposalID string) context.Context {
	return WithField(ctx, "proposal_id", proposalID)
}

// WithOperation adds operation context to the logger.
func WithOperation(ctx context.Context, operation string) context.Context {
	return WithField(ctx, "operation", operation)
}
