// Package constants provides shared constants used throughout the curator codebase.
// This includes timeouts, limits, file permissions, reserved proposal keys and
// the data type names understood by the value codec.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// GenerateTimeout is the timeout for a single AI generation call
	GenerateTimeout = 2 * time.Minute

	// BatchItemTimeout bounds the read, reconcile, build and write of one resource
	BatchItemTimeout = 1 * time.Minute

	// RateLimitRetryDelay is the delay before retrying after hitting a rate limit
	RateLimitRetryDelay = 1 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxRateLimitRetries is the maximum number of retries for rate-limited requests
	MaxRateLimitRetries = 3

	// DefaultConcurrency is the number of resources a batch reconciles at once
	DefaultConcurrency = 4

	// MaxConcurrency caps batch concurrency
	MaxConcurrency = 64
)

// Data type names recognized by the value codec and the governance policy.
const (
	DataTypeLiteral  = "literal"
	DataTypeResource = "resource"
	DataTypeURI      = "uri"
	DataTypeHTML     = "html"

	// Prefixes of parameterized data types
	PrefixNumeric      = "numeric:"
	PrefixResource     = "resource:"
	PrefixValueSuggest = "valuesuggest:"
	PrefixCustomVocab  = "customvocab:"
)

// Reserved keys of the proposal tree.
const (
	// KeyTemplate names the template a proposal was captured against
	KeyTemplate = "template"

	// KeyMedia holds child proposals for attached media
	KeyMedia = "media"

	// KeyFile is the single file term of a media proposal
	KeyFile = "file"

	// KeyOriginal and KeyProposed are the two halves of a proposition entry
	KeyOriginal = "original"
	KeyProposed = "proposed"
)

// Path constants
const (
	// DefaultDataPath is the default root of the file store
	DefaultDataPath = "~/.curator"

	// DefaultConfigFile is the default configuration file name in $HOME
	DefaultConfigFile = ".curator"

	// DefaultGeminiModel is the model used by the generate command
	DefaultGeminiModel = "gemini-2.5-flash"
)

// DefaultDataTypes are the data types allowed on a template property that
// declares none.
func DefaultDataTypes() []string {
	return []string{DataTypeLiteral, DataTypeResource, DataTypeURI}
}
