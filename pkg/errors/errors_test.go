package errors_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	pkgerrors "github.com/agentstation/curator/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "template",
			ID:       "3",
		}
		assert.Equal(t, "template with ID 3 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("resource", "12")
		wrapped := fmt.Errorf("loading: %w", base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "dcterms:title",
			Message: "cannot be empty",
		}
		assert.Equal(t, "validation failed for field dcterms:title: cannot be empty", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("", nil, "invalid configuration")
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestPolicyError(t *testing.T) {
	err := pkgerrors.NewPolicyError("Book", "no properties")
	assert.Equal(t, "template Book is not generative: no properties", err.Error())
	assert.True(t, pkgerrors.IsNotGenerative(err))
	assert.True(t, pkgerrors.IsNotGenerative(fmt.Errorf("wrap: %w", err)))

	bare := pkgerrors.NewPolicyError("", "no template")
	assert.Equal(t, "not generative: no template", bare.Error())
}

func TestAPIError(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		err := &pkgerrors.APIError{Provider: "gemini", StatusCode: 429, Message: "slow down"}
		assert.Contains(t, err.Error(), "429")
		assert.True(t, pkgerrors.IsRateLimited(err))
	})

	t.Run("unavailable", func(t *testing.T) {
		err := &pkgerrors.APIError{Provider: "gemini", StatusCode: 503, Message: "down"}
		assert.True(t, errors.Is(err, pkgerrors.ErrProviderUnavailable))
	})

	t.Run("wrap", func(t *testing.T) {
		base := errors.New("connection reset")
		err := pkgerrors.WrapAPI("gemini", 0, base)
		assert.ErrorIs(t, err, base)
		assert.Nil(t, pkgerrors.WrapAPI("gemini", 0, nil))
	})
}

func TestWrapHelpers(t *testing.T) {
	base := errors.New("boom")

	assert.Nil(t, pkgerrors.WrapIO("read", "x", nil))
	assert.Nil(t, pkgerrors.WrapResource("read", "resource", "1", nil))
	assert.Nil(t, pkgerrors.WrapParse("json", "x", nil))

	ioErr := pkgerrors.WrapIO("read", "/tmp/a", base)
	assert.Equal(t, "IO error during read of /tmp/a: boom", ioErr.Error())
	assert.ErrorIs(t, ioErr, base)

	resErr := pkgerrors.WrapResource("write", "resource", "7", base)
	assert.Equal(t, "failed to write resource 7: boom", resErr.Error())

	parseErr := pkgerrors.WrapParse("json", "p.json", base)
	assert.Equal(t, "parse error in json file p.json: boom", parseErr.Error())
}

func TestValidationErrors(t *testing.T) {
	v := pkgerrors.NewValidationErrors()
	v.Add("dcterms:title", "required")
	v.Add("dcterms:subject", "too many values")
	v.Add("dcterms:title", "must be literal")

	assert.Equal(t, 2, v.Len())
	assert.Equal(t, []string{"dcterms:title", "dcterms:subject"}, v.Fields())
	assert.Equal(t, []string{"required", "must be literal"}, v.Messages("dcterms:title"))
	assert.Equal(t, "validation failed: dcterms:title: required; must be literal, dcterms:subject: too many values", v.Error())
	assert.True(t, pkgerrors.IsValidationError(v))

	other := pkgerrors.NewValidationErrors()
	other.Add("dcterms:creator", "unknown resource")
	v.Merge(other)
	v.Merge(nil)
	assert.Equal(t, 3, v.Len())
}

func TestCollector(t *testing.T) {
	c := pkgerrors.NewCollector()
	c.Add("1", nil)
	assert.Equal(t, 0, c.Len())

	first := pkgerrors.NewValidationErrors()
	first.Add("dcterms:title", "required")
	second := pkgerrors.NewValidationErrors()
	second.Add("dcterms:title", "too long")

	c.Add("1", first)
	c.Add("1", fmt.Errorf("write: %w", second))
	c.Add("2", errors.New("network"))

	require.NotNil(t, c.Validation("1"))
	assert.Equal(t, []string{"required", "too long"}, c.Validation("1").Messages("dcterms:title"))
	assert.Len(t, c.Errors("2"), 1)
	assert.Equal(t, []string{"1", "2"}, c.Keys())

	t.Run("concurrent adds", func(t *testing.T) {
		c := pkgerrors.NewCollector()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				c.Add(fmt.Sprintf("%d", i%5), errors.New("x"))
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 5, c.Len())
		assert.Len(t, c.Errors("0"), 10)
	})
}
