package errors

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ValidationErrors is the field-keyed message set returned by resource
// writers. Field order is the order fields were first reported.
type ValidationErrors struct {
	fields   []string
	messages map[string][]string
}

// NewValidationErrors creates an empty ValidationErrors.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{messages: make(map[string][]string)}
}

// Add records a message for a field.
func (v *ValidationErrors) Add(field, message string) {
	if v.messages == nil {
		v.messages = make(map[string][]string)
	}
	if _, ok := v.messages[field]; !ok {
		v.fields = append(v.fields, field)
	}
	v.messages[field] = append(v.messages[field], message)
}

// Merge copies every message of other into v.
func (v *ValidationErrors) Merge(other *ValidationErrors) {
	if other == nil {
		return
	}
	for _, field := range other.fields {
		for _, msg := range other.messages[field] {
			v.Add(field, msg)
		}
	}
}

// Fields returns the reported fields in order.
func (v *ValidationErrors) Fields() []string {
	return append([]string(nil), v.fields...)
}

// Messages returns the messages for a field.
func (v *ValidationErrors) Messages(field string) []string {
	return append([]string(nil), v.messages[field]...)
}

// Len returns the number of fields with messages.
func (v *ValidationErrors) Len() int {
	if v == nil {
		return 0
	}
	return len(v.fields)
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	parts := make([]string, 0, len(v.fields))
	for _, field := range v.fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(v.messages[field], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Is implements errors.Is support
func (v *ValidationErrors) Is(target error) bool {
	return target == ErrInvalidInput
}

// Collector gathers per-item errors from a batch without stopping it.
// It is safe for concurrent use.
type Collector struct {
	mu         sync.Mutex
	errs       map[string][]error
	validation map[string]*ValidationErrors
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		errs:       make(map[string][]error),
		validation: make(map[string]*ValidationErrors),
	}
}

// Add records err for key. ValidationErrors are merged field by field so
// callers can render them next to the reviewed proposal.
func (c *Collector) Add(key string, err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var verrs *ValidationErrors
	if As(err, &verrs) {
		existing, ok := c.validation[key]
		if !ok {
			existing = NewValidationErrors()
			c.validation[key] = existing
		}
		existing.Merge(verrs)
		return
	}
	c.errs[key] = append(c.errs[key], err)
}

// Validation returns the merged validation messages for key, or nil.
func (c *Collector) Validation(key string) *ValidationErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validation[key]
}

// Errors returns the non-validation errors recorded for key.
func (c *Collector) Errors(key string) []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.errs[key]...)
}

// Keys returns every key with at least one recorded error, sorted.
func (c *Collector) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{}, len(c.errs)+len(c.validation))
	for k := range c.errs {
		seen[k] = struct{}{}
	}
	for k := range c.validation {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys with errors.
func (c *Collector) Len() int {
	return len(c.Keys())
}
