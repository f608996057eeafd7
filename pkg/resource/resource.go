// Package resource describes the live state of a resource as the engine
// sees it: an immutable, ordered snapshot of typed property values, read
// fresh for every reconciliation.
package resource

import (
	"context"
	"slices"

	"github.com/agentstation/curator/pkg/value"
)

// Value is one existing property value.
type Value struct {
	Term     string       `json:"term" yaml:"term"`
	Value    *value.Value `json:"value" yaml:"value"`
	DataType string       `json:"type" yaml:"type"`
	// Position is the index of the value within its term.
	Position int `json:"position" yaml:"position"`
}

// File is the file attached to a media resource.
type File struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// Resource is a stored resource with its values and attached media.
type Resource struct {
	ID         int64       `json:"id" yaml:"id"`
	TemplateID int64       `json:"template_id,omitempty" yaml:"template_id,omitempty"`
	ClassID    int64       `json:"class_id,omitempty" yaml:"class_id,omitempty"`
	Values     []Value     `json:"values" yaml:"values"`
	File       *File       `json:"file,omitempty" yaml:"file,omitempty"`
	Media      []*Resource `json:"media,omitempty" yaml:"media,omitempty"`
}

// Reader returns the existing values of a resource.
type Reader interface {
	Values(ctx context.Context, id int64) ([]Value, error)
}

// Loader returns a stored resource with its media.
type Loader interface {
	Resource(ctx context.Context, id int64) (*Resource, error)
}

// Selector picks resources for a batch. Non-empty fields are ANDed; IDs
// restricts to explicit resources.
type Selector struct {
	IDs         []int64 `json:"ids,omitempty" yaml:"ids,omitempty"`
	TemplateIDs []int64 `json:"template_ids,omitempty" yaml:"template_ids,omitempty"`
	ClassIDs    []int64 `json:"class_ids,omitempty" yaml:"class_ids,omitempty"`
}

// Matches reports whether r is selected.
func (s Selector) Matches(r *Resource) bool {
	if r == nil {
		return false
	}
	if len(s.IDs) > 0 && !slices.Contains(s.IDs, r.ID) {
		return false
	}
	if len(s.TemplateIDs) > 0 && !slices.Contains(s.TemplateIDs, r.TemplateID) {
		return false
	}
	if len(s.ClassIDs) > 0 && !slices.Contains(s.ClassIDs, r.ClassID) {
		return false
	}
	return true
}

// Lister returns the ids of the resources a selector picks, ascending.
type Lister interface {
	Select(ctx context.Context, sel Selector) ([]int64, error)
}

// MediaByID returns the media of r with the given id, or nil.
func (r *Resource) MediaByID(id int64) *Resource {
	if r == nil || id == 0 {
		return nil
	}
	for _, m := range r.Media {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Terms returns the distinct terms of values in encounter order.
func Terms(values []Value) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, v := range values {
		if !seen[v.Term] {
			seen[v.Term] = true
			terms = append(terms, v.Term)
		}
	}
	return terms
}

// ByTerm groups values by term, keeping their order.
func ByTerm(values []Value) map[string][]Value {
	out := make(map[string][]Value)
	for _, v := range values {
		out[v.Term] = append(out[v.Term], v)
	}
	return out
}

// Normalize returns a copy of values with positions renumbered per term in
// slice order.
func Normalize(values []Value) []Value {
	out := make([]Value, len(values))
	next := make(map[string]int)
	for i, v := range values {
		v.Position = next[v.Term]
		next[v.Term]++
		out[i] = v
	}
	return out
}

// Builder assembles value snapshots in tests and generators.
type Builder struct {
	values []Value
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends a value of the given data type to term.
func (b *Builder) Add(term, dataType string, v *value.Value) *Builder {
	b.values = append(b.values, Value{Term: term, Value: v, DataType: dataType})
	return b
}

// Literal appends a literal value.
func (b *Builder) Literal(term, text string) *Builder {
	return b.Add(term, "literal", value.Literal(text))
}

// Resource appends a resource reference.
func (b *Builder) Resource(term string, id int64) *Builder {
	return b.Add(term, "resource", value.Resource(id))
}

// URI appends a uri value.
func (b *Builder) URI(term, uri, label string) *Builder {
	return b.Add(term, "uri", value.URI(uri, label))
}

// Values returns the snapshot with positions assigned.
func (b *Builder) Values() []Value {
	return Normalize(b.values)
}
