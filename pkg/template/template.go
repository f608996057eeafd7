// Package template models resource templates: the ordered list of
// properties a resource class is described with, the data types each
// property accepts and the editing permissions a proposal gets.
package template

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/agentstation/curator/pkg/errors"
)

// Mode selects which terms a permission applies to.
type Mode string

// Permission modes.
const (
	// ModeAll grants the permission on every declared property.
	ModeAll Mode = "all"
	// ModeWhitelist grants it on the listed terms only.
	ModeWhitelist Mode = "whitelist"
	// ModeBlacklist grants it on every declared property except the listed terms.
	ModeBlacklist Mode = "blacklist"
	// ModeNone grants it on nothing.
	ModeNone Mode = "none"
)

// Valid reports whether m is a known mode. The empty mode means ModeAll.
func (m Mode) Valid() bool {
	switch m {
	case "", ModeAll, ModeWhitelist, ModeBlacklist, ModeNone:
		return true
	}
	return false
}

// Template is a resource template.
type Template struct {
	ID         int64      `json:"id" yaml:"id"`
	Label      string     `json:"label" yaml:"label"`
	ClassID    int64      `json:"class_id,omitempty" yaml:"class_id,omitempty"`
	Properties []Property `json:"properties" yaml:"properties"`
	Settings   Settings   `json:"settings" yaml:"settings"`
}

// Property is one declared property of a template.
type Property struct {
	Term      string   `json:"term" yaml:"term"`
	Label     string   `json:"label,omitempty" yaml:"label,omitempty"`
	DataTypes []string `json:"data_types,omitempty" yaml:"data_types,omitempty"`
	Required  bool     `json:"required,omitempty" yaml:"required,omitempty"`
	MinValues int      `json:"min_values,omitempty" yaml:"min_values,omitempty"`
	MaxValues int      `json:"max_values,omitempty" yaml:"max_values,omitempty"`
	Language  string   `json:"language,omitempty" yaml:"language,omitempty"`
}

// Settings holds the generative settings of a template.
type Settings struct {
	// MediaTemplates references the templates attached media may use.
	MediaTemplates []string   `json:"media_templates,omitempty" yaml:"media_templates,omitempty"`
	Editable       Permission `json:"editable,omitempty" yaml:"editable,omitempty"`
	Fillable       Permission `json:"fillable,omitempty" yaml:"fillable,omitempty"`
}

// Permission is a mode with the term patterns it refers to.
type Permission struct {
	Mode  Mode     `json:"mode,omitempty" yaml:"mode,omitempty"`
	Terms []string `json:"terms,omitempty" yaml:"terms,omitempty"`
}

// Property returns the declared property for term.
func (t *Template) Property(term string) (*Property, bool) {
	for i := range t.Properties {
		if t.Properties[i].Term == term {
			return &t.Properties[i], true
		}
	}
	return nil, false
}

// Terms returns the declared terms in order.
func (t *Template) Terms() []string {
	terms := make([]string, 0, len(t.Properties))
	for _, p := range t.Properties {
		terms = append(terms, p.Term)
	}
	return terms
}

// DataTypes returns every data type declared by any property.
func (t *Template) DataTypes() []string {
	var types []string
	for _, p := range t.Properties {
		types = append(types, p.DataTypes...)
	}
	return types
}

// Validate checks the template for duplicate terms, unknown modes and
// impossible value counts.
func (t *Template) Validate() error {
	verrs := errors.NewValidationErrors()
	seen := make(map[string]bool)
	for _, p := range t.Properties {
		if p.Term == "" {
			verrs.Add("properties", "property without term")
			continue
		}
		if seen[p.Term] {
			verrs.Add(p.Term, "declared twice")
		}
		seen[p.Term] = true
		if p.MaxValues > 0 && p.MinValues > p.MaxValues {
			verrs.Add(p.Term, fmt.Sprintf("min_values %d exceeds max_values %d", p.MinValues, p.MaxValues))
		}
	}
	if !t.Settings.Editable.Mode.Valid() {
		verrs.Add("settings.editable.mode", fmt.Sprintf("unknown mode %q", t.Settings.Editable.Mode))
	}
	if !t.Settings.Fillable.Mode.Valid() {
		verrs.Add("settings.fillable.mode", fmt.Sprintf("unknown mode %q", t.Settings.Fillable.Mode))
	}
	if verrs.Len() > 0 {
		return verrs
	}
	return nil
}

// Ref returns the reference used to look t up.
func (t *Template) Ref() string {
	return strconv.FormatInt(t.ID, 10)
}

// Lookup finds templates by numeric id or label.
type Lookup interface {
	Template(ctx context.Context, ref string) (*Template, error)
}

// Memory is an in-memory Lookup.
type Memory struct {
	mu        sync.RWMutex
	templates []*Template
}

var _ Lookup = (*Memory)(nil)

// NewMemory creates a Memory holding templates.
func NewMemory(templates ...*Template) *Memory {
	return &Memory{templates: templates}
}

// Add stores a template, replacing one with the same id.
func (m *Memory) Add(t *Template) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.templates {
		if existing.ID == t.ID {
			m.templates[i] = t
			return
		}
	}
	m.templates = append(m.templates, t)
}

// Template implements Lookup.
func (m *Memory) Template(_ context.Context, ref string) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Find(m.templates, ref)
}

// Find resolves ref against templates: a numeric ref matches the id,
// anything else the label.
func Find(templates []*Template, ref string) (*Template, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.NewNotFoundError("template", ref)
	}
	id, idErr := strconv.ParseInt(ref, 10, 64)
	for _, t := range templates {
		if idErr == nil && t.ID == id {
			return t, nil
		}
		if idErr != nil && t.Label == ref {
			return t, nil
		}
	}
	return nil, errors.NewNotFoundError("template", ref)
}
