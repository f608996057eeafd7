// Package policy resolves the governance policy of a template: which terms
// a proposal may touch, which data types each accepts, and whether existing
// values may be overwritten (editable) or new ones added (fillable).
//
// A policy with no governed terms is non-generative: nothing may be created
// or updated from a proposal under it.
package policy

import (
	"github.com/agentstation/curator/internal/matcher"
	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/template"
)

// Policy is the resolved governance policy of one template.
type Policy struct {
	// Template the policy was resolved from, nil when there is none.
	Template *template.Template

	// Terms are the governed terms in template order.
	Terms []string

	// DataTypes lists the allowed data types per governed term.
	DataTypes map[string][]string

	// Editable and Fillable hold the governed terms with each permission.
	Editable map[string]bool
	Fillable map[string]bool

	// Languages holds the declared default language per term.
	Languages map[string]string

	// Children are the policies of the media templates, one level deep.
	Children []*Policy
}

// Generative reports whether the policy governs at least one term.
func (p *Policy) Generative() bool {
	return p != nil && len(p.Terms) > 0
}

// Governs reports whether term is governed.
func (p *Policy) Governs(term string) bool {
	if p == nil {
		return false
	}
	_, ok := p.DataTypes[term]
	return ok
}

// IsEditable reports whether existing values of term may change.
func (p *Policy) IsEditable(term string) bool {
	return p != nil && p.Editable[term]
}

// IsFillable reports whether values may be appended to term.
func (p *Policy) IsFillable(term string) bool {
	return p != nil && p.Fillable[term]
}

// AllowedTypes returns the data types allowed for term.
func (p *Policy) AllowedTypes(term string) []string {
	if p == nil {
		return nil
	}
	return p.DataTypes[term]
}

// Language returns the default language declared for term.
func (p *Policy) Language(term string) string {
	if p == nil {
		return ""
	}
	return p.Languages[term]
}

// TemplateID returns the id of the policy's template, or 0.
func (p *Policy) TemplateID() int64 {
	if p == nil || p.Template == nil {
		return 0
	}
	return p.Template.ID
}

// ClassID returns the resource class of the policy's template, or 0.
func (p *Policy) ClassID() int64 {
	if p == nil || p.Template == nil {
		return 0
	}
	return p.Template.ClassID
}

// MaxValues returns the declared maximum number of values of term, 0 when
// unbounded.
func (p *Policy) MaxValues(term string) int {
	if p == nil || p.Template == nil {
		return 0
	}
	if prop, ok := p.Template.Property(term); ok {
		return prop.MaxValues
	}
	return 0
}

// Child returns the child policy whose template matches ref by id or label.
// An empty ref selects the first child.
func (p *Policy) Child(ref string) *Policy {
	if p == nil || len(p.Children) == 0 {
		return nil
	}
	if ref == "" {
		return p.Children[0]
	}
	templates := make([]*template.Template, 0, len(p.Children))
	for _, c := range p.Children {
		templates = append(templates, c.Template)
	}
	t, err := template.Find(templates, ref)
	if err != nil {
		return nil
	}
	for _, c := range p.Children {
		if c.Template == t {
			return c
		}
	}
	return nil
}

// FromTemplate builds the policy of tpl with the given media templates as
// children. Children get no children of their own, and a child that is tpl
// itself is ignored. A nil tpl yields the non-generative policy.
func FromTemplate(tpl *template.Template, children ...*template.Template) (*Policy, error) {
	p, err := build(tpl)
	if err != nil || tpl == nil {
		return p, err
	}
	for _, child := range children {
		if child == nil || child.ID == tpl.ID {
			continue
		}
		cp, err := build(child)
		if err != nil {
			return nil, err
		}
		p.Children = append(p.Children, cp)
	}
	return p, nil
}

func build(tpl *template.Template) (*Policy, error) {
	p := &Policy{
		Template:  tpl,
		DataTypes: make(map[string][]string),
		Editable:  make(map[string]bool),
		Fillable:  make(map[string]bool),
		Languages: make(map[string]string),
	}
	if tpl == nil {
		return p, nil
	}

	editable, err := permitted(tpl, tpl.Settings.Editable, "editable")
	if err != nil {
		return nil, err
	}
	fillable, err := permitted(tpl, tpl.Settings.Fillable, "fillable")
	if err != nil {
		return nil, err
	}

	for _, prop := range tpl.Properties {
		if prop.Term == "" || p.Governs(prop.Term) {
			continue
		}
		types := prop.DataTypes
		if len(types) == 0 {
			types = constants.DefaultDataTypes()
		}
		p.Terms = append(p.Terms, prop.Term)
		p.DataTypes[prop.Term] = append([]string(nil), types...)
		p.Editable[prop.Term] = editable(prop.Term)
		p.Fillable[prop.Term] = fillable(prop.Term)
		if prop.Language != "" {
			p.Languages[prop.Term] = prop.Language
		}
	}
	return p, nil
}

// permitted returns the predicate of terms a permission grants.
func permitted(tpl *template.Template, perm template.Permission, name string) (func(string) bool, error) {
	switch perm.Mode {
	case "", template.ModeAll:
		return func(string) bool { return true }, nil
	case template.ModeNone:
		return func(string) bool { return false }, nil
	case template.ModeWhitelist, template.ModeBlacklist:
		set, err := matcher.CompileSet(perm.Terms)
		if err != nil {
			return nil, errors.NewConfigError("template "+tpl.Label, "invalid "+name+" terms", err)
		}
		if perm.Mode == template.ModeWhitelist {
			return set.Match, nil
		}
		return func(term string) bool { return !set.Match(term) }, nil
	default:
		return nil, errors.NewConfigError("template "+tpl.Label, "unknown "+name+" mode "+string(perm.Mode), nil)
	}
}
