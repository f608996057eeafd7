// Package reconciler classifies a captured proposal against the live state
// of a resource. For every original/proposed pair it decides whether the
// resource keeps, updates, removes or appends a value, and whether the live
// resource already reflects that outcome (validated).
//
// The engine is pure: existing values, the policy and the custom vocabulary
// labels are resolved by the caller, and the same inputs always give the
// same entries. Drift and data type mismatches never fail a reconciliation;
// they surface as unvalidated Keep entries.
package reconciler

import (
	"slices"

	"github.com/rs/zerolog"

	"github.com/agentstation/curator/pkg/policy"
	"github.com/agentstation/curator/pkg/proposal"
	"github.com/agentstation/curator/pkg/resource"
	"github.com/agentstation/curator/pkg/value"
)

// Engine reconciles proposals. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	codec  *value.Codec
	logger *zerolog.Logger
}

// New creates an Engine with options.
func New(opts ...Option) (*Engine, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Engine{
		codec:  options.codec,
		logger: options.logger,
	}, nil
}

// Codec returns the engine's value codec.
func (e *Engine) Codec() *value.Codec {
	return e.codec
}

// candidate is an existing value canonicalized for comparison.
type candidate struct {
	existing resource.Value
	value    *value.Value
}

// Reconcile classifies entries against existing under pol. Entries are
// returned in template property order, then ungoverned terms in encounter
// order (existing values first, then the proposal); within a term in
// proposal key order. Pairs with both sides empty are dropped.
//
// Existing positions are renumbered per term in slice order, so Matched
// values carry the position a payload builder assigns to them.
func (e *Engine) Reconcile(existing []resource.Value, entries []proposal.Entry, pol *policy.Policy) []Entry {
	existing = resource.Normalize(existing)
	live := make(map[string][]candidate)
	for _, ev := range existing {
		live[ev.Term] = append(live[ev.Term], candidate{
			existing: ev,
			value:    e.codec.Canonical(ev.Value, ev.DataType),
		})
	}

	byTerm := make(map[string][]proposal.Entry)
	for _, entry := range entries {
		byTerm[entry.Term] = append(byTerm[entry.Term], entry)
	}

	var out []Entry
	for _, term := range termOrder(existing, entries, pol) {
		for _, entry := range byTerm[term] {
			if value.IsEmpty(entry.Original) && value.IsEmpty(entry.Proposed) {
				continue
			}
			out = append(out, e.classify(entry, live[term], pol))
		}
	}

	if e.logger.GetLevel() <= zerolog.DebugLevel {
		stats := Summarize(out)
		e.logger.Debug().
			Int64("template_id", pol.TemplateID()).
			Int("entries", stats.Total).
			Int("pending", stats.Pending).
			Int("ungoverned", stats.Ungoverned).
			Msg("Reconciled proposal")
	}
	return out
}

// termOrder returns governed terms in template order followed by the
// remaining terms in encounter order.
func termOrder(existing []resource.Value, entries []proposal.Entry, pol *policy.Policy) []string {
	var order []string
	seen := make(map[string]bool)
	add := func(term string) {
		if !seen[term] {
			seen[term] = true
			order = append(order, term)
		}
	}
	if pol != nil {
		for _, term := range pol.Terms {
			add(term)
		}
	}
	for _, ev := range existing {
		add(ev.Term)
	}
	for _, entry := range entries {
		add(entry.Term)
	}
	return order
}

func (e *Engine) classify(entry proposal.Entry, live []candidate, pol *policy.Policy) Entry {
	dataType, governed := e.dataType(entry, live, pol)
	if governed {
		entry.Original = e.codec.Canonical(entry.Original, dataType)
		entry.Proposed = e.codec.Canonical(entry.Proposed, dataType)
	}

	origEmpty := value.IsEmpty(entry.Original)
	propEmpty := value.IsEmpty(entry.Proposed)

	var matchOrig, matchProp *resource.Value
	if !origEmpty {
		matchOrig = find(live, entry.Original)
	}
	if !propEmpty {
		matchProp = find(live, entry.Proposed)
	}
	matched := matchOrig
	if origEmpty {
		matched = matchProp
	}

	out := Entry{Matched: matched, Governed: governed, DataType: dataType}
	editable := governed && pol.IsEditable(entry.Term)
	fillable := governed && pol.IsFillable(entry.Term)

	switch {
	case value.Equal(entry.Original, entry.Proposed):
		out.Process, out.Validated = ProcessKeep, true
		out.Matched = matchOrig
	case !governed:
		out.Process, out.Validated = ProcessKeep, false
	case propEmpty:
		out.Validated = matchOrig == nil
		if editable {
			out.Process = ProcessRemove
		}
	case origEmpty && matchProp == nil:
		if fillable {
			out.Process = ProcessAppend
		}
	case matchProp != nil:
		out.Process, out.Validated = ProcessKeep, true
	case matchOrig != nil:
		if editable {
			out.Process = ProcessUpdate
		}
	}

	entry.Proposed = e.inheritLanguage(entry, matched, pol)
	out.Entry = entry

	e.logger.Trace().
		Str("term", entry.Term).
		Int("key", entry.Key).
		Stringer("process", out.Process).
		Bool("validated", out.Validated).
		Bool("governed", governed).
		Msg("Classified entry")
	return out
}

// dataType picks the data type the entry is governed under. The existing
// value the entry matches must have an allowed type, and the value to write
// is given its type when the shapes agree, otherwise the first allowed type
// of its shape. It reports false when the term is not governed or no allowed
// type fits.
func (e *Engine) dataType(entry proposal.Entry, live []candidate, pol *policy.Policy) (string, bool) {
	if !pol.Governs(entry.Term) {
		return "", false
	}
	allowed := pol.AllowedTypes(entry.Term)

	probe := entry.Original
	if value.IsEmpty(probe) {
		probe = entry.Proposed
	}
	var liveType string
	for _, c := range live {
		if value.Equal(c.value, e.codec.Canonical(probe, c.existing.DataType)) {
			if !slices.Contains(allowed, c.existing.DataType) {
				return c.existing.DataType, false
			}
			liveType = c.existing.DataType
			break
		}
	}

	target := entry.Proposed
	if value.IsEmpty(target) {
		target = entry.Original
	}
	shape := shapeOf(target)
	if liveType != "" && e.shapeOfType(liveType) == shape {
		return liveType, true
	}
	for _, dt := range allowed {
		if e.shapeOfType(dt) == shape {
			return dt, true
		}
	}
	return "", false
}

// shapeOfType maps a data type to its shape, unknown types counting as
// literals.
func (e *Engine) shapeOfType(dataType string) value.Shape {
	if s := e.codec.MainShape(dataType); s != value.ShapeUnknown {
		return s
	}
	return value.ShapeLiteral
}

// inheritLanguage sets the language of a proposed literal from the matched
// existing value, the proposal itself or the template default, in that
// order.
func (e *Engine) inheritLanguage(entry proposal.Entry, matched *resource.Value, pol *policy.Policy) *value.Value {
	v := entry.Proposed
	if v == nil || (v.Shape != value.ShapeLiteral && v.Shape != value.ShapeUnknown) || value.IsEmpty(v) {
		return v
	}
	lang := v.Language
	if matched != nil && matched.Value != nil && matched.Value.Language != "" {
		lang = matched.Value.Language
	}
	if lang == "" {
		lang = pol.Language(entry.Term)
	}
	if lang == v.Language {
		return v
	}
	return v.WithLanguage(lang)
}

func find(live []candidate, v *value.Value) *resource.Value {
	for i := range live {
		if value.Equal(live[i].value, v) {
			return &live[i].existing
		}
	}
	return nil
}

func shapeOf(v *value.Value) value.Shape {
	if v == nil || v.Shape == value.ShapeUnknown {
		return value.ShapeLiteral
	}
	return v.Shape
}
