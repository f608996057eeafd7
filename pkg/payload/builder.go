package payload

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/policy"
	"github.com/agentstation/curator/pkg/proposal"
	"github.com/agentstation/curator/pkg/reconciler"
	"github.com/agentstation/curator/pkg/resource"
)

// Media is a child proposal with the media resource it edits, if any.
type Media struct {
	Proposal *proposal.Proposal
	Existing *resource.Resource
}

// Builder builds payloads. It reconciles media proposals with its engine
// and is safe for concurrent use.
type Builder struct {
	engine *reconciler.Engine
	temp   TempStore
	logger *zerolog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithTempStore sets where uploaded files are looked up. Without one, files
// are dropped.
func WithTempStore(temp TempStore) Option {
	return func(b *Builder) error {
		if temp == nil {
			return &errors.ValidationError{Field: "temp", Message: "cannot be nil"}
		}
		b.temp = temp
		return nil
	}
}

// WithLogger sets the builder logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a Builder around engine.
func NewBuilder(engine *reconciler.Engine, opts ...Option) (*Builder, error) {
	if engine == nil {
		return nil, &errors.ValidationError{Field: "engine", Message: "cannot be nil"}
	}
	b := &Builder{engine: engine, logger: logging.Default()}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Build applies entries to existing under pol and returns the payload, or
// nil when pol is not generative.
//
// Existing values are carried over first, with Remove entries deleting and
// Update entries overwriting the position they matched. A position matched
// by a Keep entry is never touched; otherwise the first entry to claim a
// position wins. Unvalidated Append entries are then added unless an
// identical record is already present. Each media proposal is reconciled
// under the child policy its template selects and dropped when it yields
// nothing.
func (b *Builder) Build(existing []resource.Value, entries []reconciler.Entry, pol *policy.Policy, media ...Media) *Payload {
	if !pol.Generative() {
		return nil
	}

	p := b.build(existing, entries, pol)
	for i, m := range media {
		if child := b.buildMedia(m, pol); child != nil {
			p.Media = append(p.Media, child)
		} else {
			b.logger.Debug().Int("media", i).Msg("Dropped empty media proposal")
		}
	}
	return p
}

// slot is one output value at an existing position.
type slot struct {
	record  Record
	removed bool
	claimed bool
}

func (b *Builder) build(existing []resource.Value, entries []reconciler.Entry, pol *policy.Policy) *Payload {
	p := &Payload{TemplateID: pol.TemplateID(), ClassID: pol.ClassID()}

	// Pass 1: carry existing values, applying removals and updates.
	// Positions are renumbered the same way the engine numbers Matched.
	slots := make(map[string][]*slot)
	for _, ev := range resource.Normalize(existing) {
		slots[ev.Term] = append(slots[ev.Term], &slot{record: RecordFor(ev.Value, ev.DataType)})
	}
	at := func(v *resource.Value) *slot {
		list := slots[v.Term]
		if v.Position < 0 || v.Position >= len(list) {
			return nil
		}
		return list[v.Position]
	}
	for _, e := range entries {
		if e.Process == reconciler.ProcessKeep && e.Matched != nil {
			if s := at(e.Matched); s != nil {
				s.claimed = true
			}
		}
	}
	for _, e := range entries {
		if e.Matched == nil || (e.Process != reconciler.ProcessRemove && e.Process != reconciler.ProcessUpdate) {
			continue
		}
		s := at(e.Matched)
		if s == nil || s.claimed {
			continue
		}
		s.claimed = true
		if e.Process == reconciler.ProcessRemove {
			s.removed = true
			continue
		}
		s.record = RecordFor(e.Proposed, e.DataType)
	}

	out := make(map[string][]Record)
	for term, list := range slots {
		for _, s := range list {
			if !s.removed {
				out[term] = append(out[term], s.record)
			}
		}
	}

	// Pass 2: append new values.
	for _, e := range entries {
		if e.Process != reconciler.ProcessAppend || e.Validated {
			continue
		}
		rec := RecordFor(e.Proposed, e.DataType)
		if containsRecord(out[e.Term], rec) {
			continue
		}
		out[e.Term] = append(out[e.Term], rec)
	}

	for _, term := range payloadTerms(existing, pol) {
		if len(out[term]) > 0 {
			p.Terms = append(p.Terms, Term{Term: term, Values: out[term]})
		}
	}
	return p
}

func (b *Builder) buildMedia(m Media, pol *policy.Policy) *Payload {
	if m.Proposal == nil {
		return nil
	}
	childPol := pol.Child(m.Proposal.Template)
	if !childPol.Generative() {
		return nil
	}

	var existing []resource.Value
	if m.Existing != nil {
		existing = m.Existing.Values
	}
	entries := b.engine.Reconcile(existing, m.Proposal.Entries(), childPol)
	child := b.build(existing, entries, childPol)
	if m.Existing != nil {
		child.ID = m.Existing.ID
	}

	if f := m.Proposal.File; f != nil && (m.Existing == nil || m.Existing.File == nil) {
		if b.temp != nil && b.temp.Exists(f.Store) {
			child.File = &File{Name: f.Name, Store: f.Store}
		} else {
			b.logger.Debug().Str("store", f.Store).Msg("Dropped file no longer in temporary storage")
		}
	}

	if len(child.Terms) == 0 && child.File == nil {
		return nil
	}
	return child
}

// payloadTerms orders governed terms first, then the other existing terms.
func payloadTerms(existing []resource.Value, pol *policy.Policy) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, t := range pol.Terms {
		seen[t] = true
		terms = append(terms, t)
	}
	for _, t := range resource.Terms(existing) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	return terms
}

func containsRecord(records []Record, r Record) bool {
	for _, existing := range records {
		if existing == r {
			return true
		}
	}
	return false
}
