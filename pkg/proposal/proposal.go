// Package proposal holds captured proposals: the values a proposer saw
// (original) paired with the values they submitted (proposed), per term,
// plus child proposals for attached media.
package proposal

import (
	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/agentstation/curator/pkg/value"
)

// Proposal is a captured proposal tree.
type Proposal struct {
	// ID identifies the stored proposal.
	ID string
	// ResourceID is the resource the proposal targets, 0 for a new one.
	ResourceID int64
	// Template references the template the proposal was captured against.
	Template string
	// Media holds child proposals, one per attached media.
	Media []*Proposal
	// File is the uploaded file of a media proposal.
	File *File
	// Terms holds the proposed pairs in document order.
	Terms []TermEntries
	// CreatedAt is when the proposal was captured.
	CreatedAt utc.Time
}

// TermEntries are the pairs proposed for one term.
type TermEntries struct {
	Term  string
	Pairs []Pair
}

// Pair is one original/proposed pair. Either side may be nil.
type Pair struct {
	Original *value.Value
	Proposed *value.Value
}

// File is an uploaded file: its display name and the temporary store
// handle it was saved under.
type File struct {
	Name  string
	Store string
}

// Entry is a flattened pair addressed by term and key, the position of the
// pair in its term list.
type Entry struct {
	Term     string
	Key      int
	Original *value.Value
	Proposed *value.Value
}

// New creates an empty proposal for a resource.
func New(resourceID int64, templateRef string) *Proposal {
	return &Proposal{
		ID:         uuid.New().String(),
		ResourceID: resourceID,
		Template:   templateRef,
		CreatedAt:  utc.Now(),
	}
}

// Add appends a pair to term, creating the term at the end when new.
func (p *Proposal) Add(term string, original, proposed *value.Value) *Proposal {
	for i := range p.Terms {
		if p.Terms[i].Term == term {
			p.Terms[i].Pairs = append(p.Terms[i].Pairs, Pair{Original: original, Proposed: proposed})
			return p
		}
	}
	p.Terms = append(p.Terms, TermEntries{Term: term, Pairs: []Pair{{Original: original, Proposed: proposed}}})
	return p
}

// AddMedia attaches a child proposal.
func (p *Proposal) AddMedia(child *Proposal) *Proposal {
	p.Media = append(p.Media, child)
	return p
}

// Entries flattens the pairs in document order.
func (p *Proposal) Entries() []Entry {
	if p == nil {
		return nil
	}
	var out []Entry
	for _, t := range p.Terms {
		for i, pair := range t.Pairs {
			out = append(out, Entry{Term: t.Term, Key: i, Original: pair.Original, Proposed: pair.Proposed})
		}
	}
	return out
}

// TermNames returns the proposal's terms in document order.
func (p *Proposal) TermNames() []string {
	names := make([]string, 0, len(p.Terms))
	for _, t := range p.Terms {
		names = append(names, t.Term)
	}
	return names
}
