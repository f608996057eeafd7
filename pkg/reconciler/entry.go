package reconciler

import (
	"github.com/agentstation/curator/pkg/proposal"
	"github.com/agentstation/curator/pkg/resource"
)

// Process is what should happen to an existing value for a proposal entry.
type Process int

const (
	// ProcessKeep leaves the resource as it is.
	ProcessKeep Process = iota
	// ProcessUpdate overwrites the matched existing value.
	ProcessUpdate
	// ProcessRemove deletes the matched existing value.
	ProcessRemove
	// ProcessAppend adds the proposed value.
	ProcessAppend
)

// String returns the process name.
func (p Process) String() string {
	switch p {
	case ProcessUpdate:
		return "update"
	case ProcessRemove:
		return "remove"
	case ProcessAppend:
		return "append"
	default:
		return "keep"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Process) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Entry is a classified proposal entry.
type Entry struct {
	proposal.Entry

	// Process is fixed once assigned.
	Process Process

	// Matched is the existing value equal to the original, or to the
	// proposed value when there is no original.
	Matched *resource.Value

	// Validated reports that the live resource already reflects the
	// outcome of this entry.
	Validated bool

	// Governed is false for terms outside the policy and for entries whose
	// data type no longer fits the term.
	Governed bool

	// DataType is the data type the proposed value is written with.
	DataType string
}

// Pending reports whether the entry still requires a write.
func (e Entry) Pending() bool {
	return e.Process != ProcessKeep && !e.Validated
}

// ByTerm groups entries by term, keeping their order.
func ByTerm(entries []Entry) map[string][]Entry {
	out := make(map[string][]Entry)
	for _, e := range entries {
		out[e.Term] = append(out[e.Term], e)
	}
	return out
}
