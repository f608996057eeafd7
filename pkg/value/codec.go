package value

import (
	"strings"

	"github.com/agentstation/curator/pkg/constants"
)

// Vocabularies answers custom vocabulary questions for the codec. The
// lookups are pure: implementations are primed by the caller before a
// reconciliation starts.
type Vocabularies interface {
	// Label returns the canonical label of uri in the vocabulary.
	Label(vocabID, uri string) (string, bool)
	// Shape returns the shape of the values a vocabulary holds.
	Shape(vocabID string) (Shape, bool)
}

// Codec maps data types to shapes and canonicalizes custom vocabulary
// values. The zero value knows no vocabularies.
type Codec struct {
	vocabs Vocabularies
}

// NewCodec creates a codec backed by vocabs, which may be nil.
func NewCodec(vocabs Vocabularies) *Codec {
	return &Codec{vocabs: vocabs}
}

// MainShape returns the shape values of dataType are stored as.
func (c *Codec) MainShape(dataType string) Shape {
	switch {
	case dataType == constants.DataTypeLiteral,
		dataType == constants.DataTypeHTML,
		strings.HasPrefix(dataType, constants.PrefixNumeric):
		return ShapeLiteral
	case dataType == constants.DataTypeResource,
		strings.HasPrefix(dataType, constants.PrefixResource):
		return ShapeResource
	case dataType == constants.DataTypeURI,
		strings.HasPrefix(dataType, constants.PrefixValueSuggest):
		return ShapeURI
	case strings.HasPrefix(dataType, constants.PrefixCustomVocab):
		if c != nil && c.vocabs != nil {
			if s, ok := c.vocabs.Shape(VocabID(dataType)); ok && s != ShapeUnknown {
				return s
			}
		}
		return ShapeURI
	default:
		return ShapeUnknown
	}
}

// Canonical returns v with its label replaced by the vocabulary label when
// dataType is a custom vocabulary that knows v's uri. Any other value is
// returned as is.
func (c *Codec) Canonical(v *Value, dataType string) *Value {
	if c == nil || c.vocabs == nil || v == nil || v.Shape != ShapeURI {
		return v
	}
	id := VocabID(dataType)
	if id == "" {
		return v
	}
	label, ok := c.vocabs.Label(id, v.URI)
	if !ok || label == v.Label {
		return v
	}
	out := v.Clone()
	out.Label = label
	return out
}

// VocabID returns the vocabulary id of a customvocab data type, or "".
func VocabID(dataType string) string {
	id, ok := strings.CutPrefix(dataType, constants.PrefixCustomVocab)
	if !ok {
		return ""
	}
	return id
}
