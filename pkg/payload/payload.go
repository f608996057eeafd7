// Package payload turns reconciled proposals into the mutation payload a
// resource write API applies, and defines that API's contract.
package payload

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strconv"

	"github.com/zeebo/blake3"

	"github.com/agentstation/curator/pkg/value"
)

// Payload is the full value list of a resource after applying a proposal.
type Payload struct {
	ID         int64      `json:"o:id,omitempty"`
	TemplateID int64      `json:"o:resource_template,omitempty"`
	ClassID    int64      `json:"o:resource_class,omitempty"`
	Terms      []Term     `json:"terms"`
	Media      []*Payload `json:"o:media,omitempty"`
	File       *File      `json:"file,omitempty"`
}

// Term is the ordered value list of one term.
type Term struct {
	Term   string   `json:"term"`
	Values []Record `json:"values"`
}

// Record is one value as the write API expects it.
type Record struct {
	Type       string `json:"type"`
	Value      string `json:"@value,omitempty"`
	Language   string `json:"@language,omitempty"`
	ResourceID int64  `json:"value_resource_id,omitempty"`
	ID         string `json:"@id,omitempty"`
	Label      string `json:"o:label,omitempty"`
}

// File is the uploaded file of a media payload.
type File struct {
	Name  string `json:"@value"`
	Store string `json:"store"`
}

// RecordFor serializes v with its data type.
func RecordFor(v *value.Value, dataType string) Record {
	r := Record{Type: dataType}
	if v == nil {
		return r
	}
	switch v.Shape {
	case value.ShapeResource:
		r.ResourceID = v.ResourceID
	case value.ShapeURI:
		r.ID = v.URI
		r.Label = v.Label
	default:
		r.Value = v.Text
		r.Language = v.Language
	}
	return r
}

// AsValue decodes the record back into a value.
func (r Record) AsValue() *value.Value {
	switch {
	case r.ResourceID != 0:
		return value.Resource(r.ResourceID)
	case r.ID != "":
		return value.URI(r.ID, r.Label)
	default:
		return value.Literal(r.Value).WithLanguage(r.Language)
	}
}

// Texts returns the comparable texts of the record: literal text, uri,
// label and resource id.
func (r Record) Texts() []string {
	var out []string
	for _, s := range []string{r.Value, r.ID, r.Label} {
		if s != "" {
			out = append(out, s)
		}
	}
	if r.ResourceID != 0 {
		out = append(out, strconv.FormatInt(r.ResourceID, 10))
	}
	return out
}

// Values returns the records of term.
func (p *Payload) Values(term string) []Record {
	if p == nil {
		return nil
	}
	for _, t := range p.Terms {
		if t.Term == term {
			return t.Values
		}
	}
	return nil
}

// Empty reports whether the payload carries no terms, media or file.
func (p *Payload) Empty() bool {
	return p == nil || (len(p.Terms) == 0 && len(p.Media) == 0 && p.File == nil)
}

// Fingerprint returns the BLAKE3 hex digest of the payload's JSON. Equal
// payloads have equal fingerprints.
func (p *Payload) Fingerprint() string {
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WriteOptions configures a write.
type WriteOptions struct {
	// ValidateOnly asks the writer to validate without persisting. Writers
	// then return errors.ErrValidateOnly on success.
	ValidateOnly bool
}

// Writer creates (id 0) or updates a resource from a payload. Validation
// failures are reported as *errors.ValidationErrors.
type Writer interface {
	Write(ctx context.Context, id int64, p *Payload, opts WriteOptions) (int64, error)
}
