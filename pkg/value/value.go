// Package value decodes, compares and encodes the three value shapes a
// resource property can hold: a literal text, a reference to another
// resource, and a uri with a label.
//
// Values are decoded once at the boundary from the JSON-like maps used by
// proposals and resource payloads ("@value", "@resource", "@uri") and are
// matched on their Shape everywhere else.
package value

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Shape is the kind of a value.
type Shape int

const (
	// ShapeUnknown is a value whose kind could not be determined. It is
	// compared like a literal.
	ShapeUnknown Shape = iota
	// ShapeLiteral is a text with an optional language.
	ShapeLiteral
	// ShapeResource is a reference to another resource by id.
	ShapeResource
	// ShapeURI is a uri with a display label.
	ShapeURI
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeLiteral:
		return "literal"
	case ShapeResource:
		return "resource"
	case ShapeURI:
		return "uri"
	default:
		return "unknown"
	}
}

// ParseShape parses a shape name as written in vocabulary files.
func ParseShape(s string) Shape {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "literal":
		return ShapeLiteral
	case "resource":
		return ShapeResource
	case "uri":
		return ShapeURI
	default:
		return ShapeUnknown
	}
}

// Value is a decoded property value. Only the fields of its Shape are set.
type Value struct {
	Shape Shape `json:"shape" yaml:"shape"`

	// Literal
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// Resource reference
	ResourceID int64 `json:"resource_id,omitempty" yaml:"resource_id,omitempty"`

	// URI
	URI   string `json:"uri,omitempty" yaml:"uri,omitempty"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Literal returns a literal value.
func Literal(text string) *Value {
	return &Value{Shape: ShapeLiteral, Text: text}
}

// Resource returns a resource reference.
func Resource(id int64) *Value {
	return &Value{Shape: ShapeResource, ResourceID: id}
}

// URI returns a uri value.
func URI(uri, label string) *Value {
	return &Value{Shape: ShapeURI, URI: uri, Label: label}
}

// WithLanguage returns a copy of v with language set.
func (v *Value) WithLanguage(lang string) *Value {
	if v == nil {
		return nil
	}
	c := *v
	c.Language = NormalizeLanguage(lang)
	return &c
}

// Clone returns a copy of v.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// String returns a short display form.
func (v *Value) String() string {
	if v == nil {
		return ""
	}
	switch v.Shape {
	case ShapeResource:
		return "#" + strconv.FormatInt(v.ResourceID, 10)
	case ShapeURI:
		if v.Label == "" {
			return v.URI
		}
		return fmt.Sprintf("%s (%s)", v.Label, v.URI)
	default:
		if v.Language != "" {
			return fmt.Sprintf("%s@%s", v.Text, v.Language)
		}
		return v.Text
	}
}

// Decode builds a Value from its boundary map. The shape is inferred from
// the keys present, "@uri" first, then "@resource", then "@value". A map with
// none of them decodes to ShapeUnknown. A nil map decodes to nil.
func Decode(raw map[string]any) *Value {
	if raw == nil {
		return nil
	}
	lang, _ := raw["@language"].(string)

	if u, ok := raw["@uri"]; ok {
		label, _ := raw["@label"].(string)
		return &Value{Shape: ShapeURI, URI: toString(u), Label: label}
	}
	if r, ok := raw["@resource"]; ok {
		return &Value{Shape: ShapeResource, ResourceID: toInt64(r)}
	}
	if t, ok := raw["@value"]; ok {
		return &Value{Shape: ShapeLiteral, Text: toString(t), Language: NormalizeLanguage(lang)}
	}
	return &Value{Shape: ShapeUnknown}
}

// Encode returns the boundary map of v.
func (v *Value) Encode() map[string]any {
	if v == nil {
		return nil
	}
	switch v.Shape {
	case ShapeLiteral:
		m := map[string]any{"@value": v.Text}
		if v.Language != "" {
			m["@language"] = v.Language
		}
		return m
	case ShapeResource:
		return map[string]any{"@resource": v.ResourceID}
	case ShapeURI:
		return map[string]any{"@uri": v.URI, "@label": v.Label}
	default:
		if v.Text != "" {
			return map[string]any{"@value": v.Text}
		}
		return map[string]any{}
	}
}

// IsEmpty reports whether v carries nothing: nil, an empty literal, a
// resource reference without id, or a uri without uri. A label alone never
// makes a uri value non-empty.
func IsEmpty(v *Value) bool {
	if v == nil {
		return true
	}
	switch v.Shape {
	case ShapeResource:
		return v.ResourceID == 0
	case ShapeURI:
		return v.URI == ""
	default:
		return v.Text == ""
	}
}

// Equal reports whether a and b hold the same value. Literal text and
// uri/label pairs compare exactly, resource references by id. Unknown values
// compare like literals. Two empty values are equal.
func Equal(a, b *Value) bool {
	aEmpty, bEmpty := IsEmpty(a), IsEmpty(b)
	if aEmpty || bEmpty {
		return aEmpty && bEmpty
	}
	if compareShape(a.Shape) != compareShape(b.Shape) {
		return false
	}
	switch compareShape(a.Shape) {
	case ShapeResource:
		return a.ResourceID == b.ResourceID
	case ShapeURI:
		return a.URI == b.URI && a.Label == b.Label
	default:
		return a.Text == b.Text
	}
}

// NormalizeLanguage canonicalizes a BCP 47 tag. Unparseable tags are kept.
func NormalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return lang
	}
	return tag.String()
}

func compareShape(s Shape) Shape {
	if s == ShapeUnknown {
		return ShapeLiteral
	}
	return s
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int64:
		return t
	case uint64:
		return int64(t)
	case float64:
		return int64(t)
	case json.Number:
		n, _ := t.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Shape) UnmarshalText(text []byte) error {
	*s = ParseShape(string(text))
	return nil
}
