package proposal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/agentstation/utc"
	"github.com/tidwall/jsonc"

	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/value"
)

// Metadata keys stored next to the terms.
const (
	keyID         = "id"
	keyResourceID = "resource_id"
	keyCreatedAt  = "created_at"
)

// Parse reads a proposal tree. Comments and trailing commas are tolerated.
// Term order follows the document.
func Parse(data []byte) (*Proposal, error) {
	stripped := jsonc.ToJSON(data)

	p, err := decodeTree(json.NewDecoder(bytes.NewReader(stripped)))
	if err != nil {
		return nil, errors.NewParseError("json", "", err.Error(), err)
	}
	return p, nil
}

// MarshalJSON writes the proposal as its boundary tree, metadata first,
// then terms in order.
func (p *Proposal) MarshalJSON() ([]byte, error) {
	type kv struct {
		key string
		val any
	}
	var fields []kv
	if p.ID != "" {
		fields = append(fields, kv{keyID, p.ID})
	}
	if p.ResourceID != 0 {
		fields = append(fields, kv{keyResourceID, p.ResourceID})
	}
	if !p.CreatedAt.IsZero() {
		fields = append(fields, kv{keyCreatedAt, p.CreatedAt.Time.Format(time.RFC3339Nano)})
	}
	if p.Template != "" {
		fields = append(fields, kv{constants.KeyTemplate, p.Template})
	}
	if len(p.Media) > 0 {
		fields = append(fields, kv{constants.KeyMedia, p.Media})
	}
	if p.File != nil {
		fields = append(fields, kv{constants.KeyFile, []map[string]any{{
			constants.KeyProposed: map[string]any{"@value": p.File.Name, "store": p.File.Store},
		}}})
	}
	for _, t := range p.Terms {
		pairs := make([]map[string]any, 0, len(t.Pairs))
		for _, pair := range t.Pairs {
			m := map[string]any{}
			if pair.Original != nil {
				m[constants.KeyOriginal] = pair.Original.Encode()
			}
			if pair.Proposed != nil {
				m[constants.KeyProposed] = pair.Proposed.Encode()
			}
			pairs = append(pairs, m)
		}
		fields = append(fields, kv{t.Term, pairs})
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.val)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Proposal) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

func decodeTree(dec *json.Decoder) (*Proposal, error) {
	dec.UseNumber()
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	p := &Proposal{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		if err := p.decodeKey(key, raw); err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Proposal) decodeKey(key string, raw json.RawMessage) error {
	switch key {
	case keyID:
		return json.Unmarshal(raw, &p.ID)
	case keyResourceID:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return err
		}
		id, err := n.Int64()
		p.ResourceID = id
		return err
	case keyCreatedAt:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		t, err := utc.Parse(time.RFC3339Nano, s)
		p.CreatedAt = t
		return err
	case constants.KeyTemplate:
		p.Template = scalarString(raw)
		return nil
	case constants.KeyMedia:
		var children []json.RawMessage
		if err := json.Unmarshal(raw, &children); err != nil {
			return err
		}
		for _, c := range children {
			child, err := decodeTree(json.NewDecoder(bytes.NewReader(c)))
			if err != nil {
				return err
			}
			p.Media = append(p.Media, child)
		}
		return nil
	case constants.KeyFile:
		p.File = decodeFile(raw)
		return nil
	}

	// Scalars next to the terms are metadata this package does not use.
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}
	pairs, err := decodePairs(raw)
	if err != nil {
		return err
	}
	if len(pairs) > 0 {
		p.Terms = append(p.Terms, TermEntries{Term: key, Pairs: pairs})
	}
	return nil
}

func decodePairs(raw json.RawMessage) ([]Pair, error) {
	var list []map[string]map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&list); err != nil {
		return nil, err
	}
	pairs := make([]Pair, 0, len(list))
	for _, item := range list {
		pairs = append(pairs, Pair{
			Original: value.Decode(item[constants.KeyOriginal]),
			Proposed: value.Decode(item[constants.KeyProposed]),
		})
	}
	return pairs, nil
}

// decodeFile accepts the file term as a pair list or a bare value. Only the
// first value counts.
func decodeFile(raw json.RawMessage) *File {
	var v map[string]any
	var list []map[string]map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return nil
		}
		v = list[0][constants.KeyProposed]
	} else if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	if v == nil {
		return nil
	}
	name, _ := v["@value"].(string)
	store, _ := v["store"].(string)
	if store == "" {
		store, _ = v["file"].(string)
	}
	if name == "" && store == "" {
		return nil
	}
	return &File{Name: name, Store: store}
}

func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err == io.EOF {
		return fmt.Errorf("unexpected end of input")
	}
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
