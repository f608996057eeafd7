// Package query matches built payloads against resource search queries, so
// pending proposals can be found by what they would make a resource look
// like.
package query

import (
	"net/url"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/payload"
)

// Query is a resource search. Clauses are ANDed; empty clauses are ignored.
type Query struct {
	TemplateIDs []int64          `json:"resource_template_id,omitempty" yaml:"resource_template_id,omitempty"`
	ClassIDs    []int64          `json:"resource_class_id,omitempty" yaml:"resource_class_id,omitempty"`
	Properties  []PropertyClause `json:"property,omitempty" yaml:"property,omitempty"`
}

// PropertyClause requires a value of Term whose text equals one of Text.
type PropertyClause struct {
	Term string   `json:"property" yaml:"property"`
	Text []string `json:"text" yaml:"text"`
}

// Empty reports whether the query has no effective clause.
func (q Query) Empty() bool {
	if len(q.TemplateIDs) > 0 || len(q.ClassIDs) > 0 {
		return false
	}
	for _, c := range q.Properties {
		if !c.empty() {
			return false
		}
	}
	return true
}

func (c PropertyClause) empty() bool {
	return c.Term == "" || len(c.Text) == 0
}

// Matches reports whether the payload p satisfies q. A nil payload matches
// only the empty query.
func Matches(p *payload.Payload, q Query) bool {
	if p == nil {
		return q.Empty()
	}
	if len(q.TemplateIDs) > 0 && !slices.Contains(q.TemplateIDs, p.TemplateID) {
		return false
	}
	if len(q.ClassIDs) > 0 && !slices.Contains(q.ClassIDs, p.ClassID) {
		return false
	}
	for _, c := range q.Properties {
		if c.empty() {
			continue
		}
		if !matchesClause(p.Values(c.Term), c.Text) {
			return false
		}
	}
	return true
}

func matchesClause(records []payload.Record, wanted []string) bool {
	for _, r := range records {
		for _, text := range r.Texts() {
			if slices.Contains(wanted, text) {
				return true
			}
		}
	}
	return false
}

// Filter returns the payloads matching q, keyed as given.
func Filter(payloads map[int64]*payload.Payload, q Query) []int64 {
	var ids []int64
	for id, p := range payloads {
		if Matches(p, q) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

var propertyKey = regexp.MustCompile(`^property\[(\d+)\]\[(property|text)\](\[\])?$`)

// Parse reads a query string:
//
//	resource_template_id[]=1&resource_class_id[]=2
//	property[0][property]=dcterms:title&property[0][text]=Cat
//
// Keys without brackets are accepted for the id lists. Unknown keys are
// ignored.
func Parse(values url.Values) (Query, error) {
	var q Query
	var err error
	if q.TemplateIDs, err = parseIDs(values, "resource_template_id"); err != nil {
		return Query{}, err
	}
	if q.ClassIDs, err = parseIDs(values, "resource_class_id"); err != nil {
		return Query{}, err
	}

	clauses := make(map[int]*PropertyClause)
	for key, vals := range values {
		m := propertyKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		idx, _ := strconv.Atoi(m[1])
		c, ok := clauses[idx]
		if !ok {
			c = &PropertyClause{}
			clauses[idx] = c
		}
		switch m[2] {
		case "property":
			c.Term = strings.TrimSpace(vals[0])
		case "text":
			for _, v := range vals {
				if v != "" {
					c.Text = append(c.Text, v)
				}
			}
		}
	}

	indexes := make([]int, 0, len(clauses))
	for idx := range clauses {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		q.Properties = append(q.Properties, *clauses[idx])
	}
	return q, nil
}

// ParseString parses a raw query string.
func ParseString(raw string) (Query, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return Query{}, errors.NewParseError("query", "", err.Error(), err)
	}
	return Parse(values)
}

func parseIDs(values url.Values, key string) ([]int64, error) {
	raw := append(append([]string(nil), values[key+"[]"]...), values[key]...)
	var ids []int64
	for _, s := range raw {
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, errors.NewValidationError(key, part, "must be an integer id")
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
