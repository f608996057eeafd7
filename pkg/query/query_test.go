package query_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/payload"
	"github.com/agentstation/curator/pkg/query"
	"github.com/agentstation/curator/pkg/value"
)

func book() *payload.Payload {
	return &payload.Payload{
		TemplateID: 1,
		ClassID:    40,
		Terms: []payload.Term{
			{Term: "dcterms:title", Values: []payload.Record{
				payload.RecordFor(value.Literal("Cat"), "literal"),
			}},
			{Term: "dcterms:creator", Values: []payload.Record{
				payload.RecordFor(value.Resource(42), "resource"),
			}},
			{Term: "dcterms:subject", Values: []payload.Record{
				payload.RecordFor(value.URI("http://example.org/felines", "Felines"), "customvocab:5"),
			}},
		},
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name string
		q    query.Query
		want bool
	}{
		{"empty query", query.Query{}, true},
		{"template", query.Query{TemplateIDs: []int64{2, 1}}, true},
		{"wrong template", query.Query{TemplateIDs: []int64{2}}, false},
		{"class", query.Query{ClassIDs: []int64{40}}, true},
		{"wrong class", query.Query{ClassIDs: []int64{41}}, false},
		{"literal text", query.Query{Properties: []query.PropertyClause{{Term: "dcterms:title", Text: []string{"Cat"}}}}, true},
		{"any of texts", query.Query{Properties: []query.PropertyClause{{Term: "dcterms:title", Text: []string{"Dog", "Cat"}}}}, true},
		{"text on other term", query.Query{Properties: []query.PropertyClause{{Term: "dcterms:subject", Text: []string{"Cat"}}}}, false},
		{"resource id", query.Query{Properties: []query.PropertyClause{{Term: "dcterms:creator", Text: []string{"42"}}}}, true},
		{"uri", query.Query{Properties: []query.PropertyClause{{Term: "dcterms:subject", Text: []string{"http://example.org/felines"}}}}, true},
		{"uri label", query.Query{Properties: []query.PropertyClause{{Term: "dcterms:subject", Text: []string{"Felines"}}}}, true},
		{"empty clause ignored", query.Query{Properties: []query.PropertyClause{{Term: "dcterms:title"}, {Text: []string{"x"}}}}, true},
		{
			"all clauses must hold",
			query.Query{
				TemplateIDs: []int64{1},
				Properties:  []query.PropertyClause{{Term: "dcterms:title", Text: []string{"Cat"}}, {Term: "dcterms:creator", Text: []string{"7"}}},
			},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, query.Matches(book(), tt.q))
		})
	}
}

func TestMatchesNilPayload(t *testing.T) {
	assert.True(t, query.Matches(nil, query.Query{}))
	assert.False(t, query.Matches(nil, query.Query{TemplateIDs: []int64{1}}))
	assert.False(t, query.Matches(nil, query.Query{Properties: []query.PropertyClause{{Term: "dcterms:title", Text: []string{"Cat"}}}}))
}

func TestFilter(t *testing.T) {
	other := book()
	other.TemplateID = 2
	ids := query.Filter(map[int64]*payload.Payload{3: book(), 1: book(), 2: other, 4: nil}, query.Query{TemplateIDs: []int64{1}})
	assert.Equal(t, []int64{1, 3}, ids)
}

func TestParse(t *testing.T) {
	q, err := query.ParseString("?resource_template_id[]=1&resource_template_id[]=2&resource_class_id=40" +
		"&property[1][property]=dcterms:subject&property[1][text]=Felines" +
		"&property[0][property]=dcterms:title&property[0][text]=Cat&sort_by=title")
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, q.TemplateIDs)
	assert.Equal(t, []int64{40}, q.ClassIDs)
	require.Len(t, q.Properties, 2)
	assert.Equal(t, query.PropertyClause{Term: "dcterms:title", Text: []string{"Cat"}}, q.Properties[0])
	assert.Equal(t, query.PropertyClause{Term: "dcterms:subject", Text: []string{"Felines"}}, q.Properties[1])
	assert.True(t, query.Matches(book(), q))
}

func TestParseErrors(t *testing.T) {
	_, err := query.Parse(url.Values{"resource_template_id[]": {"abc"}})
	assert.True(t, errors.IsValidationError(err))

	_, err = query.ParseString("%zz")
	var perr *errors.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestQueryEmpty(t *testing.T) {
	assert.True(t, query.Query{}.Empty())
	assert.True(t, query.Query{Properties: []query.PropertyClause{{Term: "dcterms:title"}}}.Empty())
	assert.False(t, query.Query{ClassIDs: []int64{1}}.Empty())
}
