package application

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/pkg/proposal"
	"github.com/agentstation/curator/pkg/resource"
	"github.com/agentstation/curator/pkg/store"
	"github.com/agentstation/curator/pkg/template"
	"github.com/agentstation/curator/pkg/value"
)

// SeedStore returns an in-memory store for command tests:
//   - template 1 "Book" governing dcterms:title and dcterms:subject
//   - vocabulary 5 labelling http://example.org/cats "Cats"
//   - resources 1 and 2 titled "Cat", with an ungoverned dcterms:rights
//   - a proposal retitling resource 1 "Dog"
func SeedStore(t testing.TB) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)

	require.NoError(t, s.SaveTemplate(ctx, &template.Template{
		ID:    1,
		Label: "Book",
		Properties: []template.Property{
			{Term: "dcterms:title"},
			{Term: "dcterms:subject", DataTypes: []string{"customvocab:5"}},
		},
	}))
	require.NoError(t, s.SaveVocab(ctx, "5", value.ShapeURI, map[string]string{"http://example.org/cats": "Cats"}))

	for _, id := range []int64{1, 2} {
		require.NoError(t, s.SaveResource(ctx, &resource.Resource{
			ID:         id,
			TemplateID: 1,
			Values: resource.NewBuilder().
				Literal("dcterms:title", "Cat").
				Literal("dcterms:rights", "Public domain").
				Values(),
		}))
	}

	require.NoError(t, s.SaveProposal(ctx, proposal.New(1, "").
		Add("dcterms:title", value.Literal("Cat"), value.Literal("Dog"))))
	return s
}

// StoreMock returns a Mock serving s.
func StoreMock(s *store.Store) *Mock {
	return &Mock{
		StoreFunc: func() (*store.Store, error) {
			return s, nil
		},
	}
}
